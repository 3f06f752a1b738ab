package annotate

import (
	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"
)

// Nearest returns the marker closest to the given image-space point, provided
// it lies within the pick radius. Ties between equidistant markers resolve to
// the earliest key in marker.Keys() order.
func Nearest(markers marker.Set, p geometry.Point2D, radius float64) (marker.Key, bool) {
	var best marker.Key
	var bestDist float64
	found := false
	for _, k := range marker.Keys() {
		d := markers.Get(k).Distance(p)
		if d > radius {
			continue
		}
		if !found || d < bestDist {
			best = k
			bestDist = d
			found = true
		}
	}
	return best, found
}

// Session is the drag state machine: idle, or dragging exactly one marker.
// Transitions happen on pointer down/move/up and on pointer-capture loss.
type Session struct {
	pickRadius float64
	active     marker.Key
	dragging   bool
}

// NewSession creates an idle drag session with the given pick radius, in
// image pixels.
func NewSession(pickRadius float64) *Session {
	return &Session{pickRadius: pickRadius}
}

// Begin handles pointer-down at an image-space point. If a marker is within
// the pick radius the session enters dragging and returns that marker's key;
// otherwise the gesture is a no-op. Any previous drag is discarded first, so
// rapid down/up sequences cannot leave a stale active marker.
func (s *Session) Begin(markers marker.Set, p geometry.Point2D) (marker.Key, bool) {
	s.dragging = false
	k, ok := Nearest(markers, p, s.pickRadius)
	if !ok {
		return 0, false
	}
	s.active = k
	s.dragging = true
	return k, true
}

// Move handles pointer-move. While a marker is active it returns that key and
// true; the caller overwrites only that marker's point. Idle moves are no-ops.
func (s *Session) Move() (marker.Key, bool) {
	if !s.dragging {
		return 0, false
	}
	return s.active, true
}

// End handles pointer-up, returning the session to idle.
func (s *Session) End() {
	s.dragging = false
}

// Cancel handles pointer-capture loss; identical to End.
func (s *Session) Cancel() {
	s.dragging = false
}

// Active reports the marker currently being dragged, if any.
func (s *Session) Active() (marker.Key, bool) {
	return s.active, s.dragging
}
