// Package marker manages the four named measurement markers placed on a photo.
package marker

import (
	"pd-meter/pkg/geometry"
)

// Key identifies one of the four fixed markers.
type Key int

const (
	LeftPupil Key = iota
	RightPupil
	LeftCard
	RightCard
)

// Keys returns all marker keys in their canonical enumeration order.
// This order is also the deterministic tie-break rule for hit-testing.
func Keys() []Key {
	return []Key{LeftPupil, RightPupil, LeftCard, RightCard}
}

func (k Key) String() string {
	switch k {
	case LeftPupil:
		return "leftPupil"
	case RightPupil:
		return "rightPupil"
	case LeftCard:
		return "leftCard"
	case RightCard:
		return "rightCard"
	default:
		return "unknown"
	}
}

// Label returns the short handle label drawn next to the marker.
func (k Key) Label() string {
	switch k {
	case LeftPupil:
		return "LP"
	case RightPupil:
		return "RP"
	case LeftCard:
		return "LC"
	case RightCard:
		return "RC"
	default:
		return "?"
	}
}

// Set is a total mapping from every marker key to exactly one point in
// image-pixel space. It is a value type: mutations return a new snapshot.
type Set struct {
	LeftPupil  geometry.Point2D `json:"leftPupil"`
	RightPupil geometry.Point2D `json:"rightPupil"`
	LeftCard   geometry.Point2D `json:"leftCard"`
	RightCard  geometry.Point2D `json:"rightCard"`
}

// DefaultLayout seeds a marker set proportionally to the image dimensions:
// pupils at 40%/60% width near mid-height, card corners at 30%/70% width
// at 20% height.
func DefaultLayout(imageWidth, imageHeight float64) Set {
	return Set{
		LeftPupil:  geometry.NewPoint2D(imageWidth*0.40, imageHeight*0.50),
		RightPupil: geometry.NewPoint2D(imageWidth*0.60, imageHeight*0.50),
		LeftCard:   geometry.NewPoint2D(imageWidth*0.30, imageHeight*0.20),
		RightCard:  geometry.NewPoint2D(imageWidth*0.70, imageHeight*0.20),
	}
}

// Get returns the point for the given key.
func (s Set) Get(k Key) geometry.Point2D {
	switch k {
	case LeftPupil:
		return s.LeftPupil
	case RightPupil:
		return s.RightPupil
	case LeftCard:
		return s.LeftCard
	case RightCard:
		return s.RightCard
	default:
		return geometry.Point2D{}
	}
}

// With returns a new snapshot with one marker replaced.
func (s Set) With(k Key, p geometry.Point2D) Set {
	switch k {
	case LeftPupil:
		s.LeftPupil = p
	case RightPupil:
		s.RightPupil = p
	case LeftCard:
		s.LeftCard = p
	case RightCard:
		s.RightCard = p
	}
	return s
}

// Suggestions is a partial mapping from marker key to a suggested point.
// Key presence is explicit: a key absent from the map leaves the current
// marker untouched on merge.
type Suggestions map[Key]geometry.Point2D

// Merge applies suggestions to a marker set. A suggested point replaces the
// current marker for its key; keys without a suggestion are preserved exactly.
// Suggestions are authoritative when present, never averaged or blended.
func Merge(current Set, suggestions Suggestions) Set {
	merged := current
	for _, k := range Keys() {
		if p, ok := suggestions[k]; ok {
			merged = merged.With(k, p)
		}
	}
	return merged
}
