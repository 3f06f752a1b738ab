// Package app provides application state, configuration, and events.
package app

import (
	"fmt"
	"sync"

	"pd-meter/internal/autosuggest"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/internal/measure"
	"pd-meter/internal/reading"
	"pd-meter/pkg/geometry"

	"github.com/sirupsen/logrus"
)

// EventType identifies application events.
type EventType int

const (
	EventPhotoCaptured EventType = iota
	EventPhotoCleared
	EventMarkersChanged
	EventMeasurementUpdated
	EventDetectionChanged
	EventReadingSaved
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// DetectionUpdate is the payload of EventDetectionChanged.
type DetectionUpdate struct {
	Status  autosuggest.Status
	Message string
}

// State holds the current photo, markers, measurement, and detection status.
// The marker set is swapped wholesale per mutation and the measurement is
// recomputed synchronously on every change.
type State struct {
	mu sync.RWMutex

	config   measure.Config
	photo    *capture.Photo
	markers  marker.Set
	captured bool
	result   measure.Result

	detection DetectionUpdate
	engine    *autosuggest.Engine
	readings  *reading.Store

	listeners map[EventType][]EventListener
	log       *logrus.Entry
}

// NewState creates the application state. detectorFactory constructs the
// auto-suggest detector lazily on first detection run.
func NewState(cfg measure.Config, detectorFactory func() (autosuggest.Detector, error), readings *reading.Store) *State {
	s := &State{
		config:    cfg,
		readings:  readings,
		listeners: make(map[EventType][]EventListener),
		log:       logrus.WithField("component", "state"),
	}
	s.engine = autosuggest.NewEngine(detectorFactory, s.onDetection)
	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Config returns the measurement configuration.
func (s *State) Config() measure.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Photo returns the current photo, or nil when none is captured.
func (s *State) Photo() *capture.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.photo
}

// Markers returns the current marker snapshot. The second return value is
// false before a photo is captured.
func (s *State) Markers() (marker.Set, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers, s.captured
}

// Result returns the measurement for the current markers. The second return
// value is false before a photo is captured.
func (s *State) Result() (measure.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.captured
}

// Detection returns the current auto-suggest status and message.
func (s *State) Detection() DetectionUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detection
}

// SetPhoto installs a new photo, seeds the default marker layout for its
// dimensions, and resets the detection state machine to idle.
func (s *State) SetPhoto(photo *capture.Photo) {
	s.mu.Lock()
	s.photo = photo
	s.markers = marker.DefaultLayout(float64(photo.Width), float64(photo.Height))
	s.captured = true
	s.result = measure.Calculate(s.markers, s.config)
	s.detection = DetectionUpdate{Status: autosuggest.StatusIdle}
	s.mu.Unlock()

	s.engine.Reset()
	s.log.WithFields(logrus.Fields{"width": photo.Width, "height": photo.Height}).Info("photo captured")

	s.Emit(EventPhotoCaptured, photo)
	s.Emit(EventMarkersChanged, nil)
	s.Emit(EventMeasurementUpdated, nil)
}

// Retake discards the current photo and markers.
func (s *State) Retake() {
	s.mu.Lock()
	s.photo = nil
	s.markers = marker.Set{}
	s.captured = false
	s.result = measure.Result{}
	s.detection = DetectionUpdate{Status: autosuggest.StatusIdle}
	s.mu.Unlock()

	s.engine.Reset()
	s.Emit(EventPhotoCleared, nil)
}

// MoveMarker overwrites a single marker with an image-space point, clamped to
// the photo bounds, and recomputes the measurement.
func (s *State) MoveMarker(key marker.Key, p geometry.Point2D) {
	s.mu.Lock()
	if !s.captured {
		s.mu.Unlock()
		return
	}
	p = geometry.ClampPoint(p, float64(s.photo.Width), float64(s.photo.Height))
	s.markers = s.markers.With(key, p)
	s.result = measure.Calculate(s.markers, s.config)
	s.mu.Unlock()

	s.Emit(EventMarkersChanged, key)
	s.Emit(EventMeasurementUpdated, nil)
}

// EnterAnnotate fires the one-shot detection trigger for the current photo.
// It is a no-op when detection already ran or is running.
func (s *State) EnterAnnotate() {
	s.mu.RLock()
	photo := s.photo
	s.mu.RUnlock()
	if photo == nil {
		return
	}
	s.engine.TriggerOnce(photo)
}

// RerunDetection manually restarts auto-suggest for the current photo.
func (s *State) RerunDetection() {
	s.mu.RLock()
	photo := s.photo
	s.mu.RUnlock()
	if photo == nil {
		return
	}
	s.engine.Rerun(photo)
}

// onDetection merges detector suggestions into the marker store. Markers the
// detector did not address are preserved; failures leave the layout untouched.
func (s *State) onDetection(r autosuggest.Result) {
	s.mu.Lock()
	s.detection = DetectionUpdate{Status: r.Status, Message: r.Message}
	merged := false
	if r.Status == autosuggest.StatusSuccess && s.captured && len(r.Suggestions) > 0 {
		s.markers = marker.Merge(s.markers, r.Suggestions)
		s.result = measure.Calculate(s.markers, s.config)
		merged = true
	}
	s.mu.Unlock()

	s.Emit(EventDetectionChanged, s.Detection())
	if merged {
		s.Emit(EventMarkersChanged, nil)
		s.Emit(EventMeasurementUpdated, nil)
	}
}

// SaveReading snapshots the current measurement into the readings store.
func (s *State) SaveReading() (reading.Reading, error) {
	s.mu.RLock()
	if !s.captured {
		s.mu.RUnlock()
		return reading.Reading{}, fmt.Errorf("no measurement to save")
	}
	r := reading.New(s.result, s.markers, s.photo.CapturedAt)
	s.mu.RUnlock()

	if err := s.readings.Add(r); err != nil {
		return reading.Reading{}, fmt.Errorf("failed to save reading: %w", err)
	}

	s.log.WithFields(logrus.Fields{"id": r.ID, "pd_mm": r.Result.PDMMRounded}).Info("reading saved")
	s.Emit(EventReadingSaved, r)
	return r, nil
}

// Readings returns the readings store.
func (s *State) Readings() *reading.Store {
	return s.readings
}

// Close releases detector resources.
func (s *State) Close() {
	s.engine.Close()
}
