package app

import (
	"image"
	"path/filepath"
	"testing"
	"time"

	"pd-meter/internal/autosuggest"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/internal/measure"
	"pd-meter/internal/reading"
	"pd-meter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedDetector struct {
	suggestions marker.Suggestions
	err         error
}

func (d *scriptedDetector) Detect(_ *capture.Photo) (marker.Suggestions, error) {
	return d.suggestions, d.err
}

func newTestState(t *testing.T, det autosuggest.Detector) *State {
	t.Helper()
	store, err := reading.Open(filepath.Join(t.TempDir(), "readings.json"))
	require.NoError(t, err)
	return NewState(measure.DefaultConfig(), func() (autosuggest.Detector, error) {
		return det, nil
	}, store)
}

func photo1000x800() *capture.Photo {
	return capture.FromImage(image.NewRGBA(image.Rect(0, 0, 1000, 800)))
}

// waitDetection blocks until the detection status leaves loading/idle.
func waitDetection(t *testing.T, s *State, ch <-chan DetectionUpdate) DetectionUpdate {
	t.Helper()
	for {
		select {
		case u := <-ch:
			if u.Status.Terminal() {
				return u
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for detection")
		}
	}
}

func detectionChannel(s *State) <-chan DetectionUpdate {
	ch := make(chan DetectionUpdate, 16)
	s.On(EventDetectionChanged, func(data interface{}) {
		if u, ok := data.(DetectionUpdate); ok {
			ch <- u
		}
	})
	return ch
}

func TestSetPhotoSeedsDefaultLayout(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.SetPhoto(photo1000x800())

	markers, ok := s.Markers()
	require.True(t, ok)
	assert.Equal(t, marker.DefaultLayout(1000, 800), markers)

	result, ok := s.Result()
	require.True(t, ok)
	assert.Greater(t, result.PupilPixelDistance, 0.0)
}

func TestMoveMarkerRecomputes(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.SetPhoto(photo1000x800())

	before, _ := s.Result()
	s.MoveMarker(marker.RightPupil, geometry.NewPoint2D(700, 400))
	after, _ := s.Result()

	markers, _ := s.Markers()
	assert.Equal(t, geometry.NewPoint2D(700, 400), markers.RightPupil)
	assert.NotEqual(t, before.PupilPixelDistance, after.PupilPixelDistance)

	// Only the dragged marker changed.
	assert.Equal(t, marker.DefaultLayout(1000, 800).LeftPupil, markers.LeftPupil)
}

func TestMoveMarkerClampsToPhoto(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.SetPhoto(photo1000x800())

	s.MoveMarker(marker.LeftCard, geometry.NewPoint2D(-50, 9000))
	markers, _ := s.Markers()
	assert.Equal(t, geometry.NewPoint2D(0, 800), markers.LeftCard)
}

func TestMoveMarkerWithoutPhotoIsNoOp(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.MoveMarker(marker.LeftPupil, geometry.NewPoint2D(1, 1))
	_, ok := s.Markers()
	assert.False(t, ok)
}

func TestDetectionSuccessMergesSuggestions(t *testing.T) {
	suggestions := marker.Suggestions{
		marker.LeftPupil:  geometry.NewPoint2D(420, 410),
		marker.RightPupil: geometry.NewPoint2D(585, 405),
	}
	s := newTestState(t, &scriptedDetector{suggestions: suggestions})
	ch := detectionChannel(s)

	s.SetPhoto(photo1000x800())
	s.EnterAnnotate()
	u := waitDetection(t, s, ch)

	assert.Equal(t, autosuggest.StatusSuccess, u.Status)

	markers, _ := s.Markers()
	assert.Equal(t, suggestions[marker.LeftPupil], markers.LeftPupil)
	assert.Equal(t, suggestions[marker.RightPupil], markers.RightPupil)
	// Card corners were not suggested: the defaults survive the merge.
	def := marker.DefaultLayout(1000, 800)
	assert.Equal(t, def.LeftCard, markers.LeftCard)
	assert.Equal(t, def.RightCard, markers.RightCard)
}

func TestDetectionNoFaceKeepsLayout(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	ch := detectionChannel(s)

	s.SetPhoto(photo1000x800())
	s.EnterAnnotate()
	u := waitDetection(t, s, ch)

	assert.Equal(t, autosuggest.StatusNoFace, u.Status)
	assert.Contains(t, u.Message, "manually")

	markers, _ := s.Markers()
	assert.Equal(t, marker.DefaultLayout(1000, 800), markers)
}

func TestRetakeClearsEverything(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.SetPhoto(photo1000x800())
	s.Retake()

	assert.Nil(t, s.Photo())
	_, ok := s.Markers()
	assert.False(t, ok)
	_, ok = s.Result()
	assert.False(t, ok)
	assert.Equal(t, autosuggest.StatusIdle, s.Detection().Status)
}

func TestSaveReading(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	s.SetPhoto(photo1000x800())

	r, err := s.SaveReading()
	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)

	list := s.Readings().List()
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
}

func TestSaveReadingWithoutPhoto(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})
	_, err := s.SaveReading()
	assert.Error(t, err)
}

func TestEventListeners(t *testing.T) {
	s := newTestState(t, &scriptedDetector{err: autosuggest.ErrNoFace})

	var markerEvents, measurementEvents int
	s.On(EventMarkersChanged, func(interface{}) { markerEvents++ })
	s.On(EventMeasurementUpdated, func(interface{}) { measurementEvents++ })

	s.SetPhoto(photo1000x800())
	s.MoveMarker(marker.LeftPupil, geometry.NewPoint2D(100, 100))

	assert.Equal(t, 2, markerEvents)
	assert.Equal(t, 2, measurementEvents)
}
