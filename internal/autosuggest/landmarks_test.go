package autosuggest

import (
	"errors"
	"testing"

	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// meshWithIris builds a minimal 478-point normalized landmark list with the
// face spanning x in [0.3,0.7], y in [0.2,0.8].
func meshWithIris() []geometry.Point2D {
	points := make([]geometry.Point2D, 478)
	for i := range points {
		points[i] = geometry.NewPoint2D(0.5, 0.5)
	}
	// Face extent.
	points[0] = geometry.NewPoint2D(0.3, 0.2)
	points[1] = geometry.NewPoint2D(0.7, 0.8)
	// Forehead.
	points[foreheadIndex] = geometry.NewPoint2D(0.5, 0.2)
	// Iris clusters around (0.4, 0.45) and (0.6, 0.45).
	for _, idx := range leftIrisIndices {
		points[idx] = geometry.NewPoint2D(0.4, 0.45)
	}
	for _, idx := range rightIrisIndices {
		points[idx] = geometry.NewPoint2D(0.6, 0.45)
	}
	return points
}

func TestSuggestionsFromLandmarksIris(t *testing.T) {
	s := SuggestionsFromLandmarks(meshWithIris(), 1000, 1000)
	require.NotNil(t, s)

	lp, ok := s[marker.LeftPupil]
	require.True(t, ok)
	rp, ok := s[marker.RightPupil]
	require.True(t, ok)

	assert.InDelta(t, 400, lp.X, 1e-9)
	assert.InDelta(t, 450, lp.Y, 1e-9)
	assert.InDelta(t, 600, rp.X, 1e-9)
	assert.Less(t, lp.X, rp.X, "left pupil must be the image-left one")
}

func TestSuggestionsCardHeuristic(t *testing.T) {
	s := SuggestionsFromLandmarks(meshWithIris(), 1000, 1000)
	require.NotNil(t, s)

	lc := s[marker.LeftCard]
	rc := s[marker.RightCard]

	// Face width 400 px: card span is 70% of it, centered at x=500.
	assert.InDelta(t, 280, rc.X-lc.X, 1e-9)
	assert.InDelta(t, 500, (rc.X+lc.X)/2, 1e-9)

	// Slightly above the forehead landmark at y=200 (face height 600 px).
	assert.InDelta(t, 200-0.12*600, lc.Y, 1e-9)
	assert.Equal(t, lc.Y, rc.Y)
}

func TestSuggestionsEyeCornerFallback(t *testing.T) {
	// Only 400 landmarks: no iris refinement, eye corners must be used.
	points := make([]geometry.Point2D, 400)
	for i := range points {
		points[i] = geometry.NewPoint2D(0.5, 0.5)
	}
	points[33] = geometry.NewPoint2D(0.35, 0.44)
	points[133] = geometry.NewPoint2D(0.45, 0.46)
	points[362] = geometry.NewPoint2D(0.55, 0.46)
	points[263] = geometry.NewPoint2D(0.65, 0.44)

	s := SuggestionsFromLandmarks(points, 1000, 1000)
	require.NotNil(t, s)

	assert.InDelta(t, 400, s[marker.LeftPupil].X, 1e-9)
	assert.InDelta(t, 450, s[marker.LeftPupil].Y, 1e-9)
	assert.InDelta(t, 600, s[marker.RightPupil].X, 1e-9)
}

func TestSuggestionsTooSparse(t *testing.T) {
	points := []geometry.Point2D{{X: 0.5, Y: 0.5}}
	assert.Nil(t, SuggestionsFromLandmarks(points, 1000, 1000))
}

func TestSuggestionsClampedToImage(t *testing.T) {
	// Face at the very top of the frame pushes the card heuristic above y=0.
	points := meshWithIris()
	points[foreheadIndex] = geometry.NewPoint2D(0.5, 0.0)

	s := SuggestionsFromLandmarks(points, 1000, 1000)
	require.NotNil(t, s)
	assert.GreaterOrEqual(t, s[marker.LeftCard].Y, 0.0)
}

type stubModel struct {
	faces [][]geometry.Point2D
	err   error
}

func (m *stubModel) FaceLandmarks(_ *capture.Photo) ([][]geometry.Point2D, error) {
	return m.faces, m.err
}

func TestLandmarkDetectorNoFace(t *testing.T) {
	d := NewLandmarkDetector(&stubModel{})
	_, err := d.Detect(testPhoto())
	assert.ErrorIs(t, err, ErrNoFace)
}

func TestLandmarkDetectorModelError(t *testing.T) {
	d := NewLandmarkDetector(&stubModel{err: errors.New("model not loaded")})
	_, err := d.Detect(testPhoto())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoFace)
}

func TestLandmarkDetectorUsesFirstFace(t *testing.T) {
	d := NewLandmarkDetector(&stubModel{faces: [][]geometry.Point2D{meshWithIris()}})
	s, err := d.Detect(testPhoto())
	require.NoError(t, err)
	assert.Len(t, s, 4)
}
