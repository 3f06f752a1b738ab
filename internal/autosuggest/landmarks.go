package autosuggest

import (
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"

	"gonum.org/v1/gonum/stat"
)

// Face-mesh landmark indices (MediaPipe FaceMesh topology). Iris points are
// only present when the model runs with iris refinement; the eye-corner pairs
// are the fallback.
var (
	leftIrisIndices  = []int{468, 469, 470, 471, 472}
	rightIrisIndices = []int{473, 474, 475, 476, 477}
	leftEyeCorners   = []int{33, 133}
	rightEyeCorners  = []int{362, 263}
)

const foreheadIndex = 10

// Card heuristic: the detector knows nothing about cards, so the corners are
// derived from the face geometry instead.
const (
	cardWidthFaceRatio = 0.70 // card span as a fraction of detected face width
	cardAboveFaceRatio = 0.12 // lift above the forehead, as a fraction of face height
)

// LandmarkModel is the external face-landmark collaborator. It returns one
// landmark list per detected face, with coordinates normalized to [0,1] of
// the photo width/height.
type LandmarkModel interface {
	FaceLandmarks(photo *capture.Photo) ([][]geometry.Point2D, error)
}

// LandmarkDetector adapts a LandmarkModel to the Detector contract.
type LandmarkDetector struct {
	model LandmarkModel
}

// NewLandmarkDetector wraps a landmark model.
func NewLandmarkDetector(model LandmarkModel) *LandmarkDetector {
	return &LandmarkDetector{model: model}
}

// Detect converts the first detected face into marker suggestions.
func (d *LandmarkDetector) Detect(photo *capture.Photo) (marker.Suggestions, error) {
	faces, err := d.model.FaceLandmarks(photo)
	if err != nil {
		return nil, err
	}
	if len(faces) == 0 || len(faces[0]) == 0 {
		return nil, ErrNoFace
	}

	suggestions := SuggestionsFromLandmarks(faces[0], float64(photo.Width), float64(photo.Height))
	if suggestions == nil {
		return nil, ErrNoFace
	}
	return suggestions, nil
}

// SuggestionsFromLandmarks converts one face's normalized landmarks into
// pixel-space marker suggestions. Pupils come from the iris clusters, or the
// eye-corner averages when the model ran without iris refinement. Card
// corners are estimated at 70% of the face width, centered, slightly above
// the forehead landmark. Returns nil when the landmark list is too sparse to
// locate either eye.
func SuggestionsFromLandmarks(normalized []geometry.Point2D, imageW, imageH float64) marker.Suggestions {
	pixels := make([]geometry.Point2D, len(normalized))
	for i, p := range normalized {
		pixels[i] = geometry.NewPoint2D(p.X*imageW, p.Y*imageH)
	}

	eyeA, okA := landmarkMean(pixels, leftIrisIndices)
	if !okA {
		eyeA, okA = landmarkMean(pixels, leftEyeCorners)
	}
	eyeB, okB := landmarkMean(pixels, rightIrisIndices)
	if !okB {
		eyeB, okB = landmarkMean(pixels, rightEyeCorners)
	}
	if !okA || !okB {
		return nil
	}

	// Marker identity is by image position, not anatomical side.
	leftPupil, rightPupil := eyeA, eyeB
	if rightPupil.X < leftPupil.X {
		leftPupil, rightPupil = rightPupil, leftPupil
	}

	box := geometry.BoundingBox(pixels)
	forehead := geometry.NewPoint2D(box.Center().X, box.Y)
	if foreheadIndex < len(pixels) {
		forehead = pixels[foreheadIndex]
	}

	cardY := geometry.Clamp(forehead.Y-cardAboveFaceRatio*box.Height, 0, imageH)
	halfSpan := cardWidthFaceRatio * box.Width / 2
	centerX := box.Center().X

	return marker.Suggestions{
		marker.LeftPupil:  geometry.ClampPoint(leftPupil, imageW, imageH),
		marker.RightPupil: geometry.ClampPoint(rightPupil, imageW, imageH),
		marker.LeftCard:   geometry.ClampPoint(geometry.NewPoint2D(centerX-halfSpan, cardY), imageW, imageH),
		marker.RightCard:  geometry.ClampPoint(geometry.NewPoint2D(centerX+halfSpan, cardY), imageW, imageH),
	}
}

// landmarkMean averages the landmarks at the given indices. Indices beyond
// the available landmark count make the cluster unusable.
func landmarkMean(pixels []geometry.Point2D, indices []int) (geometry.Point2D, bool) {
	xs := make([]float64, 0, len(indices))
	ys := make([]float64, 0, len(indices))
	for _, idx := range indices {
		if idx >= len(pixels) {
			return geometry.Point2D{}, false
		}
		xs = append(xs, pixels[idx].X)
		ys = append(ys, pixels[idx].Y)
	}
	if len(xs) == 0 {
		return geometry.Point2D{}, false
	}
	return geometry.NewPoint2D(stat.Mean(xs, nil), stat.Mean(ys, nil)), true
}
