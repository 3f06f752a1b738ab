package autosuggest

import (
	"fmt"
	"image"
	"os"
	"sort"

	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"

	"gocv.io/x/gocv"
)

// Well-known install locations for the OpenCV Haar cascade files.
var cascadeSearchDirs = []string{
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// FindCascade locates a cascade file by name, e.g.
// "haarcascade_frontalface_default.xml".
func FindCascade(name string) (string, error) {
	for _, dir := range cascadeSearchDirs {
		path := dir + "/" + name
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("cascade %s not found in %v", name, cascadeSearchDirs)
}

// CascadeDetector locates pupils with OpenCV Haar cascades: a frontal-face
// cascade narrows the search, an eye cascade finds the eyes inside it.
type CascadeDetector struct {
	face gocv.CascadeClassifier
	eyes gocv.CascadeClassifier
}

// NewCascadeDetector loads the face and eye cascade files.
func NewCascadeDetector(facePath, eyePath string) (*CascadeDetector, error) {
	face := gocv.NewCascadeClassifier()
	if !face.Load(facePath) {
		face.Close()
		return nil, fmt.Errorf("failed to load face cascade %s", facePath)
	}
	eyes := gocv.NewCascadeClassifier()
	if !eyes.Load(eyePath) {
		face.Close()
		eyes.Close()
		return nil, fmt.Errorf("failed to load eye cascade %s", eyePath)
	}
	return &CascadeDetector{face: face, eyes: eyes}, nil
}

// NewDefaultCascadeDetector loads the standard frontal-face and eye cascades
// from their system install location.
func NewDefaultCascadeDetector() (*CascadeDetector, error) {
	facePath, err := FindCascade("haarcascade_frontalface_default.xml")
	if err != nil {
		return nil, err
	}
	eyePath, err := FindCascade("haarcascade_eye.xml")
	if err != nil {
		return nil, err
	}
	return NewCascadeDetector(facePath, eyePath)
}

// Close releases the classifier resources.
func (d *CascadeDetector) Close() {
	d.face.Close()
	d.eyes.Close()
}

// Detect finds the largest face, places pupil suggestions at the detected eye
// centers, and derives card-corner suggestions from the face geometry.
func (d *CascadeDetector) Detect(photo *capture.Photo) (marker.Suggestions, error) {
	mat, err := imageToMat(photo.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to convert photo: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	faces := d.face.DetectMultiScale(gray)
	if len(faces) == 0 {
		return nil, ErrNoFace
	}
	face := largestRect(faces)

	roi := gray.Region(face)
	eyeRects := d.eyes.DetectMultiScale(roi)
	roi.Close()

	faceW := float64(face.Dx())
	faceH := float64(face.Dy())
	imageW := float64(photo.Width)
	imageH := float64(photo.Height)

	var leftPupil, rightPupil geometry.Point2D
	if len(eyeRects) >= 2 {
		sort.Slice(eyeRects, func(i, j int) bool {
			return eyeRects[i].Dx()*eyeRects[i].Dy() > eyeRects[j].Dx()*eyeRects[j].Dy()
		})
		a := rectCenter(eyeRects[0].Add(face.Min))
		b := rectCenter(eyeRects[1].Add(face.Min))
		leftPupil, rightPupil = a, b
		if rightPupil.X < leftPupil.X {
			leftPupil, rightPupil = rightPupil, leftPupil
		}
	} else {
		// Eye cascade missed: fall back to facial proportions inside the
		// detected face rectangle.
		leftPupil = geometry.NewPoint2D(float64(face.Min.X)+0.32*faceW, float64(face.Min.Y)+0.40*faceH)
		rightPupil = geometry.NewPoint2D(float64(face.Min.X)+0.68*faceW, float64(face.Min.Y)+0.40*faceH)
	}

	// Same card heuristic as the landmark path: 70% of face width, centered,
	// slightly above the top of the face.
	centerX := float64(face.Min.X) + faceW/2
	cardY := geometry.Clamp(float64(face.Min.Y)-cardAboveFaceRatio*faceH, 0, imageH)
	halfSpan := cardWidthFaceRatio * faceW / 2

	return marker.Suggestions{
		marker.LeftPupil:  geometry.ClampPoint(leftPupil, imageW, imageH),
		marker.RightPupil: geometry.ClampPoint(rightPupil, imageW, imageH),
		marker.LeftCard:   geometry.ClampPoint(geometry.NewPoint2D(centerX-halfSpan, cardY), imageW, imageH),
		marker.RightCard:  geometry.ClampPoint(geometry.NewPoint2D(centerX+halfSpan, cardY), imageW, imageH),
	}, nil
}

func largestRect(rects []image.Rectangle) image.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}

func rectCenter(r image.Rectangle) geometry.Point2D {
	return geometry.NewPoint2D(
		float64(r.Min.X)+float64(r.Dx())/2,
		float64(r.Min.Y)+float64(r.Dy())/2,
	)
}

// imageToMat converts a Go image to an OpenCV BGR Mat.
func imageToMat(img image.Image) (gocv.Mat, error) {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}

	mat, err := gocv.NewMatFromBytes(bounds.Dy(), bounds.Dx(), gocv.MatTypeCV8UC4, rgba.Pix)
	if err != nil {
		return gocv.Mat{}, err
	}

	bgr := gocv.NewMat()
	gocv.CvtColor(mat, &bgr, gocv.ColorRGBAToBGR)
	mat.Close()

	return bgr, nil
}
