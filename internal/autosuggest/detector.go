package autosuggest

import (
	"errors"

	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
)

// ErrNoFace is returned by a Detector when the photo contains no usable face.
// It is a recoverable condition: the caller keeps the current marker layout
// and instructs the user to place markers manually.
var ErrNoFace = errors.New("no face detected")

// Detector produces marker suggestions from a photo. Pupils are the primary
// output; card corners are heuristic and may be withheld.
type Detector interface {
	Detect(photo *capture.Photo) (marker.Suggestions, error)
}

// Result is one completed detection attempt.
type Result struct {
	Status      Status
	Suggestions marker.Suggestions
	Message     string
}
