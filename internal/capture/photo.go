// Package capture provides photo acquisition from files and webcams.
package capture

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pd-meter/pkg/geometry"
)

// Photo is a captured frame. Width and Height are the authoritative
// image-pixel-space bounds for all marker coordinates.
type Photo struct {
	Image      image.Image `json:"-"`
	Path       string      `json:"path,omitempty"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	CapturedAt time.Time   `json:"captured_at"`
}

// FromImage wraps a decoded image as a Photo captured now.
func FromImage(img image.Image) *Photo {
	bounds := img.Bounds()
	return &Photo{
		Image:      img,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		CapturedAt: time.Now(),
	}
}

// Load reads a photo from the specified path.
func Load(path string) (*Photo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	photo := FromImage(img)
	photo.Path = path
	return photo, nil
}

// Size returns the photo dimensions as a geometry.Size.
func (p *Photo) Size() geometry.Size {
	return geometry.NewSize(float64(p.Width), float64(p.Height))
}

// SupportedFormats returns the list of supported photo formats.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported photo format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
