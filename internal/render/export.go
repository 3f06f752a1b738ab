package render

import (
	"fmt"
	"image/png"
	"os"

	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
)

// ExportPNG writes the annotated frame at the photo's native resolution.
func ExportPNG(path string, photo *capture.Photo, markers marker.Set) error {
	if photo == nil || photo.Image == nil {
		return fmt.Errorf("no photo to export")
	}

	img := Annotate(photo, markers, photo.Width, photo.Height)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
