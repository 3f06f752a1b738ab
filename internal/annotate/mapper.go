// Package annotate maps pointer input on a scaled display surface to marker
// mutations in image-pixel space.
package annotate

import (
	"pd-meter/pkg/geometry"
)

// Mapper converts between display coordinates (the rendered surface, at an
// arbitrary scaled size) and image coordinates (the space markers live in,
// fixed at capture time).
type Mapper struct {
	ImageWidth    float64
	ImageHeight   float64
	DisplayWidth  float64
	DisplayHeight float64
}

// NewMapper creates a mapper for the given image and display sizes.
func NewMapper(imageW, imageH, displayW, displayH float64) Mapper {
	return Mapper{
		ImageWidth:    imageW,
		ImageHeight:   imageH,
		DisplayWidth:  displayW,
		DisplayHeight: displayH,
	}
}

// ScaleX returns the per-axis horizontal display/image scale factor.
func (m Mapper) ScaleX() float64 {
	if m.ImageWidth == 0 {
		return 1
	}
	return m.DisplayWidth / m.ImageWidth
}

// ScaleY returns the per-axis vertical display/image scale factor.
func (m Mapper) ScaleY() float64 {
	if m.ImageHeight == 0 {
		return 1
	}
	return m.DisplayHeight / m.ImageHeight
}

// ToDisplay converts an image-space point to display space.
func (m Mapper) ToDisplay(p geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{X: p.X * m.ScaleX(), Y: p.Y * m.ScaleY()}
}

// ToImage converts a display-space point to image space. The result is
// clamped to [0,imageWidth] x [0,imageHeight] so a marker can never leave the
// photo, even when the pointer is dragged outside the rendered surface.
func (m Mapper) ToImage(p geometry.Point2D) geometry.Point2D {
	img := geometry.Point2D{X: p.X / m.ScaleX(), Y: p.Y / m.ScaleY()}
	return geometry.ClampPoint(img, m.ImageWidth, m.ImageHeight)
}
