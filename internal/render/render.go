// Package render draws the annotated measurement frame: the photo, the card
// and pupil lines, and the four marker handles.
package render

import (
	"image"
	"image/color"

	"pd-meter/internal/annotate"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"

	xdraw "golang.org/x/image/draw"
)

// Overlay colors.
var (
	cardColor    = color.RGBA{R: 255, G: 214, B: 0, A: 255}
	pupilColor   = color.RGBA{R: 0, G: 229, B: 255, A: 255}
	handleFill   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	handleStroke = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const (
	lineThickness = 2
	handleRadius  = 9
	labelScale    = 2
)

// Annotate renders the photo scaled to w x h with the marker overlay.
// Markers are stored in image space; the overlay is drawn in display space
// through the same mapper the interactive surface uses.
func Annotate(photo *capture.Photo, markers marker.Set, w, h int) *image.RGBA {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if photo != nil && photo.Image != nil {
		xdraw.ApproxBiLinear.Scale(output, output.Bounds(), photo.Image, photo.Image.Bounds(), xdraw.Src, nil)
	}

	var mapper annotate.Mapper
	if photo != nil {
		mapper = annotate.NewMapper(float64(photo.Width), float64(photo.Height), float64(w), float64(h))
	} else {
		mapper = annotate.NewMapper(float64(w), float64(h), float64(w), float64(h))
	}

	drawSegment(output, mapper.ToDisplay(markers.LeftCard), mapper.ToDisplay(markers.RightCard), cardColor)
	drawSegment(output, mapper.ToDisplay(markers.LeftPupil), mapper.ToDisplay(markers.RightPupil), pupilColor)

	for _, k := range marker.Keys() {
		p := mapper.ToDisplay(markers.Get(k))
		col := pupilColor
		if k == marker.LeftCard || k == marker.RightCard {
			col = cardColor
		}
		drawHandle(output, p, col)
		drawLabel(output, k.Label(), int(p.X)+handleRadius+4, int(p.Y)-handleRadius, col, labelScale)
	}

	return output
}

// drawSegment draws a thick line between two display-space points.
func drawSegment(output *image.RGBA, a, b geometry.Point2D, col color.RGBA) {
	x1, y1 := int(a.X), int(a.Y)
	x2, y2 := int(b.X), int(b.Y)

	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy

	x, y := x1, y1
	for {
		setThick(output, x, y, col, lineThickness)
		if x == x2 && y == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

// drawHandle draws a filled circle with a contrasting outline.
func drawHandle(output *image.RGBA, center geometry.Point2D, col color.RGBA) {
	cx, cy := int(center.X), int(center.Y)
	r := handleRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d2 := dx*dx + dy*dy
			switch {
			case d2 <= (r-2)*(r-2):
				setPixel(output, cx+dx, cy+dy, handleFill)
			case d2 <= r*r:
				setPixel(output, cx+dx, cy+dy, col)
			case d2 <= (r+1)*(r+1):
				setPixel(output, cx+dx, cy+dy, handleStroke)
			}
		}
	}
}

func setThick(output *image.RGBA, x, y int, col color.RGBA, thickness int) {
	for dy := 0; dy < thickness; dy++ {
		for dx := 0; dx < thickness; dx++ {
			setPixel(output, x+dx, y+dy, col)
		}
	}
}

func setPixel(output *image.RGBA, x, y int, col color.RGBA) {
	bounds := output.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	output.SetRGBA(x, y, col)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
