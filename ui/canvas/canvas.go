// Package canvas provides the interactive annotation surface: the photo with
// the marker overlay, and drag handling for the four markers.
package canvas

import (
	"image"
	"image/draw"

	"pd-meter/internal/annotate"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/internal/render"
	"pd-meter/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// MarkerCanvas displays the captured photo letterboxed inside the widget and
// lets the user drag marker handles. Pointer positions are converted to image
// coordinates before any marker moves, so marker state never depends on the
// widget size.
type MarkerCanvas struct {
	widget.BaseWidget

	photo   *capture.Photo
	markers marker.Set
	hasData bool

	raster  *fynecanvas.Raster
	session *annotate.Session

	// Fitted photo area inside the widget, updated on every draw.
	fitOffset fyne.Position
	fitSize   fyne.Size

	// onMarkerMoved receives image-space positions for the dragged marker.
	onMarkerMoved func(key marker.Key, p geometry.Point2D)
}

// NewMarkerCanvas creates an empty canvas. pickRadius is in image pixels.
func NewMarkerCanvas(pickRadius float64) *MarkerCanvas {
	mc := &MarkerCanvas{
		session: annotate.NewSession(pickRadius),
	}
	mc.raster = fynecanvas.NewRaster(mc.draw)
	mc.raster.ScaleMode = fynecanvas.ImageScalePixels
	mc.ExtendBaseWidget(mc)
	return mc
}

// SetPhoto installs the photo and markers to display. Passing a nil photo
// clears the canvas.
func (mc *MarkerCanvas) SetPhoto(photo *capture.Photo, markers marker.Set) {
	mc.photo = photo
	mc.markers = markers
	mc.hasData = photo != nil
	mc.session.Cancel()
	mc.Refresh()
}

// SetMarkers updates the marker overlay without touching the photo.
func (mc *MarkerCanvas) SetMarkers(markers marker.Set) {
	mc.markers = markers
	mc.Refresh()
}

// OnMarkerMoved sets the callback fired while a marker handle is dragged.
// Positions are in image coordinates.
func (mc *MarkerCanvas) OnMarkerMoved(callback func(key marker.Key, p geometry.Point2D)) {
	mc.onMarkerMoved = callback
}

// Refresh redraws the raster.
func (mc *MarkerCanvas) Refresh() {
	mc.raster.Refresh()
	mc.BaseWidget.Refresh()
}

// mapper returns the display-to-image mapper for the current fitted area.
func (mc *MarkerCanvas) mapper() annotate.Mapper {
	return annotate.NewMapper(
		float64(mc.photo.Width), float64(mc.photo.Height),
		float64(mc.fitSize.Width), float64(mc.fitSize.Height),
	)
}

// toImage converts a widget-space pointer position to image coordinates.
func (mc *MarkerCanvas) toImage(pos fyne.Position) geometry.Point2D {
	display := geometry.NewPoint2D(
		float64(pos.X-mc.fitOffset.X),
		float64(pos.Y-mc.fitOffset.Y),
	)
	return mc.mapper().ToImage(display)
}

// Dragged implements fyne.Draggable. The first event of a gesture picks the
// marker nearest the drag origin; subsequent events move that marker only.
func (mc *MarkerCanvas) Dragged(ev *fyne.DragEvent) {
	if !mc.hasData {
		return
	}

	if _, dragging := mc.session.Active(); !dragging {
		origin := fyne.Position{
			X: ev.Position.X - ev.Dragged.DX,
			Y: ev.Position.Y - ev.Dragged.DY,
		}
		if _, ok := mc.session.Begin(mc.markers, mc.toImage(origin)); !ok {
			return
		}
	}

	key, ok := mc.session.Move()
	if !ok {
		return
	}

	p := mc.toImage(ev.Position)
	mc.markers = mc.markers.With(key, p)
	if mc.onMarkerMoved != nil {
		mc.onMarkerMoved(key, p)
	}
	mc.Refresh()
}

// DragEnd implements fyne.Draggable.
func (mc *MarkerCanvas) DragEnd() {
	mc.session.End()
}

// draw is the raster drawing function.
func (mc *MarkerCanvas) draw(w, h int) image.Image {
	output := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(output.Pix); i += 4 {
		output.Pix[i] = 255
	}

	if !mc.hasData || w == 0 || h == 0 {
		mc.fitOffset = fyne.Position{}
		mc.fitSize = fyne.NewSize(float32(w), float32(h))
		return output
	}

	// Fit the photo inside the widget, preserving aspect ratio.
	scaleX := float64(w) / float64(mc.photo.Width)
	scaleY := float64(h) / float64(mc.photo.Height)
	scale := scaleX
	if scaleY < scaleX {
		scale = scaleY
	}
	fitW := int(float64(mc.photo.Width) * scale)
	fitH := int(float64(mc.photo.Height) * scale)
	if fitW < 1 {
		fitW = 1
	}
	if fitH < 1 {
		fitH = 1
	}
	offX := (w - fitW) / 2
	offY := (h - fitH) / 2

	mc.fitOffset = fyne.NewPos(float32(offX), float32(offY))
	mc.fitSize = fyne.NewSize(float32(fitW), float32(fitH))

	annotated := render.Annotate(mc.photo, mc.markers, fitW, fitH)
	target := image.Rect(offX, offY, offX+fitW, offY+fitH)
	draw.Draw(output, target, annotated, image.Point{}, draw.Src)

	return output
}

// CreateRenderer implements fyne.Widget.
func (mc *MarkerCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &markerCanvasRenderer{canvas: mc}
}

type markerCanvasRenderer struct {
	canvas *MarkerCanvas
}

func (r *markerCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *markerCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *markerCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *markerCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *markerCanvasRenderer) Destroy() {}
