// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"strings"

	"pd-meter/internal/app"
	"pd-meter/internal/autosuggest"
	"pd-meter/internal/measure"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel provides the main side panel with tabbed sections.
type SidePanel struct {
	state     *app.State
	container *container.AppTabs

	measurePanel  *MeasurePanel
	readingsPanel *ReadingsPanel
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State) *SidePanel {
	sp := &SidePanel{
		state: state,
	}

	sp.measurePanel = NewMeasurePanel(state)
	sp.readingsPanel = NewReadingsPanel(state)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Measure", sp.measurePanel.Container()),
		container.NewTabItem("Readings", sp.readingsPanel.Container()),
	)

	return sp
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// MeasurePanel shows the live measurement: PD value, confidence, quality, and
// any placement issues, plus the auto-detect controls.
type MeasurePanel struct {
	state     *app.State
	container fyne.CanvasObject

	pdLabel         *widget.Label
	pdExactLabel    *widget.Label
	confidenceLabel *widget.Label
	qualityLabel    *widget.Label
	issuesLabel     *widget.Label
	detectionLabel  *widget.Label

	detectButton *widget.Button
	saveButton   *widget.Button
}

// NewMeasurePanel creates the measurement panel.
func NewMeasurePanel(state *app.State) *MeasurePanel {
	mp := &MeasurePanel{
		state: state,
	}

	mp.pdLabel = widget.NewLabel("--")
	mp.pdLabel.TextStyle = fyne.TextStyle{Bold: true}
	mp.pdLabel.Alignment = fyne.TextAlignCenter

	mp.pdExactLabel = widget.NewLabel("")
	mp.pdExactLabel.Alignment = fyne.TextAlignCenter

	mp.confidenceLabel = widget.NewLabel("")
	mp.qualityLabel = widget.NewLabel("")
	mp.qualityLabel.Wrapping = fyne.TextWrapWord
	mp.issuesLabel = widget.NewLabel("")
	mp.issuesLabel.Wrapping = fyne.TextWrapWord

	mp.detectionLabel = widget.NewLabel("No photo")
	mp.detectionLabel.Wrapping = fyne.TextWrapWord

	mp.detectButton = widget.NewButton("Auto-Detect Markers", func() {
		mp.state.RerunDetection()
	})
	mp.detectButton.Disable()

	mp.saveButton = widget.NewButton("Save Reading", func() {
		if _, err := mp.state.SaveReading(); err != nil {
			mp.detectionLabel.SetText("Save failed: " + err.Error())
		}
	})
	mp.saveButton.Disable()

	mp.container = container.NewVBox(
		widget.NewLabelWithStyle("Pupillary Distance", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		mp.pdLabel,
		mp.pdExactLabel,
		widget.NewSeparator(),
		mp.confidenceLabel,
		mp.qualityLabel,
		mp.issuesLabel,
		widget.NewSeparator(),
		mp.detectionLabel,
		mp.detectButton,
		mp.saveButton,
	)

	mp.setupEventHandlers()
	return mp
}

// Container returns the panel container.
func (mp *MeasurePanel) Container() fyne.CanvasObject {
	return mp.container
}

func (mp *MeasurePanel) setupEventHandlers() {
	mp.state.On(app.EventMeasurementUpdated, func(interface{}) {
		mp.refreshMeasurement()
	})
	mp.state.On(app.EventPhotoCaptured, func(interface{}) {
		mp.detectButton.Enable()
		mp.saveButton.Enable()
	})
	mp.state.On(app.EventPhotoCleared, func(interface{}) {
		mp.detectButton.Disable()
		mp.saveButton.Disable()
		mp.pdLabel.SetText("--")
		mp.pdExactLabel.SetText("")
		mp.confidenceLabel.SetText("")
		mp.qualityLabel.SetText("")
		mp.issuesLabel.SetText("")
		mp.detectionLabel.SetText("No photo")
	})
	mp.state.On(app.EventDetectionChanged, func(data interface{}) {
		if u, ok := data.(app.DetectionUpdate); ok {
			mp.refreshDetection(u)
		}
	})
}

func (mp *MeasurePanel) refreshMeasurement() {
	result, ok := mp.state.Result()
	if !ok {
		return
	}

	mp.pdLabel.SetText(fmt.Sprintf("%.1f mm", result.PDMMRounded))
	mp.pdExactLabel.SetText(fmt.Sprintf("exact %.2f mm", result.PDMM))
	mp.confidenceLabel.SetText(fmt.Sprintf("Confidence: %.0f%%", result.Confidence*100))
	mp.qualityLabel.SetText(result.QualityMessage)

	if len(result.Issues) == 0 {
		mp.issuesLabel.SetText("")
	} else {
		mp.issuesLabel.SetText("Issues:\n- " + strings.Join(result.Issues, "\n- "))
	}
}

func (mp *MeasurePanel) refreshDetection(u app.DetectionUpdate) {
	switch u.Status {
	case autosuggest.StatusIdle:
		mp.detectionLabel.SetText("")
	case autosuggest.StatusLoading:
		mp.detectionLabel.SetText(u.Message)
		mp.detectButton.Disable()
		return
	default:
		mp.detectionLabel.SetText(u.Message)
	}
	if mp.state.Photo() != nil {
		mp.detectButton.Enable()
	}
}

// ReadingsPanel lists previously saved readings.
type ReadingsPanel struct {
	state     *app.State
	container fyne.CanvasObject
	list      *widget.List
}

// NewReadingsPanel creates the saved-readings panel.
func NewReadingsPanel(state *app.State) *ReadingsPanel {
	rp := &ReadingsPanel{
		state: state,
	}

	rp.list = widget.NewList(
		func() int {
			return len(rp.state.Readings().List())
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("reading")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			readings := rp.state.Readings().List()
			if id < 0 || id >= len(readings) {
				return
			}
			r := readings[id]
			label := obj.(*widget.Label)
			label.SetText(fmt.Sprintf("%.1f mm  (%s, %s)",
				r.Result.PDMMRounded,
				qualityTag(r.Result),
				r.SavedAt.Format("2006-01-02 15:04")))
		},
	)

	rp.container = rp.list

	state.On(app.EventReadingSaved, func(interface{}) {
		rp.list.Refresh()
	})

	return rp
}

// Container returns the panel container.
func (rp *ReadingsPanel) Container() fyne.CanvasObject {
	return rp.container
}

func qualityTag(r measure.Result) string {
	switch {
	case r.Valid && r.Confidence >= 0.75:
		return "good"
	case r.Confidence >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}
