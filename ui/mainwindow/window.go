// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"

	"pd-meter/internal/app"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/internal/render"
	"pd-meter/internal/version"
	"pd-meter/pkg/geometry"
	"pd-meter/ui/canvas"
	"pd-meter/ui/panels"
	"pd-meter/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.MarkerCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("PD Meter")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  appPrefs,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()

	win.Resize(fyne.NewSize(1024, 700))
	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewMarkerCanvas(mw.state.Config().PickRadiusPixels)
	mw.canvas.OnMarkerMoved(func(key marker.Key, p geometry.Point2D) {
		mw.state.MoveMarker(key, p)
	})

	mw.sidePanel = panels.NewSidePanel(mw.state)
	mw.statusBar = widget.NewLabel("Load a photo to start")

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,   // top
		nil,       // bottom
		nil,       // left
		nil,       // right
		mw.canvas, // center
	)

	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.28)

	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
}

// createToolbar creates the photo capture toolbar.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	loadBtn := widget.NewButton("Load Photo...", mw.onLoadPhoto)
	captureBtn := widget.NewButton("Capture from Camera", mw.onCaptureCamera)
	retakeBtn := widget.NewButton("Retake", mw.onRetake)

	return container.NewHBox(loadBtn, captureBtn, retakeBtn)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Load Photo...", mw.onLoadPhoto),
		fyne.NewMenuItem("Capture from Camera", mw.onCaptureCamera),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Annotated PNG...", mw.onExportPNG),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	measureMenu := fyne.NewMenu("Measure",
		fyne.NewMenuItem("Auto-Detect Markers", mw.onAutoDetect),
		fyne.NewMenuItem("Reset Markers", mw.onResetMarkers),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Retake", mw.onRetake),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Reading", mw.onSaveReading),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, measureMenu, helpMenu))
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventPhotoCaptured, func(data interface{}) {
		photo, ok := data.(*capture.Photo)
		if !ok {
			return
		}
		markers, _ := mw.state.Markers()
		mw.canvas.SetPhoto(photo, markers)
		mw.updateStatus(fmt.Sprintf("Photo loaded (%dx%d)", photo.Width, photo.Height))
		mw.state.EnterAnnotate()
	})

	mw.state.On(app.EventPhotoCleared, func(interface{}) {
		mw.canvas.SetPhoto(nil, marker.Set{})
		mw.updateStatus("Load a photo to start")
	})

	mw.state.On(app.EventMarkersChanged, func(interface{}) {
		if markers, ok := mw.state.Markers(); ok {
			mw.canvas.SetMarkers(markers)
		}
	})

	mw.state.On(app.EventDetectionChanged, func(data interface{}) {
		if u, ok := data.(app.DetectionUpdate); ok {
			mw.updateStatus(u.Message)
		}
	})

	mw.state.On(app.EventReadingSaved, func(interface{}) {
		mw.updateStatus("Reading saved")
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	if text == "" {
		return
	}
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDirectory)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDirectory, filepath.Dir(filePath))
	if err := mw.prefs.Save(); err != nil {
		mw.updateStatus("Failed to save preferences: " + err.Error())
	}
}

// Menu action handlers

func (mw *MainWindow) onLoadPhoto() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		photo, err := capture.Load(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.SetPhoto(photo)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(capture.SupportedFormats()))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onCaptureCamera() {
	device := mw.prefs.Int(prefs.KeyCameraDevice, 0)

	cam, err := capture.OpenWebcam(device)
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	defer cam.Close()

	photo, err := cam.Grab()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.state.SetPhoto(photo)
}

func (mw *MainWindow) onRetake() {
	if mw.state.Photo() == nil {
		return
	}
	mw.state.Retake()
}

func (mw *MainWindow) onAutoDetect() {
	mw.state.RerunDetection()
}

func (mw *MainWindow) onResetMarkers() {
	photo := mw.state.Photo()
	if photo == nil {
		return
	}
	layout := marker.DefaultLayout(float64(photo.Width), float64(photo.Height))
	for _, k := range marker.Keys() {
		mw.state.MoveMarker(k, layout.Get(k))
	}
}

func (mw *MainWindow) onSaveReading() {
	r, err := mw.state.SaveReading()
	if err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus(fmt.Sprintf("Saved reading %.1f mm", r.Result.PDMMRounded))
}

func (mw *MainWindow) onExportPNG() {
	photo := mw.state.Photo()
	if photo == nil {
		dialog.ShowInformation("Export", "Load a photo first", mw.Window)
		return
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		mw.saveLastDir(path)

		markers, _ := mw.state.Markers()
		if err := render.ExportPNG(path, photo, markers); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Exported " + filepath.Base(path))
	}, mw.Window)
	fd.SetFileName("pd-annotated.png")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About PD Meter",
		fmt.Sprintf("PD Meter %s\n\nMeasures pupillary distance from a photo\nusing a credit card as the scale reference.", version.Version),
		mw.Window)
}
