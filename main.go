// Package main provides the entry point for the PD Meter application.
package main

import (
	"os"

	"pd-meter/internal/app"
	"pd-meter/internal/autosuggest"
	"pd-meter/internal/capture"
	"pd-meter/internal/measure"
	"pd-meter/internal/reading"
	"pd-meter/internal/version"
	"pd-meter/ui/mainwindow"
	"pd-meter/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if os.Getenv("PDMETER_DEBUG") != "" {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.WithField("version", version.Version).Info("starting PD Meter")

	cfg := measure.DefaultConfig()
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid measurement config")
	}

	store, err := reading.Open(reading.DefaultPath())
	if err != nil {
		logrus.WithError(err).Fatal("failed to open readings store")
	}

	state := app.NewState(cfg, func() (autosuggest.Detector, error) {
		return autosuggest.NewDefaultCascadeDetector()
	}, store)
	defer state.Close()

	appPrefs := prefs.Load()

	fyneApp := fyneapp.NewWithID("io.pdmeter.app")
	fyneApp.Settings().SetTheme(&app.PDMeterTheme{})

	win := mainwindow.New(fyneApp, state, appPrefs)

	// An image path on the command line skips the capture step.
	if len(os.Args) > 1 {
		if photo, err := capture.Load(os.Args[1]); err != nil {
			logrus.WithError(err).WithField("path", os.Args[1]).Error("failed to load photo")
		} else {
			state.SetPhoto(photo)
		}
	}

	win.ShowAndRun()
}
