// Command pdmeasure runs a PD measurement on a photo and prints the result
// as JSON. Markers default to the auto-detected positions when a face is
// found, falling back to the standard layout; any marker can be overridden
// on the command line.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"pd-meter/internal/autosuggest"
	"pd-meter/internal/capture"
	"pd-meter/internal/marker"
	"pd-meter/internal/measure"
	"pd-meter/internal/render"
	"pd-meter/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to face photo (PNG or JPEG)")
	leftPupil := flag.String("left-pupil", "", "Left pupil position as x,y in image pixels")
	rightPupil := flag.String("right-pupil", "", "Right pupil position as x,y")
	leftCard := flag.String("left-card", "", "Left card corner as x,y")
	rightCard := flag.String("right-card", "", "Right card corner as x,y")
	detect := flag.Bool("detect", true, "Run face/eye auto-detection")
	exportPath := flag.String("export", "", "Write annotated PNG to this path")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: pdmeasure -image <path> [-left-pupil x,y] [-right-pupil x,y] [-left-card x,y] [-right-card x,y] [-detect=false] [-export out.png]")
		os.Exit(1)
	}

	photo, err := capture.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load photo: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Loaded photo: %dx%d pixels\n", photo.Width, photo.Height)

	markers := marker.DefaultLayout(float64(photo.Width), float64(photo.Height))

	if *detect {
		detector, err := autosuggest.NewDefaultCascadeDetector()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Auto-detect unavailable: %v\n", err)
		} else {
			defer detector.Close()
			suggestions, err := detector.Detect(photo)
			switch {
			case errors.Is(err, autosuggest.ErrNoFace):
				fmt.Fprintln(os.Stderr, "No face detected, using default layout")
			case err != nil:
				fmt.Fprintf(os.Stderr, "Auto-detect failed: %v\n", err)
			default:
				markers = marker.Merge(markers, suggestions)
				fmt.Fprintf(os.Stderr, "Auto-detected %d markers\n", len(suggestions))
			}
		}
	}

	overrides := map[marker.Key]string{
		marker.LeftPupil:  *leftPupil,
		marker.RightPupil: *rightPupil,
		marker.LeftCard:   *leftCard,
		marker.RightCard:  *rightCard,
	}
	for _, k := range marker.Keys() {
		raw := overrides[k]
		if raw == "" {
			continue
		}
		p, err := parsePoint(raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid -%s value %q: %v\n", k, raw, err)
			os.Exit(1)
		}
		markers = markers.With(k, geometry.ClampPoint(p, float64(photo.Width), float64(photo.Height)))
	}

	cfg := measure.DefaultConfig()
	result := measure.Calculate(markers, cfg)

	out, err := json.MarshalIndent(struct {
		Markers marker.Set     `json:"markers"`
		Result  measure.Result `json:"result"`
	}{markers, result}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *exportPath != "" {
		if err := render.ExportPNG(*exportPath, photo, markers); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", *exportPath)
	}

	if !result.Valid {
		os.Exit(2)
	}
}

// parsePoint parses "x,y" into a point.
func parsePoint(s string) (geometry.Point2D, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geometry.Point2D{}, fmt.Errorf("want x,y")
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geometry.Point2D{}, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geometry.Point2D{}, err
	}
	return geometry.NewPoint2D(x, y), nil
}
