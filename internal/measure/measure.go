package measure

import (
	"fmt"
	"math"

	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"
)

// Quality message thresholds on the confidence score.
const (
	goodConfidence     = 0.75
	moderateConfidence = 0.5
)

// Result is the measurement derived from a marker set. It has no identity of
// its own and is recomputed whenever the markers change.
type Result struct {
	PupilPixelDistance float64  `json:"pupil_pixel_distance"`
	CardPixelWidth     float64  `json:"card_pixel_width"`
	MMPerPixel         float64  `json:"mm_per_pixel"`
	PDMM               float64  `json:"pd_mm"`
	PDMMRounded        float64  `json:"pd_mm_rounded"`
	Confidence         float64  `json:"confidence"`
	QualityMessage     string   `json:"quality_message"`
	Issues             []string `json:"issues,omitempty"`
	Valid              bool     `json:"valid"`
}

// RoundHalfMM rounds a millimeter value to the nearest 0.5 mm.
func RoundHalfMM(mm float64) float64 {
	return math.Round(mm*2) / 2
}

// Calculate derives a measurement from the four markers. It is pure and total:
// coincident markers and zero-width card spans degrade the result, never panic.
func Calculate(markers marker.Set, cfg Config) Result {
	pupilDist := markers.LeftPupil.Distance(markers.RightPupil)
	cardWidth := markers.LeftCard.Distance(markers.RightCard)

	// Zero-width guard: mmPerPixel 0 forces pdMM to 0, which trips the
	// out-of-range issue below instead of producing Inf/NaN.
	var mmPerPixel float64
	if cardWidth > 0 {
		mmPerPixel = cfg.ReferenceWidthMM / cardWidth
	}

	pdMM := pupilDist * mmPerPixel
	tiltRatio := math.Abs(markers.LeftCard.Y-markers.RightCard.Y) / math.Max(cardWidth, 1)

	var issues []string
	if cardWidth < cfg.MinCardPixelWidth {
		issues = append(issues, fmt.Sprintf(
			"card markers are too close together (%.0f px, need at least %.0f px)",
			cardWidth, cfg.MinCardPixelWidth))
	}
	outOfRange := pdMM < cfg.MinPDMM || pdMM > cfg.MaxPDMM
	if outOfRange {
		issues = append(issues, fmt.Sprintf(
			"measured PD %.1f mm is outside the plausible range %.0f-%.0f mm",
			pdMM, cfg.MinPDMM, cfg.MaxPDMM))
	}
	if tiltRatio > cfg.MaxTiltRatio {
		issues = append(issues, fmt.Sprintf(
			"card line is tilted (%.0f%% vertical offset, limit %.0f%%)",
			tiltRatio*100, cfg.MaxTiltRatio*100))
	}

	scaleConfidence := geometry.Clamp((cardWidth-cfg.MinCardPixelWidth)/cfg.ConfidenceRampPixels, 0, 1)
	tiltConfidence := 1 - geometry.Clamp(tiltRatio/cfg.MaxTiltRatio, 0, 1)
	confidence := geometry.Clamp(0.35+0.45*scaleConfidence+0.20*tiltConfidence, 0, 1)
	if outOfRange {
		confidence = geometry.Clamp(confidence-0.3, 0, 1)
	}

	return Result{
		PupilPixelDistance: pupilDist,
		CardPixelWidth:     cardWidth,
		MMPerPixel:         mmPerPixel,
		PDMM:               pdMM,
		PDMMRounded:        RoundHalfMM(pdMM),
		Confidence:         confidence,
		QualityMessage:     qualityMessage(confidence, len(issues) == 0),
		Issues:             issues,
		Valid:              len(issues) == 0,
	}
}

// qualityMessage grades the result for display. The grade is independent of
// the valid flag: a result with no issues can still read as merely moderate.
func qualityMessage(confidence float64, noIssues bool) string {
	switch {
	case confidence >= goodConfidence && noIssues:
		return "Good measurement quality"
	case confidence >= moderateConfidence:
		return "Moderate quality - double-check marker placement"
	default:
		return "Low quality - retake the photo with the card closer to the camera"
	}
}
