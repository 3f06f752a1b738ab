// Package measure converts marker geometry into a millimeter PD measurement.
package measure

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds the calibration parameters for PD measurement.
type Config struct {
	// ReferenceWidthMM is the physical width of the reference object.
	// Defaults to the ISO/IEC 7810 ID-1 card width.
	ReferenceWidthMM float64 `json:"reference_width_mm" validate:"gt=0"`

	// MinCardPixelWidth is the smallest card span, in image pixels, that
	// still yields a usable scale.
	MinCardPixelWidth float64 `json:"min_card_pixel_width" validate:"gt=0"`

	// MinPDMM and MaxPDMM bound the physiologically plausible adult range.
	MinPDMM float64 `json:"min_pd_mm" validate:"gt=0"`
	MaxPDMM float64 `json:"max_pd_mm" validate:"gtfield=MinPDMM"`

	// MaxTiltRatio is the vertical-offset-to-width ratio above which the
	// card line is rejected as too tilted.
	MaxTiltRatio float64 `json:"max_tilt_ratio" validate:"gt=0"`

	// PickRadiusPixels is the marker hit-test radius, absolute in image
	// pixels so picking precision is independent of display zoom.
	PickRadiusPixels float64 `json:"pick_radius_pixels" validate:"gt=0"`

	// ConfidenceRampPixels is the card-width span over which scale
	// confidence ramps from 0 to 1 above the minimum width.
	ConfidenceRampPixels float64 `json:"confidence_ramp_pixels" validate:"gt=0"`
}

// DefaultConfig returns the standard calibration parameters.
func DefaultConfig() Config {
	return Config{
		ReferenceWidthMM:     85.60,
		MinCardPixelWidth:    90,
		MinPDMM:              45,
		MaxPDMM:              80,
		MaxTiltRatio:         0.2,
		PickRadiusPixels:     26,
		ConfidenceRampPixels: 220,
	}
}

var validate = validator.New()

// Validate checks the config for internally consistent parameters.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid measurement config: %w", err)
	}
	return nil
}
