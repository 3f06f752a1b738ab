package measure

import (
	"math"
	"strings"
	"testing"

	"pd-meter/internal/marker"
	"pd-meter/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markersAt(lp, rp, lc, rc geometry.Point2D) marker.Set {
	return marker.Set{LeftPupil: lp, RightPupil: rp, LeftCard: lc, RightCard: rc}
}

func TestCalculateShortPD(t *testing.T) {
	// 1000x1000 photo, 400 px card span, 200 px pupil span.
	m := markersAt(
		geometry.NewPoint2D(400, 480),
		geometry.NewPoint2D(600, 480),
		geometry.NewPoint2D(300, 200),
		geometry.NewPoint2D(700, 200),
	)

	r := Calculate(m, DefaultConfig())

	assert.InDelta(t, 200, r.PupilPixelDistance, 1e-9)
	assert.InDelta(t, 400, r.CardPixelWidth, 1e-9)
	assert.InDelta(t, 0.214, r.MMPerPixel, 1e-9)
	assert.InDelta(t, 42.8, r.PDMM, 1e-9)
	assert.InDelta(t, 43.0, r.PDMMRounded, 1e-9)

	// 42.8 mm is below the 45 mm floor.
	require.Len(t, r.Issues, 1)
	assert.Contains(t, r.Issues[0], "outside the plausible range")
	assert.False(t, r.Valid)

	// Full scale and tilt confidence minus the out-of-range penalty.
	assert.InDelta(t, 0.7, r.Confidence, 1e-9)
}

func TestCalculateGoodMeasurement(t *testing.T) {
	// Same card, pupils 260 px apart: 260 * 0.214 = 55.64 mm.
	m := markersAt(
		geometry.NewPoint2D(370, 480),
		geometry.NewPoint2D(630, 480),
		geometry.NewPoint2D(300, 200),
		geometry.NewPoint2D(700, 200),
	)

	r := Calculate(m, DefaultConfig())

	assert.True(t, r.Valid)
	assert.Empty(t, r.Issues)
	assert.InDelta(t, 55.64, r.PDMM, 1e-9)
	assert.GreaterOrEqual(t, r.Confidence, 0.75)
	assert.LessOrEqual(t, r.Confidence, 1.0)
	assert.Equal(t, "Good measurement quality", r.QualityMessage)
}

func TestCalculateTiltBoundary(t *testing.T) {
	pupils := []geometry.Point2D{
		geometry.NewPoint2D(370, 480),
		geometry.NewPoint2D(630, 480),
	}

	// 80 px vertical offset over a ~408 px span: ratio ~0.196, under the limit.
	r := Calculate(markersAt(pupils[0], pupils[1],
		geometry.NewPoint2D(300, 200), geometry.NewPoint2D(700, 280)), DefaultConfig())
	for _, issue := range r.Issues {
		assert.NotContains(t, issue, "tilted")
	}

	// 100 px offset over a ~412 px span: ratio ~0.243, over the limit.
	r = Calculate(markersAt(pupils[0], pupils[1],
		geometry.NewPoint2D(300, 200), geometry.NewPoint2D(700, 300)), DefaultConfig())
	found := false
	for _, issue := range r.Issues {
		if strings.Contains(issue, "tilted") {
			found = true
		}
	}
	assert.True(t, found, "expected a tilt issue, got %v", r.Issues)
}

func TestCalculateCoincidentMarkers(t *testing.T) {
	p := geometry.NewPoint2D(500, 500)
	r := Calculate(markersAt(p, p, p, p), DefaultConfig())

	assert.Zero(t, r.CardPixelWidth)
	assert.Zero(t, r.MMPerPixel)
	assert.Zero(t, r.PDMM)
	assert.False(t, r.Valid)
	assert.False(t, math.IsNaN(r.Confidence))
	assert.False(t, math.IsInf(r.MMPerPixel, 0))

	// Zero width trips both the card-width and the out-of-range checks.
	assert.Len(t, r.Issues, 2)
}

func TestCalculateIssuesAccumulate(t *testing.T) {
	// Tiny tilted card: all three checks fire together.
	r := Calculate(markersAt(
		geometry.NewPoint2D(0, 0),
		geometry.NewPoint2D(1, 0),
		geometry.NewPoint2D(500, 500),
		geometry.NewPoint2D(520, 510),
	), DefaultConfig())

	assert.Len(t, r.Issues, 3)
	assert.False(t, r.Valid)
}

func TestCalculateDeterministic(t *testing.T) {
	m := marker.DefaultLayout(1280, 960)
	a := Calculate(m, DefaultConfig())
	b := Calculate(m, DefaultConfig())
	assert.Equal(t, a, b)
}

func TestValidSeparateFromQuality(t *testing.T) {
	// Card barely above the minimum width: no issues, but scale confidence is
	// low, so the grade is moderate while the result is still valid.
	scale := 85.60 / 100.0 // mm per pixel at 100 px card width
	pupilPx := 60.0 / scale
	r := Calculate(markersAt(
		geometry.NewPoint2D(400, 480),
		geometry.NewPoint2D(400+pupilPx, 480),
		geometry.NewPoint2D(300, 200),
		geometry.NewPoint2D(400, 200),
	), DefaultConfig())

	assert.True(t, r.Valid)
	assert.Less(t, r.Confidence, 0.75)
	assert.Equal(t, "Moderate quality - double-check marker placement", r.QualityMessage)
}

func TestRoundHalfMM(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{42.8, 43.0},
		{42.7, 42.5},
		{42.74, 42.5},
		{42.76, 43.0},
		{0, 0},
		{61.25, 61.5},
		{-1.2, -1.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, RoundHalfMM(c.in), 1e-12, "RoundHalfMM(%v)", c.in)
	}
}

func TestRoundHalfMMNearestAndIdempotent(t *testing.T) {
	for x := -10.0; x <= 90.0; x += 0.0625 {
		r := RoundHalfMM(x)
		assert.LessOrEqual(t, math.Abs(r-x), 0.25+1e-12, "x=%v", x)
		assert.InDelta(t, 0, math.Mod(r*2, 1), 1e-12, "x=%v", x)
		assert.Equal(t, r, RoundHalfMM(r), "x=%v", x)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.MaxPDMM = bad.MinPDMM - 1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.ReferenceWidthMM = 0
	assert.Error(t, bad.Validate())
}
