package colorpipeline_test

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cp "github.com/e7canasta/rawplay/modules/colorpipeline"
)

func TestIlluminantTemperature(t *testing.T) {
	cases := map[cp.Illuminant]float64{
		cp.IlluminantStandardA:            2850,
		cp.IlluminantTungsten:             2850,
		cp.IlluminantISOStudioTungsten:    3200,
		cp.IlluminantD50:                  5000,
		cp.IlluminantDaylight:             5500,
		cp.IlluminantD65:                  6500,
		cp.IlluminantShade:                7500,
		cp.IlluminantDaylightFluorescent:  6400,
		cp.IlluminantDayWhiteFluorescent:  5050,
		cp.IlluminantCoolWhiteFluorescent: 4150,
		cp.IlluminantWhiteFluorescent:     3525,
		cp.IlluminantWarmWhiteFluorescent: 2925,
	}
	for ill, want := range cases {
		got, err := ill.Temperature()
		require.NoError(t, err, ill.String())
		assert.Equal(t, want, got, ill.String())
	}

	for _, ill := range []cp.Illuminant{cp.IlluminantUnknown, cp.IlluminantOther, cp.Illuminant(99)} {
		_, err := ill.Temperature()
		assert.ErrorIs(t, err, cp.ErrUnknownIlluminant)
	}
}

func TestTemperatureTintRoundTrip(t *testing.T) {
	cases := []struct{ temp, tint float64 }{
		{2850, 0},
		{3200, 0},
		{5000, 0},
		{5500, 10},
		{6500, -15},
		{7500, 10},
	}
	for _, c := range cases {
		xy := cp.TemperatureTintToChromaticity(c.temp, c.tint)
		temp, tint := cp.ChromaticityToTemperatureTint(xy)
		assert.InDelta(t, c.temp, temp, 1.0, "temperature for %v", c)
		assert.InDelta(t, c.tint, tint, 0.01, "tint for %v", c)
	}
}

func TestTemperatureTintRoundTripProperty(t *testing.T) {
	f := func(a, b uint16) bool {
		temp := 2500 + float64(a%7500)
		tint := float64(int(b%60) - 30)
		xy := cp.TemperatureTintToChromaticity(temp, tint)
		gotTemp, gotTint := cp.ChromaticityToTemperatureTint(xy)
		return math.Abs(gotTemp-temp) < 0.01*temp && math.Abs(gotTint-tint) < 0.5
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestChromaticityToColourTemperature(t *testing.T) {
	assert.InDelta(t, 6504, float64(cp.ChromaticityToColourTemperature(cp.Vec2{0.31271, 0.32902})), 10)
	assert.InDelta(t, 5000, float64(cp.ChromaticityToColourTemperature(cp.D50XY)), 10)
}

func TestXYToXYZ(t *testing.T) {
	d50 := cp.D50XYZ()
	assert.InDelta(t, 0.9643, d50[0], 1e-4)
	assert.Equal(t, 1.0, d50[1])
	assert.InDelta(t, 0.8251, d50[2], 1e-4)

	xy := cp.XYZToXY(d50)
	assert.InDelta(t, cp.D50XY[0], xy[0], 1e-9)
	assert.InDelta(t, cp.D50XY[1], xy[1], 1e-9)

	// Degenerate inputs stay finite.
	clamped := cp.XYToXYZ(cp.Vec2{0, 0})
	for _, v := range clamped {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
	}
	assert.Equal(t, cp.D50XY, cp.XYZToXY(cp.Vec3{0, 0, 0}))
}
