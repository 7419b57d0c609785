package colorpipeline_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cp "github.com/e7canasta/rawplay/modules/colorpipeline"
)

var (
	cmStdA = cp.Mat3{{0.9, -0.3, -0.05}, {-0.4, 1.2, 0.2}, {-0.05, 0.2, 0.65}}
	cmD65  = cp.Mat3{{0.7, -0.2, -0.05}, {-0.45, 1.25, 0.2}, {-0.1, 0.2, 0.6}}
	fmStdA = cp.Mat3{{0.6, 0.25, 0.1}, {0.25, 0.85, -0.1}, {0.05, -0.15, 0.95}}
	fmD65  = cp.Mat3{{0.65, 0.2, 0.1}, {0.28, 0.8, -0.08}, {0.03, -0.1, 0.9}}
)

func dualProfile(t *testing.T, forward bool) *cp.Profile {
	t.Helper()
	c := cp.Calibration{
		Illuminant1:   cp.IlluminantStandardA,
		Illuminant2:   cp.IlluminantD65,
		ColorMatrix1:  cmStdA,
		ColorMatrix2:  cp.Ptr(cmD65),
		AsShotNeutral: &cp.Vec3{0.55, 1, 0.7},
	}
	if forward {
		c.ForwardMatrix1 = cp.Ptr(fmStdA)
		c.ForwardMatrix2 = cp.Ptr(fmD65)
	}
	p, err := cp.NewProfile(c)
	require.NoError(t, err)
	return p
}

func TestCameraToXYZExactAtCalibrationTemperatures(t *testing.T) {
	p := dualProfile(t, true)

	m, err := p.CameraToXYZ(2850)
	require.NoError(t, err)
	assert.Equal(t, fmStdA, m, "illuminant 1 temperature must return forward matrix 1 unmodified")

	m, err = p.CameraToXYZ(6500)
	require.NoError(t, err)
	assert.Equal(t, fmD65, m, "illuminant 2 temperature must return forward matrix 2 unmodified")

	m, err = p.CameraToXYZ(1500)
	require.NoError(t, err)
	assert.Equal(t, fmStdA, m)

	m, err = p.CameraToXYZ(20000)
	require.NoError(t, err)
	assert.Equal(t, fmD65, m)

	m, err = p.CameraToXYZ(4000)
	require.NoError(t, err)
	g := (1.0/4000 - 1.0/6500) / (1.0/2850 - 1.0/6500)
	assertMatInDelta(t, fmD65.Lerp(fmStdA, g), m, 1e-12)
}

func TestCameraToXYZWithoutForwardMatrices(t *testing.T) {
	p := dualProfile(t, false)

	m, err := p.CameraToXYZ(2850)
	require.NoError(t, err)
	want, err := cmStdA.Inverse()
	require.NoError(t, err)
	assert.Equal(t, want, m)
}

func TestSingleIlluminantProfile(t *testing.T) {
	p, err := cp.NewProfile(cp.Calibration{
		Illuminant1:    cp.IlluminantD65,
		ColorMatrix1:   cmD65,
		ForwardMatrix1: cp.Ptr(fmD65),
	})
	require.NoError(t, err)
	assert.False(t, p.DualIlluminant)

	for _, temp := range []uint32{2000, 6500, 9000} {
		m, err := p.CameraToXYZ(temp)
		require.NoError(t, err)
		assert.Equal(t, fmD65, m)
	}
	assert.Equal(t, cmD65, p.XYZToCamera(cp.D50XY))

	_, err = p.CameraToXYZD50()
	assert.ErrorIs(t, err, cp.ErrNoWhitePoint)
	_, _, ok := p.AsShotWhiteBalance()
	assert.False(t, ok)
}

func TestIlluminantsSwappedWhenOutOfOrder(t *testing.T) {
	p, err := cp.NewProfile(cp.Calibration{
		Illuminant1:    cp.IlluminantD65,
		Illuminant2:    cp.IlluminantStandardA,
		ColorMatrix1:   cmD65,
		ColorMatrix2:   cp.Ptr(cmStdA),
		ForwardMatrix1: cp.Ptr(fmD65),
		ForwardMatrix2: cp.Ptr(fmStdA),
	})
	require.NoError(t, err)

	assert.Equal(t, cp.IlluminantStandardA, p.Illuminant1)
	assert.Equal(t, cp.IlluminantD65, p.Illuminant2)
	assert.Equal(t, cmStdA, p.ColorMatrix1)
	assert.Equal(t, cmD65, p.ColorMatrix2)
	assert.Equal(t, fmStdA, p.ForwardMatrix1)
	assert.Equal(t, fmD65, p.ForwardMatrix2)

	t1, t2 := p.CalibrationTemperatures()
	assert.Equal(t, 2850.0, t1)
	assert.Equal(t, 6500.0, t2)
}

func TestEqualCalibrationTemperaturesUseMatrix1(t *testing.T) {
	// Daylight and D55 are both 5500K.
	p, err := cp.NewProfile(cp.Calibration{
		Illuminant1:    cp.IlluminantDaylight,
		Illuminant2:    cp.IlluminantD55,
		ColorMatrix1:   cmStdA,
		ColorMatrix2:   cp.Ptr(cmD65),
		ForwardMatrix1: cp.Ptr(fmStdA),
		ForwardMatrix2: cp.Ptr(fmD65),
		AsShotNeutral:  &cp.Vec3{0.55, 1, 0.7},
	})
	require.NoError(t, err)
	require.True(t, p.DualIlluminant)
	t1, t2 := p.CalibrationTemperatures()
	require.Equal(t, t1, t2)

	for _, temp := range []uint32{0, 3000, 5500, 9000} {
		m, err := p.CameraToXYZ(temp)
		require.NoError(t, err)
		assert.Equal(t, fmStdA, m, "temperature %d", temp)
	}
	for _, xy := range []cp.Vec2{cp.D50XY, {0.3127, 0.3290}, {0.4476, 0.4074}} {
		assert.Equal(t, cmStdA, p.XYZToCamera(xy), "white %v", xy)
	}

	xy, ok := p.AsShotWhiteXY()
	require.True(t, ok)
	assert.False(t, math.IsNaN(xy[0]) || math.IsNaN(xy[1]), "as-shot white is NaN: %v", xy)

	m, err := p.CameraToXYZD50()
	require.NoError(t, err)
	for _, row := range m {
		for _, v := range row {
			assert.False(t, math.IsNaN(v), "NaN in camera to XYZ(D50): %v", m)
		}
	}
}

func TestUnknownIlluminantRejected(t *testing.T) {
	_, err := cp.NewProfile(cp.Calibration{
		Illuminant1:  cp.IlluminantOther,
		Illuminant2:  cp.IlluminantD65,
		ColorMatrix1: cmStdA,
		ColorMatrix2: cp.Ptr(cmD65),
	})
	assert.ErrorIs(t, err, cp.ErrUnknownIlluminant)
}

func TestNeutralToXYSingleIlluminant(t *testing.T) {
	p, err := cp.NewProfile(cp.Calibration{Illuminant1: cp.IlluminantD65, ColorMatrix1: cmD65})
	require.NoError(t, err)

	want := cp.Vec2{0.33, 0.34}
	neutral := cmD65.MulVec(cp.XYToXYZ(want))
	got, err := p.NeutralToXY(neutral)
	require.NoError(t, err)
	assert.InDelta(t, want[0], got[0], 1e-9)
	assert.InDelta(t, want[1], got[1], 1e-9)
}

func TestNeutralToXYDualIlluminantIsFixedPoint(t *testing.T) {
	p := dualProfile(t, false)
	xy, ok := p.AsShotWhiteXY()
	require.True(t, ok)

	inv, err := p.XYZToCamera(xy).Inverse()
	require.NoError(t, err)
	again := cp.XYZToXY(inv.MulVec(cp.Vec3{0.55, 1, 0.7}))
	assert.InDelta(t, xy[0], again[0], 1e-5)
	assert.InDelta(t, xy[1], again[1], 1e-5)

	temp, _, ok := p.AsShotWhiteBalance()
	require.True(t, ok)
	assert.Greater(t, temp, 1000.0)
	t.Logf("as-shot white %.4f,%.4f → %.0fK", xy[0], xy[1], temp)
}

func TestCameraToXYZD50ForwardPath(t *testing.T) {
	p := dualProfile(t, true)
	white, _ := p.AsShotWhiteXY()

	m, err := p.CameraToXYZD50()
	require.NoError(t, err)

	c2x, err := p.CameraToXYZ(cp.ChromaticityToColourTemperature(white))
	require.NoError(t, err)
	x2c, err := c2x.Inverse()
	require.NoError(t, err)
	neutral := x2c.MulVec(cp.XYToXYZ(white))
	neutral = neutral.Scale(1 / neutral.Max())

	// The camera neutral lands on the forward matrix's white.
	assertVecInDelta(t, c2x.MulVec(cp.Vec3{1, 1, 1}), m.MulVec(neutral), 1e-9)
}

func TestCameraToXYZD50ColourMatrixPath(t *testing.T) {
	p, err := cp.NewProfile(cp.Calibration{
		Illuminant1:   cp.IlluminantD65,
		ColorMatrix1:  cmD65,
		AsShotWhiteXY: &cp.Vec2{0.40, 0.39},
	})
	require.NoError(t, err)

	m, err := p.CameraToXYZD50()
	require.NoError(t, err)

	neutral := cmD65.MulVec(cp.XYToXYZ(cp.Vec2{0.40, 0.39}))
	neutral = neutral.Scale(1 / neutral.Max())
	assertVecInDelta(t, cp.PCSXYZ(), m.MulVec(neutral), 1e-9)

	d65, err := p.CameraToXYZD65()
	require.NoError(t, err)
	assertMatInDelta(t, cp.BradfordD50ToD65(m), d65, 0)
}

func TestCameraToXYZD50AtWhiteBalance(t *testing.T) {
	p := dualProfile(t, false)

	warm, err := p.CameraToXYZD50At(3200, 0)
	require.NoError(t, err)
	cool, err := p.CameraToXYZD50At(7500, 0)
	require.NoError(t, err)
	assert.NotEqual(t, warm, cool)

	d65, err := p.CameraToXYZD65At(3200, 0)
	require.NoError(t, err)
	assertMatInDelta(t, cp.BradfordD50ToD65(warm), d65, 0)
}
