package colorpipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cp "github.com/e7canasta/rawplay/modules/colorpipeline"
)

func assertMatInDelta(t *testing.T, want, got cp.Mat3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, want[i][j], got[i][j], delta, "entry [%d][%d]", i, j)
		}
	}
}

func assertVecInDelta(t *testing.T, want, got cp.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d", i)
	}
}

func TestInverse(t *testing.T) {
	m := cp.Mat3{{2, 1, 0}, {0, 3, 1}, {1, 0, 4}}
	inv, err := m.Inverse()
	require.NoError(t, err)
	assertMatInDelta(t, cp.Identity3, m.Mul(inv), 1e-12)

	_, err = cp.Mat3{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}.Inverse()
	assert.ErrorIs(t, err, cp.ErrSingularMatrix)
}

func TestMatFromSlice(t *testing.T) {
	m, err := cp.MatFromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, 6.0, m[1][2])

	_, err = cp.MatFromSlice([]float64{1, 2, 3})
	assert.Error(t, err)
}

func TestMapWhiteMatrix(t *testing.T) {
	assertMatInDelta(t, cp.Identity3, cp.MapWhiteMatrix(cp.D50XYZ(), cp.D50XYZ()), 1e-12)

	d65 := cp.XYToXYZ(cp.XYZToXY(cp.D65XYZ))
	m := cp.MapWhiteMatrix(cp.D50XYZ(), d65)
	assertVecInDelta(t, d65, m.MulVec(cp.D50XYZ()), 1e-9)
}

func TestBradfordD50ToD65(t *testing.T) {
	got := cp.BradfordD50ToD65(cp.Identity3).MulVec(cp.D50XYZ())
	assertVecInDelta(t, cp.Vec3{0.9505, 1.0, 1.0888}, got, 2e-3)

	roundTrip := cp.BradfordD65ToD50(cp.BradfordD50ToD65(cp.Identity3))
	assertMatInDelta(t, cp.Identity3, roundTrip, 1e-4)
}

func TestGamutWhitePoint(t *testing.T) {
	for _, g := range []cp.Gamut{cp.GamutRec709, cp.GamutRec2020} {
		rgb := cp.XYZToGamutD50(g).MulVec(cp.D50XYZ())
		assertVecInDelta(t, cp.Vec3{1, 1, 1}, rgb, 5e-3)
	}
	assert.Equal(t, cp.Rec2020LumaWeights, cp.LumaWeights(cp.GamutRec2020))
	assert.Equal(t, cp.Rec709LumaWeights, cp.LumaWeights(cp.GamutBMDFilm))
}

func TestNormalizeColourMatrix(t *testing.T) {
	cm := cp.Identity3.Scale(2)
	n := cp.NormalizeColourMatrix(cm)
	assert.InDelta(t, 1.0, n.MulVec(cp.PCSXYZ()).Max(), 1e-12)

	// Already normalised within 1% is left untouched.
	near := cp.Identity3.Scale(1.005)
	assert.Equal(t, near, cp.NormalizeColourMatrix(near))
}

func TestNormalizeForwardMatrix(t *testing.T) {
	fm := cp.Mat3{{0.6, 0.25, 0.1}, {0.25, 0.85, -0.1}, {0.05, -0.15, 0.95}}
	n, err := cp.NormalizeForwardMatrix(fm)
	require.NoError(t, err)
	assertVecInDelta(t, cp.PCSXYZ(), n.MulVec(cp.Vec3{1, 1, 1}), 1e-12)
}

func TestApplyTemperatureTintOffset(t *testing.T) {
	cm := cp.Mat3{{0.9, -0.3, -0.05}, {-0.4, 1.2, 0.2}, {-0.05, 0.2, 0.65}}

	same, err := cp.ApplyTemperatureTintOffset(cm, cp.IlluminantD65, 0, 0)
	require.NoError(t, err)
	assertMatInDelta(t, cm, same, 1e-12)

	shifted, err := cp.ApplyTemperatureTintOffset(cm, cp.IlluminantD65, -1000, 5)
	require.NoError(t, err)
	assert.NotEqual(t, cm, shifted)

	_, err = cp.ApplyTemperatureTintOffset(cm, cp.IlluminantUnknown, 0, 0)
	assert.ErrorIs(t, err, cp.ErrUnknownIlluminant)
}

func TestParseGamut(t *testing.T) {
	for _, s := range []string{"rec709", "Rec709", "REC2020", "bmdfilm"} {
		_, err := cp.ParseGamut(s)
		assert.NoError(t, err, s)
	}
	g, err := cp.ParseGamut("rec2020")
	require.NoError(t, err)
	assert.Equal(t, cp.GamutRec2020, g)

	_, err = cp.ParseGamut("p3")
	assert.Error(t, err)
}
