package colorpipeline

import (
	"fmt"
	"strings"
)

// Gamut is a display target for the final XYZ→RGB conversion.
type Gamut int

const (
	GamutRec709 Gamut = iota
	GamutRec2020
	GamutBMDFilm
	GamutAlexaWideGamut
	GamutWideGamut
)

func (g Gamut) String() string {
	switch g {
	case GamutRec709:
		return "Rec709"
	case GamutRec2020:
		return "Rec2020"
	case GamutBMDFilm:
		return "BMDFilm"
	case GamutAlexaWideGamut:
		return "AlexaWideGamut"
	case GamutWideGamut:
		return "WideGamut"
	}
	return "Unknown"
}

// ParseGamut accepts a Gamut's String form, case-insensitively.
func ParseGamut(s string) (Gamut, error) {
	for g := GamutRec709; g <= GamutWideGamut; g++ {
		if strings.EqualFold(s, g.String()) {
			return g, nil
		}
	}
	return 0, fmt.Errorf("colorpipeline: unknown gamut %q", s)
}

// Bradford cone response matrix.
var bradford = Mat3{
	{0.8951, 0.2664, -0.1614},
	{-0.7502, 1.7135, 0.0367},
	{0.0389, -0.0685, 1.0296},
}

// Bradford-adapted white point conversions (Lindbloom).
var (
	bradfordD65ToD50 = Mat3{
		{1.0478112, 0.0228866, -0.0501270},
		{0.0295424, 0.9904844, -0.0170491},
		{-0.0092345, 0.0150436, 0.7521316},
	}
	bradfordD50ToD65 = Mat3{
		{0.9555766, -0.0230393, 0.0631636},
		{-0.0282895, 1.0099416, 0.0210077},
		{0.0122982, -0.0204830, 1.3299098},
	}
)

// XYZ to RGB primaries, D50 white unless noted.
var (
	xyzToRec709D65 = Mat3{
		{3.2404542, -1.5371385, -0.4985314},
		{-0.9692660, 1.8760108, 0.0415560},
		{0.0556434, -0.2040259, 1.0572252},
	}
	xyzToRec709D50 = Mat3{
		{3.1338561, -1.6168667, -0.4906146},
		{-0.9787684, 1.9161415, 0.0334540},
		{0.0719453, -0.2289914, 1.4052427},
	}
	xyzToRec2020D65 = Mat3{
		{1.7166634, -0.3556733, -0.2533681},
		{-0.6666738, 1.6164557, 0.0157683},
		{0.0176425, -0.0427770, 0.9422433},
	}
	xyzToRec2020D50 = Mat3{
		{1.5742306, -0.3261628, -0.2323459},
		{-0.6756925, 1.6383230, 0.0159816},
		{0.0234682, -0.0569023, 1.2533794},
	}
	xyzToBMDFilmD50 = Mat3{
		{1.693614, -0.459157, -0.138632},
		{-0.489970, 1.344410, 0.111740},
		{-0.074796, 0.385269, 0.629528},
	}
	xyzToAlexaWideGamutD50 = Mat3{
		{1.789066, -0.482534, -0.200076},
		{-0.639849, 1.396400, 0.194432},
		{-0.041532, 0.082335, 0.878868},
	}
	xyzToWideGamutD50 = Mat3{
		{1.4628067, -0.1840623, -0.2743606},
		{-0.5217933, 1.4472381, 0.0677227},
		{0.0349342, -0.0968930, 1.2884099},
	}
)

// Luma weights per gamut.
var (
	Rec709LumaWeights  = Vec3{0.2126, 0.7152, 0.0722}
	Rec2020LumaWeights = Vec3{0.2627, 0.6780, 0.0593}
)

// XYZToGamutD50 returns the XYZ(D50)→RGB matrix for g.
func XYZToGamutD50(g Gamut) Mat3 {
	switch g {
	case GamutRec2020:
		return xyzToRec2020D50
	case GamutBMDFilm:
		return xyzToBMDFilmD50
	case GamutAlexaWideGamut:
		return xyzToAlexaWideGamutD50
	case GamutWideGamut:
		return xyzToWideGamutD50
	}
	return xyzToRec709D50
}

// XYZToGamutD65 returns the XYZ(D65)→RGB matrix for g. Gamuts only
// published against D50 are adapted with Bradford.
func XYZToGamutD65(g Gamut) Mat3 {
	switch g {
	case GamutRec709:
		return xyzToRec709D65
	case GamutRec2020:
		return xyzToRec2020D65
	}
	return XYZToGamutD50(g).Mul(bradfordD65ToD50)
}

// LumaWeights returns the luminance coefficients for g. Camera and wide
// gamuts fall back to Rec.709 weights.
func LumaWeights(g Gamut) Vec3 {
	if g == GamutRec2020 {
		return Rec2020LumaWeights
	}
	return Rec709LumaWeights
}

// BradfordD50ToD65 adapts a camera→XYZ(D50) matrix to D65.
func BradfordD50ToD65(m Mat3) Mat3 { return bradfordD50ToD65.Mul(m) }

// BradfordD65ToD50 adapts a camera→XYZ(D65) matrix to D50.
func BradfordD65ToD50(m Mat3) Mat3 { return bradfordD65ToD50.Mul(m) }

// MapWhiteMatrix builds the Bradford adaptation taking white1 to white2.
// Per-channel scaling is limited to [0.1, 10].
func MapWhiteMatrix(white1, white2 Vec3) Mat3 {
	w1 := bradford.MulVec(white1)
	w2 := bradford.MulVec(white2)

	var a Mat3
	for i := 0; i < 3; i++ {
		w1[i] = max(w1[i], 0)
		w2[i] = max(w2[i], 0)
		s := 10.0
		if w1[i] > 0 {
			s = w2[i] / w1[i]
		}
		a[i][i] = clamp(s, 0.1, 10)
	}

	inv, err := bradford.Inverse()
	if err != nil {
		// constant, invertible
		panic(err)
	}
	return inv.Mul(a).Mul(bradford)
}

// NormalizeForwardMatrix rescales fm so camera white (1,1,1) maps to the
// PCS white.
func NormalizeForwardMatrix(fm Mat3) (Mat3, error) {
	xyz := fm.MulVec(Vec3{1, 1, 1})
	inv, err := Diagonal(xyz).Inverse()
	if err != nil {
		return Mat3{}, err
	}
	return Diagonal(PCSXYZ()).Mul(inv).Mul(fm), nil
}

// NormalizeColourMatrix rescales cm so the PCS white maps to a camera
// value whose largest channel is 1. Matrices already within 1% are left
// alone.
func NormalizeColourMatrix(cm Mat3) Mat3 {
	m := cm.MulVec(PCSXYZ()).Max()
	if m > 0 && (m < 0.99 || m > 1.01) {
		return cm.Scale(1 / m)
	}
	return cm
}

// InterpolateColourMatrix blends from→to, returning an endpoint exactly
// when t is outside (0, 1).
func InterpolateColourMatrix(from, to Mat3, t float64) Mat3 {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	return from.Lerp(to, t)
}

// ApplyTemperatureTintOffset shifts a colour matrix calibrated under
// illuminant by the given temperature and tint offsets.
func ApplyTemperatureTintOffset(cm Mat3, illuminant Illuminant, temperatureOffset, tintOffset float64) (Mat3, error) {
	t, err := illuminant.Temperature()
	if err != nil {
		return Mat3{}, err
	}
	target := XYToXYZ(TemperatureTintToChromaticity(t, 0))
	offset := XYToXYZ(TemperatureTintToChromaticity(t+temperatureOffset, tintOffset))
	return cm.Mul(MapWhiteMatrix(offset, target)), nil
}
