package colorpipeline

import "math"

const tintScale = -3000.0

type ruvt struct {
	r, u, v, t float64
}

// Robertson isotemperature lines: reciprocal megakelvin, CIE 1960 uv and
// slope.
var robertson = [31]ruvt{
	{0, 0.18006, 0.26352, -0.24341},
	{10, 0.18066, 0.26589, -0.25479},
	{20, 0.18133, 0.26846, -0.26876},
	{30, 0.18208, 0.27119, -0.28539},
	{40, 0.18293, 0.27407, -0.30470},
	{50, 0.18388, 0.27709, -0.32675},
	{60, 0.18494, 0.28021, -0.35156},
	{70, 0.18611, 0.28342, -0.37915},
	{80, 0.18740, 0.28668, -0.40955},
	{90, 0.18880, 0.28997, -0.44278},
	{100, 0.19032, 0.29326, -0.47888},
	{125, 0.19462, 0.30141, -0.58204},
	{150, 0.19962, 0.30921, -0.70471},
	{175, 0.20525, 0.31647, -0.84901},
	{200, 0.21142, 0.32312, -1.0182},
	{225, 0.21807, 0.32909, -1.2168},
	{250, 0.22511, 0.33439, -1.4512},
	{275, 0.23247, 0.33904, -1.7298},
	{300, 0.24010, 0.34308, -2.0637},
	{325, 0.24702, 0.34655, -2.4681},
	{350, 0.25591, 0.34951, -2.9641},
	{375, 0.26400, 0.35200, -3.5814},
	{400, 0.27218, 0.35407, -4.3633},
	{425, 0.28039, 0.35577, -5.3762},
	{450, 0.28863, 0.35714, -6.7262},
	{475, 0.29685, 0.35823, -8.5955},
	{500, 0.30505, 0.35907, -11.324},
	{525, 0.31320, 0.35968, -15.628},
	{550, 0.32129, 0.36011, -23.325},
	{575, 0.32931, 0.36038, -40.770},
	{600, 0.33724, 0.36051, -116.4},
}

// Reference whites.
var (
	D50XY  = Vec2{0.3457, 0.3585}
	D55XY  = Vec2{0.3324, 0.3474}
	D65XYZ = Vec3{0.31271, 0.32902, 0.35827}
)

// D50XYZ returns the D50 white point as XYZ with Y = 1.
func D50XYZ() Vec3 { return XYToXYZ(D50XY) }

// PCSXYZ is the profile connection space white (D50).
func PCSXYZ() Vec3 { return D50XYZ() }

// XYToXYZ converts chromaticity to XYZ with Y = 1. Coordinates are
// clamped into the range of real colours first.
func XYToXYZ(xy Vec2) Vec3 {
	x := clamp(xy[0], 0.000001, 0.999999)
	y := clamp(xy[1], 0.000001, 0.999999)
	if sum := x + y; sum > 0.999999 {
		s := 0.999999 / sum
		x *= s
		y *= s
	}
	return Vec3{x / y, 1, (1 - x - y) / y}
}

// XYZToXY projects XYZ onto the chromaticity plane. A non-positive total
// yields D50.
func XYZToXY(xyz Vec3) Vec2 {
	total := xyz[0] + xyz[1] + xyz[2]
	if total <= 0 {
		return D50XY
	}
	return Vec2{xyz[0] / total, xyz[1] / total}
}

// ChromaticityToTemperatureTint finds the correlated colour temperature
// and tint of xy by walking the Robertson isotemperature lines.
func ChromaticityToTemperatureTint(xy Vec2) (temperature, tint float64) {
	den := 1.5 - xy[0] + 6*xy[1]
	u := 2 * xy[0] / den
	v := 3 * xy[1] / den

	var lastDt, lastDu, lastDv float64
	for i := 1; i <= 30; i++ {
		du := 1.0
		dv := robertson[i].t
		l := math.Hypot(du, dv)
		du /= l
		dv /= l

		uu := u - robertson[i].u
		vv := v - robertson[i].v
		dt := -uu*dv + vv*du

		if dt <= 0 || i == 30 {
			if dt > 0 {
				dt = 0
			}
			dt = -dt

			f := 0.0
			if i != 1 {
				f = dt / (lastDt + dt)
			}
			temperature = 1e6 / (robertson[i-1].r*f + robertson[i].r*(1-f))

			uu = u - (robertson[i-1].u*f + robertson[i].u*(1-f))
			vv = v - (robertson[i-1].v*f + robertson[i].v*(1-f))

			du = du*(1-f) + lastDu*f
			dv = dv*(1-f) + lastDv*f
			l = math.Hypot(du, dv)
			du /= l
			dv /= l

			tint = (uu*du + vv*dv) * tintScale
			return temperature, tint
		}

		lastDt = dt
		lastDu = du
		lastDv = dv
	}
	return temperature, tint
}

// TemperatureTintToChromaticity is the inverse of
// ChromaticityToTemperatureTint.
func TemperatureTintToChromaticity(temperature, tint float64) Vec2 {
	r := 1e6 / temperature
	offset := tint / tintScale

	var u, v float64
	for i := 0; i < 30; i++ {
		if r < robertson[i+1].r || i == 29 {
			f := (robertson[i+1].r - r) / (robertson[i+1].r - robertson[i].r)

			u = robertson[i].u*f + robertson[i+1].u*(1-f)
			v = robertson[i].v*f + robertson[i+1].v*(1-f)

			uu1, vv1 := 1.0, robertson[i].t
			l1 := math.Hypot(uu1, vv1)
			uu1 /= l1
			vv1 /= l1

			uu2, vv2 := 1.0, robertson[i+1].t
			l2 := math.Hypot(uu2, vv2)
			uu2 /= l2
			vv2 /= l2

			uu3 := uu1*f + uu2*(1-f)
			vv3 := vv1*f + vv2*(1-f)
			l3 := math.Hypot(uu3, vv3)
			uu3 /= l3
			vv3 /= l3

			u += uu3 * offset
			v += vv3 * offset
			break
		}
	}

	den := u - 4*v + 2
	return Vec2{1.5 * u / den, v / den}
}

// ChromaticityToColourTemperature estimates CCT with the McCamy-style
// exponential fit, rounded to the nearest Kelvin.
func ChromaticityToColourTemperature(xy Vec2) uint32 {
	const (
		xe = 0.3366
		ye = 0.1735
		a0 = -949.86315
		a1 = 6253.80338
		t1 = 0.92159
		a2 = 28.70599
		t2 = 0.20039
		a3 = 0.00004
		t3 = 0.07125
	)
	n := (xy[0] - xe) / (xy[1] - ye)
	cct := a0 + a1*math.Exp(-n/t1) + a2*math.Exp(-n/t2) + a3*math.Exp(-n/t3)
	if cct < 0 {
		return 0
	}
	return uint32(math.Floor(cct + 0.5))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
