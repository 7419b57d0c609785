package colorpipeline

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoWhitePoint is returned when a profile has neither AsShotNeutral nor
// AsShotWhiteXY and no explicit white balance was supplied.
var ErrNoWhitePoint = errors.New("colorpipeline: profile has no as-shot white point")

// Calibration is the raw colour calibration read from a DNG.
// Optional tags are nil when absent.
type Calibration struct {
	Illuminant1    Illuminant
	Illuminant2    Illuminant
	ColorMatrix1   Mat3
	ColorMatrix2   *Mat3
	ForwardMatrix1 *Mat3
	ForwardMatrix2 *Mat3
	AsShotNeutral  *Vec3
	AsShotWhiteXY  *Vec2
}

// Profile is an immutable camera colour profile. Illuminant 1 is always
// the warmer (lower temperature) calibration.
type Profile struct {
	Illuminant1      Illuminant
	Illuminant2      Illuminant
	ColorMatrix1     Mat3
	ColorMatrix2     Mat3
	ForwardMatrix1   Mat3
	ForwardMatrix2   Mat3
	DualIlluminant   bool
	HasForwardMatrix bool

	asShotWhiteXY    Vec2
	hasAsShotWhiteXY bool

	temp1, temp2 float64
}

// NewProfile validates a calibration and derives the as-shot white point.
func NewProfile(c Calibration) (*Profile, error) {
	p := &Profile{
		Illuminant1:      c.Illuminant1,
		ColorMatrix1:     c.ColorMatrix1,
		DualIlluminant:   c.ColorMatrix2 != nil,
		HasForwardMatrix: c.ForwardMatrix1 != nil,
	}
	if p.HasForwardMatrix {
		p.ForwardMatrix1 = *c.ForwardMatrix1
	}

	if p.DualIlluminant {
		p.Illuminant2 = c.Illuminant2
		p.ColorMatrix2 = *c.ColorMatrix2
		if p.HasForwardMatrix {
			if c.ForwardMatrix2 == nil {
				return nil, fmt.Errorf("colorpipeline: dual illuminant profile missing ForwardMatrix2")
			}
			p.ForwardMatrix2 = *c.ForwardMatrix2
		}

		t1, err := p.Illuminant1.Temperature()
		if err != nil {
			return nil, fmt.Errorf("colorpipeline: calibration illuminant 1: %w", err)
		}
		t2, err := p.Illuminant2.Temperature()
		if err != nil {
			return nil, fmt.Errorf("colorpipeline: calibration illuminant 2: %w", err)
		}
		if t1 > t2 {
			t1, t2 = t2, t1
			p.Illuminant1, p.Illuminant2 = p.Illuminant2, p.Illuminant1
			p.ColorMatrix1, p.ColorMatrix2 = p.ColorMatrix2, p.ColorMatrix1
			p.ForwardMatrix1, p.ForwardMatrix2 = p.ForwardMatrix2, p.ForwardMatrix1
		}
		p.temp1, p.temp2 = t1, t2
	} else if t, err := p.Illuminant1.Temperature(); err == nil {
		p.temp1, p.temp2 = t, t
	}

	switch {
	case c.AsShotNeutral != nil:
		xy, err := p.NeutralToXY(*c.AsShotNeutral)
		if err != nil {
			return nil, err
		}
		p.asShotWhiteXY, p.hasAsShotWhiteXY = xy, true
	case c.AsShotWhiteXY != nil:
		p.asShotWhiteXY, p.hasAsShotWhiteXY = *c.AsShotWhiteXY, true
	}
	return p, nil
}

// AsShotWhiteXY returns the as-shot white chromaticity, if known.
func (p *Profile) AsShotWhiteXY() (Vec2, bool) {
	return p.asShotWhiteXY, p.hasAsShotWhiteXY
}

// AsShotWhiteBalance returns the as-shot white as temperature and tint.
func (p *Profile) AsShotWhiteBalance() (temperature, tint float64, ok bool) {
	if !p.hasAsShotWhiteXY {
		return 0, 0, false
	}
	temperature, tint = ChromaticityToTemperatureTint(p.asShotWhiteXY)
	return temperature, tint, true
}

// CalibrationTemperatures returns the reference temperatures of the two
// illuminants (equal for single illuminant profiles).
func (p *Profile) CalibrationTemperatures() (float64, float64) {
	return p.temp1, p.temp2
}

// XYZToCamera returns the colour matrix for a scene white, interpolated in
// inverse temperature between the two calibrations.
func (p *Profile) XYZToCamera(whiteXY Vec2) Mat3 {
	if !p.DualIlluminant {
		return p.ColorMatrix1
	}

	t, _ := ChromaticityToTemperatureTint(whiteXY)
	g := p.weight(t)
	if g >= 1 {
		return p.ColorMatrix1
	}
	if g <= 0 {
		return p.ColorMatrix2
	}
	return InterpolateColourMatrix(p.ColorMatrix2, p.ColorMatrix1, g)
}

// NeutralToXY iterates XYZToCamera from D50 until the white point that
// maps to the camera neutral settles (1e-7), averaging the final pair when
// it oscillates.
func (p *Profile) NeutralToXY(neutral Vec3) (Vec2, error) {
	const maxPasses = 30

	last := D50XY
	for pass := 0; pass < maxPasses; pass++ {
		inv, err := p.XYZToCamera(last).Inverse()
		if err != nil {
			return Vec2{}, fmt.Errorf("colorpipeline: neutral to xy: %w", err)
		}
		next := XYZToXY(inv.MulVec(neutral))

		if math.Abs(next[0]-last[0])+math.Abs(next[1]-last[1]) < 1e-7 {
			return next, nil
		}
		if pass == maxPasses-1 {
			next = Vec2{(last[0] + next[0]) * 0.5, (last[1] + next[1]) * 0.5}
		}
		last = next
	}
	return last, nil
}

// CameraToXYZ returns the camera→XYZ matrix for a colour temperature.
// Forward matrices are preferred; otherwise the interpolated colour matrix
// is inverted. At or beyond a calibration temperature the corresponding
// matrix is returned unmodified.
func (p *Profile) CameraToXYZ(temperature uint32) (Mat3, error) {
	if !p.DualIlluminant {
		if p.HasForwardMatrix {
			return p.ForwardMatrix1, nil
		}
		return p.ColorMatrix1.Inverse()
	}

	g := p.weight(float64(temperature))

	m1, m2 := p.ColorMatrix1, p.ColorMatrix2
	if p.HasForwardMatrix {
		m1, m2 = p.ForwardMatrix1, p.ForwardMatrix2
	}

	var m Mat3
	switch {
	case g >= 1:
		m = m1
	case g <= 0:
		m = m2
	default:
		m = m2.Lerp(m1, g)
	}
	if p.HasForwardMatrix {
		return m, nil
	}
	return m.Inverse()
}

// weight is the share of calibration 1 at temperature t, linear in inverse
// temperature and clamped to [0, 1]. Calibrations sharing a temperature
// leave nothing to interpolate: calibration 1 wins.
func (p *Profile) weight(t float64) float64 {
	switch {
	case p.temp1 >= p.temp2, t <= p.temp1:
		return 1
	case t >= p.temp2:
		return 0
	}
	return (1/t - 1/p.temp2) / (1/p.temp1 - 1/p.temp2)
}

// CameraToXYZD50 returns the camera→XYZ(D50) matrix for the as-shot white.
func (p *Profile) CameraToXYZD50() (Mat3, error) {
	if !p.hasAsShotWhiteXY {
		return Mat3{}, ErrNoWhitePoint
	}
	return p.CameraToXYZD50ForWhite(p.asShotWhiteXY)
}

// CameraToXYZD50At returns the camera→XYZ(D50) matrix for a white balance
// given as temperature and tint.
func (p *Profile) CameraToXYZD50At(temperature, tint float64) (Mat3, error) {
	return p.CameraToXYZD50ForWhite(TemperatureTintToChromaticity(temperature, tint))
}

// CameraToXYZD50ForWhite builds the camera→XYZ(D50) matrix for a scene
// white chromaticity.
//
// With forward matrices, the camera neutral for the white is divided out
// before the forward matrix is applied. Without, the colour matrix is
// combined with a Bradford mapping from D50 to the scene white, scaled so
// PCS white lands at 1, and inverted.
func (p *Profile) CameraToXYZD50ForWhite(whiteXY Vec2) (Mat3, error) {
	whiteXYZ := XYToXYZ(whiteXY)

	if p.HasForwardMatrix {
		cameraToXYZ, err := p.CameraToXYZ(ChromaticityToColourTemperature(whiteXY))
		if err != nil {
			return Mat3{}, err
		}
		xyzToCamera, err := cameraToXYZ.Inverse()
		if err != nil {
			return Mat3{}, err
		}
		neutral := xyzToCamera.MulVec(whiteXYZ)
		m := neutral.Max()
		if m <= 0 {
			return Mat3{}, fmt.Errorf("colorpipeline: degenerate camera neutral %v", neutral)
		}
		neutral = neutral.Scale(1 / m)

		d50, err := Diagonal(neutral).Inverse()
		if err != nil {
			return Mat3{}, err
		}
		return cameraToXYZ.Mul(d50), nil
	}

	pcsToCamera := p.XYZToCamera(whiteXY).Mul(MapWhiteMatrix(D50XYZ(), whiteXYZ))
	if s := pcsToCamera.MulVec(PCSXYZ()).Max(); s > 0 {
		pcsToCamera = pcsToCamera.Scale(1 / s)
	}
	return pcsToCamera.Inverse()
}

// CameraToXYZD65 is CameraToXYZD50 adapted to D65.
func (p *Profile) CameraToXYZD65() (Mat3, error) {
	m, err := p.CameraToXYZD50()
	if err != nil {
		return Mat3{}, err
	}
	return BradfordD50ToD65(m), nil
}

// CameraToXYZD65At is CameraToXYZD50At adapted to D65.
func (p *Profile) CameraToXYZD65At(temperature, tint float64) (Mat3, error) {
	m, err := p.CameraToXYZD50At(temperature, tint)
	if err != nil {
		return Mat3{}, err
	}
	return BradfordD50ToD65(m), nil
}

func (p *Profile) String() string {
	if p.DualIlluminant {
		return fmt.Sprintf("Profile{%s/%s forward=%t}", p.Illuminant1, p.Illuminant2, p.HasForwardMatrix)
	}
	return fmt.Sprintf("Profile{%s forward=%t}", p.Illuminant1, p.HasForwardMatrix)
}
