package colorpipeline

import (
	"fmt"
	"math"
)

// Target describes the display side and the sensor levels a frame is
// rendered with.
type Target struct {
	Gamut            Gamut
	BaselineExposure float64
	BlackLevel       float64
	WhiteLevel       float64
	DecodedBitDepth  int
}

// RollOffParams shape the highlight desaturation curve.
type RollOffParams struct {
	UnderLevel float64
	OverLevel  float64
	Power      float64
	Strength   float64
}

// FrameUniforms is everything the debayer/display shader needs for one
// frame besides the image itself.
type FrameUniforms struct {
	Monochrome bool

	CameraToDisplay Mat3
	CameraWhite     Vec3
	LumaWeights     Vec3
	RawLumaWeights  Vec3
	WhiteBalance    WhiteBalance

	Exposure float64
	Gain     float64

	BlackLevel  float64
	WhiteLevel  float64
	LinearScale float64

	ToneMapping       ToneMappingOperator
	HighlightRecovery HighlightRecovery
	HighlightRollOff  HighlightRollOff
	RollOff           RollOffParams
	GamutCompression  GamutCompression
}

// HighlightRollOffParams returns the curve for a roll-off setting, in
// linear units relative to the white clip.
func HighlightRollOffParams(r HighlightRollOff) RollOffParams {
	switch r {
	case HighlightRollOffLow:
		return RollOffParams{UnderLevel: math.Exp2(-2), OverLevel: math.Exp2(3), Power: 0.4, Strength: 0.75}
	case HighlightRollOffMedium:
		return RollOffParams{UnderLevel: math.Exp2(-1.5), OverLevel: math.Exp2(2.5), Power: 0.2, Strength: 0.8}
	case HighlightRollOffHigh:
		return RollOffParams{UnderLevel: math.Exp2(-4.5), OverLevel: math.Exp2(0.25), Power: 0.2, Strength: 1}
	}
	return RollOffParams{}
}

// Uniforms resolves raw parameters against a profile. A nil profile means
// a monochrome (LinearRaw) clip: colour-only parameters are ignored.
func Uniforms(profile *Profile, params RawParameters, target Target) (FrameUniforms, error) {
	if err := params.Validate(); err != nil {
		return FrameUniforms{}, err
	}
	if target.DecodedBitDepth <= 0 || target.DecodedBitDepth > 16 {
		return FrameUniforms{}, fmt.Errorf("colorpipeline: invalid decoded bit depth %d", target.DecodedBitDepth)
	}
	if target.WhiteLevel <= target.BlackLevel {
		return FrameUniforms{}, fmt.Errorf("colorpipeline: white level %.0f not above black level %.0f", target.WhiteLevel, target.BlackLevel)
	}

	u := FrameUniforms{
		Monochrome:  profile == nil,
		LumaWeights: LumaWeights(target.Gamut),
		Exposure:    target.BaselineExposure,
		ToneMapping: DefaultToneMapping,
	}
	if params.Exposure != nil {
		u.Exposure = *params.Exposure
	}
	u.Gain = math.Exp2(u.Exposure)
	if params.ToneMapping != nil {
		u.ToneMapping = *params.ToneMapping
	}

	rangeMax := float64(uint32(1)<<uint(target.DecodedBitDepth) - 1)
	u.BlackLevel = target.BlackLevel / rangeMax
	u.WhiteLevel = target.WhiteLevel / rangeMax
	u.LinearScale = 1 / (u.WhiteLevel - u.BlackLevel)

	if profile == nil {
		u.CameraToDisplay = Identity3
		u.CameraWhite = Vec3{1, 1, 1}
		u.RawLumaWeights = u.LumaWeights
		u.HighlightRecovery = HighlightRecoveryOff
		u.HighlightRollOff = HighlightRollOffOff
		u.GamutCompression = GamutCompressionOff
		return u, nil
	}

	u.HighlightRecovery = DefaultHighlightRecovery
	if params.HighlightRecovery != nil {
		u.HighlightRecovery = *params.HighlightRecovery
	}
	u.HighlightRollOff = DefaultHighlightRollOff
	if params.HighlightRollOff != nil {
		u.HighlightRollOff = *params.HighlightRollOff
	}
	u.RollOff = HighlightRollOffParams(u.HighlightRollOff)
	u.GamutCompression = DefaultGamutCompression
	if params.GamutCompression != nil {
		u.GamutCompression = *params.GamutCompression
	}

	var (
		cameraToXYZ Mat3
		err         error
	)
	switch {
	case params.WhiteBalance != nil:
		u.WhiteBalance = *params.WhiteBalance
		cameraToXYZ, err = profile.CameraToXYZD50At(u.WhiteBalance.Temperature, u.WhiteBalance.Tint)
	default:
		if t, tint, ok := profile.AsShotWhiteBalance(); ok {
			u.WhiteBalance = WhiteBalance{Temperature: t, Tint: tint}
			cameraToXYZ, err = profile.CameraToXYZD50()
		} else {
			u.WhiteBalance = WhiteBalanceDaylight
			cameraToXYZ, err = profile.CameraToXYZD50At(u.WhiteBalance.Temperature, u.WhiteBalance.Tint)
		}
	}
	if err != nil {
		return FrameUniforms{}, fmt.Errorf("colorpipeline: camera to XYZ: %w", err)
	}

	u.CameraToDisplay = XYZToGamutD50(target.Gamut).Mul(cameraToXYZ)

	xyzToCamera, err := cameraToXYZ.Inverse()
	if err != nil {
		return FrameUniforms{}, fmt.Errorf("colorpipeline: camera white: %w", err)
	}
	white := xyzToCamera.MulVec(PCSXYZ())
	if m := white.Max(); m > 0 {
		white = white.Scale(1 / m)
	}
	u.CameraWhite = white
	u.RawLumaWeights = rawLumaWeights(u.LumaWeights, u.CameraToDisplay)
	return u, nil
}

// rawLumaWeights projects display luma weights back onto camera channels,
// normalised to sum to one.
func rawLumaWeights(luma Vec3, cameraToDisplay Mat3) Vec3 {
	var w Vec3
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			w[j] += luma[i] * cameraToDisplay[i][j]
		}
	}
	sum := w[0] + w[1] + w[2]
	if sum == 0 {
		return luma
	}
	return w.Scale(1 / sum)
}
