package render

import (
	"fmt"

	"github.com/e7canasta/rawplay/modules/colorpipeline"
)

// Uniform names.
const (
	UniformMonochrome        = "monochrome"
	UniformCameraToDisplay   = "cameraToDisplay"
	UniformCameraWhite       = "cameraWhite"
	UniformLumaWeights       = "lumaWeights"
	UniformRawLumaWeights    = "rawLumaWeights"
	UniformExposure          = "exposure"
	UniformGain              = "gain"
	UniformBlackLevel        = "blackLevel"
	UniformWhiteLevel        = "whiteLevel"
	UniformLinearScale       = "linearScale"
	UniformToneMapping       = "toneMappingOperator"
	UniformHighlightRecovery = "highlightRecovery"
	UniformRollOffUnder      = "rollOffUnderLevel"
	UniformRollOffOver       = "rollOffOverLevel"
	UniformRollOffPower      = "rollOffPower"
	UniformRollOffStrength   = "rollOffStrength"
	UniformGamutCompression  = "gamutCompression"
)

type uniform struct {
	name  string
	value any
}

func uniformValues(u colorpipeline.FrameUniforms) []uniform {
	mono := int32(0)
	if u.Monochrome {
		mono = 1
	}
	return []uniform{
		{UniformMonochrome, mono},
		{UniformCameraToDisplay, u.CameraToDisplay.Float32()},
		{UniformCameraWhite, u.CameraWhite.Float32()},
		{UniformLumaWeights, u.LumaWeights.Float32()},
		{UniformRawLumaWeights, u.RawLumaWeights.Float32()},
		{UniformExposure, float32(u.Exposure)},
		{UniformGain, float32(u.Gain)},
		{UniformBlackLevel, float32(u.BlackLevel)},
		{UniformWhiteLevel, float32(u.WhiteLevel)},
		{UniformLinearScale, float32(u.LinearScale)},
		{UniformToneMapping, int32(u.ToneMapping)},
		{UniformHighlightRecovery, int32(u.HighlightRecovery)},
		{UniformRollOffUnder, float32(u.RollOff.UnderLevel)},
		{UniformRollOffOver, float32(u.RollOff.OverLevel)},
		{UniformRollOffPower, float32(u.RollOff.Power)},
		{UniformRollOffStrength, float32(u.RollOff.Strength)},
		{UniformGamutCompression, int32(u.GamutCompression)},
	}
}

// ApplyUniforms pushes every colour uniform to b, stopping at the first
// error.
func ApplyUniforms(b Backend, u colorpipeline.FrameUniforms) error {
	for _, v := range uniformValues(u) {
		if err := b.SetUniform(v.name, v.value); err != nil {
			return fmt.Errorf("render: uniform %s: %w", v.name, err)
		}
	}
	return nil
}
