package colorpipeline

import "fmt"

// ToneMappingOperator selects the display tone curve.
type ToneMappingOperator int

const (
	ToneMappingNone ToneMappingOperator = iota
	ToneMappingSDR
)

// HighlightRecovery toggles reconstruction of clipped channels.
type HighlightRecovery int

const (
	HighlightRecoveryOff HighlightRecovery = iota
	HighlightRecoveryOn
)

// HighlightRollOff selects the highlight desaturation curve.
type HighlightRollOff int

const (
	HighlightRollOffOff HighlightRollOff = iota - 1
	HighlightRollOffLow
	HighlightRollOffMedium
	HighlightRollOffHigh
)

// GamutCompression toggles compression of out-of-gamut colours.
type GamutCompression int

const (
	GamutCompressionOff GamutCompression = iota
	GamutCompressionRec709
)

// WhiteBalance is a scene white given as Kelvin and tint.
type WhiteBalance struct {
	Temperature float64 `json:"temperature" yaml:"temperature" msgpack:"temperature"`
	Tint        float64 `json:"tint" yaml:"tint" msgpack:"tint"`
}

// White balance presets.
var (
	WhiteBalanceShade       = WhiteBalance{7500, 10}
	WhiteBalanceCloudy      = WhiteBalance{6500, 10}
	WhiteBalanceDaylight    = WhiteBalance{5500, 10}
	WhiteBalanceFluorescent = WhiteBalance{3800, 21}
	WhiteBalanceTungsten    = WhiteBalance{3200, 0}
)

// RawParameters are the user adjustments applied on top of the clip's
// metadata. Nil fields mean "as shot" / default.
type RawParameters struct {
	Exposure          *float64             `json:"exposure,omitempty" yaml:"exposure,omitempty" msgpack:"exposure,omitempty"`
	ToneMapping       *ToneMappingOperator `json:"tone_mapping,omitempty" yaml:"tone_mapping,omitempty" msgpack:"tone_mapping,omitempty"`
	WhiteBalance      *WhiteBalance        `json:"white_balance,omitempty" yaml:"white_balance,omitempty" msgpack:"white_balance,omitempty"`
	HighlightRecovery *HighlightRecovery   `json:"highlight_recovery,omitempty" yaml:"highlight_recovery,omitempty" msgpack:"highlight_recovery,omitempty"`
	HighlightRollOff  *HighlightRollOff    `json:"highlight_roll_off,omitempty" yaml:"highlight_roll_off,omitempty" msgpack:"highlight_roll_off,omitempty"`
	GamutCompression  *GamutCompression    `json:"gamut_compression,omitempty" yaml:"gamut_compression,omitempty" msgpack:"gamut_compression,omitempty"`
}

// Defaults used when a RawParameters field is nil.
const (
	DefaultToneMapping       = ToneMappingSDR
	DefaultHighlightRecovery = HighlightRecoveryOn
	DefaultHighlightRollOff  = HighlightRollOffLow
	DefaultGamutCompression  = GamutCompressionOff
)

// Validate rejects out of range enum values and non-positive temperatures.
func (r RawParameters) Validate() error {
	if r.ToneMapping != nil && (*r.ToneMapping < ToneMappingNone || *r.ToneMapping > ToneMappingSDR) {
		return fmt.Errorf("colorpipeline: invalid tone mapping operator %d", *r.ToneMapping)
	}
	if r.HighlightRecovery != nil && (*r.HighlightRecovery < HighlightRecoveryOff || *r.HighlightRecovery > HighlightRecoveryOn) {
		return fmt.Errorf("colorpipeline: invalid highlight recovery %d", *r.HighlightRecovery)
	}
	if r.HighlightRollOff != nil && (*r.HighlightRollOff < HighlightRollOffOff || *r.HighlightRollOff > HighlightRollOffHigh) {
		return fmt.Errorf("colorpipeline: invalid highlight roll-off %d", *r.HighlightRollOff)
	}
	if r.GamutCompression != nil && (*r.GamutCompression < GamutCompressionOff || *r.GamutCompression > GamutCompressionRec709) {
		return fmt.Errorf("colorpipeline: invalid gamut compression %d", *r.GamutCompression)
	}
	if r.WhiteBalance != nil && r.WhiteBalance.Temperature <= 0 {
		return fmt.Errorf("colorpipeline: invalid white balance temperature %.1f", r.WhiteBalance.Temperature)
	}
	return nil
}

// Ptr returns a pointer to v, for building RawParameters literals.
func Ptr[T any](v T) *T { return &v }
