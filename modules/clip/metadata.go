package clip

import (
	"fmt"
	"image"
	"strings"

	"github.com/e7canasta/rawplay/modules/clip/internal/dng"
	"github.com/e7canasta/rawplay/modules/colorpipeline"
	"github.com/e7canasta/rawplay/modules/timecode"
)

// Compression of a clip's image data.
type Compression = dng.Compression

const (
	CompressionUnknown      = dng.CompressionUnknown
	CompressionNone         = dng.CompressionNone
	CompressionLosslessJPEG = dng.CompressionLosslessJPEG
)

// CFAPattern is the Bayer layout of a colour clip.
type CFAPattern = dng.CFAPattern

// Codec decodes compressed strips or tiles (lossless JPEG).
type Codec = dng.Codec

// CodecFunc adapts a function to Codec.
type CodecFunc = dng.CodecFunc

// Metadata is read once from the clip's first frame and never changes.
type Metadata struct {
	Title string

	FirstFrame     uint32
	LastFrame      uint32
	DurationFrames uint32

	// Framerate is nil when the frames do not carry one.
	Framerate     *timecode.Rational
	StartTimeCode *timecode.TimeCode

	Width, Height             int
	PaddedWidth, PaddedHeight int

	Tiled                 bool
	TileWidth, TileHeight int
	TileCount             int

	BitDepth        int
	DecodedBitDepth int
	Compression     Compression

	CFAPattern       CFAPattern
	CFARepeatPattern [2]int
	Monochrome       bool

	LinearizationTable []uint16
	BlackLevel         uint32
	WhiteLevel         uint32
	BaselineExposure   float64

	UniqueCameraModel string
	PixelAspectRatio  [2]float64
	ActiveArea        *image.Rectangle

	// Profile is nil for monochrome clips.
	Profile *colorpipeline.Profile
}

func newMetadata(title string, info *dng.Info) (*Metadata, error) {
	md := &Metadata{
		Title:              title,
		Framerate:          info.Framerate,
		StartTimeCode:      info.TimeCode,
		Width:              info.Width,
		Height:             info.Height,
		PaddedWidth:        info.PaddedWidth,
		PaddedHeight:       info.PaddedHeight,
		Tiled:              info.Tiled,
		BitDepth:           info.BitDepth,
		DecodedBitDepth:    info.DecodedBitDepth,
		Compression:        info.Compression,
		CFAPattern:         info.CFAPattern,
		CFARepeatPattern:   info.CFARepeatPattern,
		Monochrome:         info.Monochrome,
		LinearizationTable: info.LinearizationTable,
		BlackLevel:         info.BlackLevel,
		WhiteLevel:         info.WhiteLevel,
		BaselineExposure:   info.BaselineExposure,
		UniqueCameraModel:  info.UniqueCameraModel,
		PixelAspectRatio:   info.DefaultScale,
	}
	if info.Tiled {
		md.TileWidth, md.TileHeight, md.TileCount = info.TileWidth, info.TileHeight, info.TileCount
	}
	if c := info.DefaultCrop; c != nil {
		r := image.Rect(c[0], c[1], c[0]+c[2], c[1]+c[3])
		md.ActiveArea = &r
	}
	if info.Calibration != nil {
		p, err := colorpipeline.NewProfile(*info.Calibration)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
		}
		md.Profile = p
	}
	return md, nil
}

// FrameRate returns the clip's rate, or timecode.DefaultFramerate when the
// frames carry none.
func (m *Metadata) FrameRate() timecode.Rational {
	if m.Framerate != nil {
		return *m.Framerate
	}
	return timecode.DefaultFramerate
}

// ImageSize is the decoded size of one frame in bytes.
func (m *Metadata) ImageSize() int {
	return m.PaddedWidth * m.PaddedHeight * m.DecodedBitDepth / 8
}

// Contains reports whether n is one of the clip's frames.
func (m *Metadata) Contains(n uint32) bool {
	return n >= m.FirstFrame && n <= m.LastFrame
}

// ColorTarget returns the colour pipeline target for rendering this clip
// into gamut.
func (m *Metadata) ColorTarget(gamut colorpipeline.Gamut) colorpipeline.Target {
	return colorpipeline.Target{
		Gamut:            gamut,
		BaselineExposure: m.BaselineExposure,
		BlackLevel:       float64(m.BlackLevel),
		WhiteLevel:       float64(m.WhiteLevel),
		DecodedBitDepth:  m.DecodedBitDepth,
	}
}

func (m *Metadata) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: frames %d-%d (%d)", m.Title, m.FirstFrame, m.LastFrame, m.DurationFrames)
	fmt.Fprintf(&b, ", %dx%d", m.Width, m.Height)
	if m.Tiled {
		fmt.Fprintf(&b, " (%d tiles of %dx%d)", m.TileCount, m.TileWidth, m.TileHeight)
	}
	fmt.Fprintf(&b, ", %d-bit %s", m.BitDepth, m.Compression)
	if m.Monochrome {
		b.WriteString(", monochrome")
	} else {
		fmt.Fprintf(&b, ", %s", m.CFAPattern)
	}
	fmt.Fprintf(&b, ", %s fps", m.FrameRate())
	if m.StartTimeCode != nil {
		fmt.Fprintf(&b, ", tc %s", m.StartTimeCode)
	}
	if m.UniqueCameraModel != "" {
		fmt.Fprintf(&b, ", %s", m.UniqueCameraModel)
	}
	return b.String()
}
