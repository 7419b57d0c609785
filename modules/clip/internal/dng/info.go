package dng

import (
	"fmt"

	"github.com/e7canasta/rawplay/modules/colorpipeline"
	"github.com/e7canasta/rawplay/modules/timecode"
)

// Info is the per-frame metadata of a DNG.
type Info struct {
	Width, Height             int
	PaddedWidth, PaddedHeight int

	BitDepth        int
	DecodedBitDepth int
	Compression     Compression
	Photometric     int
	Monochrome      bool

	CFAPattern       CFAPattern
	CFARepeatPattern [2]int

	Tiled                 bool
	TileWidth, TileHeight int
	TileCount             int
	StripCount            int

	LinearizationTable []uint16
	BlackLevel         uint32
	WhiteLevel         uint32
	BaselineExposure   float64

	UniqueCameraModel string
	Framerate         *timecode.Rational
	TimeCode          *timecode.TimeCode
	DefaultScale      [2]float64
	DefaultCrop       *[4]int // origin x, y, size w, h

	// Calibration is nil for LinearRaw (monochrome) images.
	Calibration *colorpipeline.Calibration
}

// ImageSize returns the decoded size of the padded image in bytes.
func (i *Info) ImageSize() int {
	return i.PaddedWidth * i.PaddedHeight * i.DecodedBitDepth / 8
}

// Info reads the frame metadata.
func (r *Reader) Info() (*Info, error) {
	info := &Info{DefaultScale: [2]float64{1, 1}}

	w, okW := intValue(r.imageTag(tagImageWidth), 0)
	h, okH := intValue(r.imageTag(tagImageLength), 0)
	if !okW || !okH || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %s: missing image dimensions", ErrBadMetadata, r.name)
	}
	info.Width, info.Height = int(w), int(h)

	bits, ok := intValue(r.imageTag(tagBitsPerSample), 0)
	if !ok || bits <= 0 || bits > 16 {
		return nil, fmt.Errorf("%w: %s: bad BitsPerSample", ErrBadMetadata, r.name)
	}
	info.BitDepth = int(bits)

	info.Compression = CompressionUnknown
	if c, ok := intValue(r.imageTag(tagCompression), 0); ok {
		switch Compression(c) {
		case CompressionNone, CompressionLosslessJPEG:
			info.Compression = Compression(c)
		}
	} else {
		info.Compression = CompressionNone
	}
	switch info.Compression {
	case CompressionNone:
		info.DecodedBitDepth = 8
		if info.BitDepth > 8 {
			info.DecodedBitDepth = 16
		}
	case CompressionLosslessJPEG:
		info.DecodedBitDepth = 16
	default:
		info.DecodedBitDepth = info.BitDepth
	}

	if p, ok := intValue(r.imageTag(tagPhotometric), 0); ok {
		info.Photometric = int(p)
	}
	info.Monochrome = info.Photometric == PhotometricLinearRaw

	if v := intValues(r.imageTag(tagCFAPattern)); v != nil {
		vals := make([]int, len(v))
		for i := range v {
			vals[i] = int(v[i])
		}
		info.CFAPattern = cfaPatternFromValues(vals)
	} else if t := r.imageTag(tagCFAPattern); t != nil {
		// CFAPattern is BYTE but some writers tag it UNDEFINED.
		vals := make([]int, len(t.Val))
		for i, b := range t.Val {
			vals[i] = int(b)
		}
		info.CFAPattern = cfaPatternFromValues(vals)
	}
	if v := intValues(r.imageTag(tagCFARepeatPatternDim)); len(v) == 2 {
		info.CFARepeatPattern = [2]int{int(v[0]), int(v[1])}
	}

	info.PaddedWidth, info.PaddedHeight = info.Width, info.Height
	if findTag(r.image, tagTileOffsets) != nil {
		info.Tiled = true
		tw, _ := intValue(r.imageTag(tagTileWidth), 0)
		th, _ := intValue(r.imageTag(tagTileLength), 0)
		if tw <= 0 || th <= 0 {
			return nil, fmt.Errorf("%w: %s: tiled image without tile dimensions", ErrBadMetadata, r.name)
		}
		info.TileWidth, info.TileHeight = int(tw), int(th)
		info.TileCount = int(findTag(r.image, tagTileOffsets).Count)
		info.PaddedWidth = roundUp(info.Width, info.TileWidth)
		info.PaddedHeight = roundUp(info.Height, info.TileHeight)
	} else if t := findTag(r.image, tagStripOffsets); t != nil {
		info.StripCount = int(t.Count)
	}

	if v := intValues(r.profileTag(tagLinearizationTable)); v != nil {
		info.LinearizationTable = make([]uint16, len(v))
		for i := range v {
			info.LinearizationTable[i] = uint16(v[i])
		}
	}

	if v, ok := floatValue(r.imageTag(tagBlackLevel), 0); ok {
		info.BlackLevel = uint32(v)
	}
	info.WhiteLevel = uint32(1)<<uint(info.BitDepth) - 1
	if v, ok := floatValue(r.imageTag(tagWhiteLevel), 0); ok {
		info.WhiteLevel = uint32(v)
	}
	if v, ok := floatValue(r.profileTag(tagBaselineExposure), 0); ok {
		info.BaselineExposure = v
	}

	if t := r.profileTag(tagUniqueCameraModel); t != nil {
		if s, err := t.StringVal(); err == nil {
			info.UniqueCameraModel = s
		}
	}

	if t := r.profileTag(tagFrameRate); t != nil && t.Count > 0 {
		if n, d, err := t.Rat2(0); err == nil {
			rate := timecode.Rational{Numerator: int(n), Denominator: int(d)}
			if rate.Valid() {
				info.Framerate = &rate
			}
		}
	}
	if t := r.profileTag(tagTimeCodes); t != nil && len(t.Val) >= 8 {
		tc, err := timecode.DecodeSMPTE(t.Val[:8])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadMetadata, r.name, err)
		}
		info.TimeCode = &tc
	}

	if v, ok := floatValues(r.imageTag(tagDefaultScale), 2); ok && v[0] > 0 && v[1] > 0 {
		info.DefaultScale = [2]float64{v[0], v[1]}
	}
	origin, okO := floatValues(r.imageTag(tagDefaultCropOrigin), 2)
	size, okS := floatValues(r.imageTag(tagDefaultCropSize), 2)
	if okO && okS {
		info.DefaultCrop = &[4]int{int(origin[0]), int(origin[1]), int(size[0]), int(size[1])}
	}

	if !info.Monochrome {
		c, err := r.calibration()
		if err != nil {
			return nil, err
		}
		info.Calibration = c
	}
	return info, nil
}

func (r *Reader) calibration() (*colorpipeline.Calibration, error) {
	cm1, ok := r.matrix(tagColorMatrix1)
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing ColorMatrix1", ErrBadMetadata, r.name)
	}
	c := &colorpipeline.Calibration{ColorMatrix1: cm1}

	if v, ok := intValue(r.profileTag(tagCalibrationIlluminant1), 0); ok {
		c.Illuminant1 = colorpipeline.Illuminant(v)
	}
	if cm2, ok := r.matrix(tagColorMatrix2); ok {
		c.ColorMatrix2 = &cm2
		if v, ok := intValue(r.profileTag(tagCalibrationIlluminant2), 0); ok {
			c.Illuminant2 = colorpipeline.Illuminant(v)
		}
	}
	if fm1, ok := r.matrix(tagForwardMatrix1); ok {
		c.ForwardMatrix1 = &fm1
		if fm2, ok := r.matrix(tagForwardMatrix2); ok {
			c.ForwardMatrix2 = &fm2
		}
	}

	if v, ok := floatValues(r.profileTag(tagAsShotNeutral), 3); ok {
		c.AsShotNeutral = &colorpipeline.Vec3{v[0], v[1], v[2]}
	} else if v, ok := floatValues(r.profileTag(tagAsShotWhiteXY), 2); ok {
		c.AsShotWhiteXY = &colorpipeline.Vec2{v[0], v[1]}
	}
	return c, nil
}

func (r *Reader) matrix(id uint16) (colorpipeline.Mat3, bool) {
	v, ok := floatValues(r.profileTag(id), 9)
	if !ok {
		return colorpipeline.Mat3{}, false
	}
	m, err := colorpipeline.MatFromSlice(v)
	return m, err == nil
}

func roundUp(v, multiple int) int {
	return (v + multiple - 1) / multiple * multiple
}
