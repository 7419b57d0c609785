package dng

// Baseline TIFF tags.
const (
	tagNewSubfileType  uint16 = 254
	tagImageWidth      uint16 = 256
	tagImageLength     uint16 = 257
	tagBitsPerSample   uint16 = 258
	tagCompression     uint16 = 259
	tagPhotometric     uint16 = 262
	tagStripOffsets    uint16 = 273
	tagRowsPerStrip    uint16 = 278
	tagStripByteCounts uint16 = 279
	tagTileWidth       uint16 = 322
	tagTileLength      uint16 = 323
	tagTileOffsets     uint16 = 324
	tagTileByteCounts  uint16 = 325
	tagSubIFDs         uint16 = 330
)

// DNG tags.
const (
	tagCFARepeatPatternDim    uint16 = 33421
	tagCFAPattern             uint16 = 33422
	tagUniqueCameraModel      uint16 = 50708
	tagLinearizationTable     uint16 = 50712
	tagBlackLevel             uint16 = 50714
	tagWhiteLevel             uint16 = 50717
	tagDefaultScale           uint16 = 50718
	tagDefaultCropOrigin      uint16 = 50719
	tagDefaultCropSize        uint16 = 50720
	tagColorMatrix1           uint16 = 50721
	tagColorMatrix2           uint16 = 50722
	tagAsShotNeutral          uint16 = 50728
	tagAsShotWhiteXY          uint16 = 50729
	tagBaselineExposure       uint16 = 50730
	tagCalibrationIlluminant1 uint16 = 50778
	tagCalibrationIlluminant2 uint16 = 50779
	tagForwardMatrix1         uint16 = 50964
	tagForwardMatrix2         uint16 = 50965
)

// CinemaDNG tags.
const (
	tagTimeCodes uint16 = 51043
	tagFrameRate uint16 = 51044
)

// Compression is the TIFF Compression code of the raw image.
type Compression int

const (
	CompressionUnknown      Compression = -1
	CompressionNone         Compression = 1
	CompressionLosslessJPEG Compression = 7
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionLosslessJPEG:
		return "LosslessJPEG"
	}
	return "Unknown"
}

// Photometric interpretations a raw image can carry.
const (
	PhotometricCFA       = 32803
	PhotometricLinearRaw = 34892
)

// CFAPattern is the 2×2 Bayer arrangement.
type CFAPattern int

const (
	CFANone CFAPattern = iota
	CFARGGB
	CFABGGR
	CFAGBRG
	CFAGRBG
	CFAUnknown
)

func (p CFAPattern) String() string {
	switch p {
	case CFANone:
		return "None"
	case CFARGGB:
		return "RGGB"
	case CFABGGR:
		return "BGGR"
	case CFAGBRG:
		return "GBRG"
	case CFAGRBG:
		return "GRBG"
	}
	return "Unknown"
}

func cfaPatternFromValues(v []int) CFAPattern {
	if len(v) == 0 {
		return CFANone
	}
	if len(v) != 4 {
		return CFAUnknown
	}
	switch [4]int{v[0], v[1], v[2], v[3]} {
	case [4]int{0, 1, 1, 2}:
		return CFARGGB
	case [4]int{2, 1, 1, 0}:
		return CFABGGR
	case [4]int{1, 0, 2, 1}:
		return CFAGRBG
	case [4]int{1, 2, 0, 1}:
		return CFAGBRG
	}
	return CFAUnknown
}
