// Package dngtest writes small synthetic DNG files for tests.
package dngtest

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

const (
	typeByte      = 1
	typeASCII     = 2
	typeShort     = 3
	typeLong      = 4
	typeRational  = 5
	typeSRational = 10
)

// Frame describes one synthetic DNG. Zero values pick sensible defaults.
type Frame struct {
	Width, Height int
	BitDepth      int      // 8, 12, 14 or 16 (default 16)
	Pixels        []uint16 // padded-area samples, row major; nil fills a ramp

	TileWidth, TileHeight int // tiled when both are set
	Strips                int // default 1

	Monochrome  bool
	SubIFD      bool // put the raw image in a SubIFD behind a preview IFD0
	Compression int  // default 1 (none)
	Segments    [][]byte

	Framerate        [2]int32 // numerator, denominator; zero omits the tag
	TimeCode         []byte
	BlackLevel       uint32
	WhiteLevel       uint32
	BaselineExposure float64
	CameraModel      string
	CFAPattern       []byte

	Illuminant1, Illuminant2       uint16
	ColorMatrix1, ColorMatrix2     []float64
	ForwardMatrix1, ForwardMatrix2 []float64
	AsShotNeutral                  []float64
}

// Colour returns a dual-illuminant colour frame of the given size.
func Colour(width, height int) Frame {
	return Frame{
		Width:          width,
		Height:         height,
		BitDepth:       16,
		Framerate:      [2]int32{24, 1},
		BlackLevel:     256,
		WhiteLevel:     65535,
		CameraModel:    "Test Camera",
		CFAPattern:     []byte{0, 1, 1, 2},
		Illuminant1:    17,
		Illuminant2:    21,
		ColorMatrix1:   []float64{0.9, -0.3, -0.05, -0.4, 1.2, 0.2, -0.05, 0.2, 0.65},
		ColorMatrix2:   []float64{0.7, -0.2, -0.05, -0.45, 1.25, 0.2, -0.1, 0.2, 0.6},
		ForwardMatrix1: []float64{0.6, 0.25, 0.1, 0.25, 0.85, -0.1, 0.05, -0.15, 0.95},
		ForwardMatrix2: []float64{0.65, 0.2, 0.1, 0.28, 0.8, -0.08, 0.03, -0.1, 0.9},
		AsShotNeutral:  []float64{0.55, 1, 0.7},
	}
}

// Write encodes f to path.
func Write(path string, f Frame) error {
	return os.WriteFile(path, f.Bytes(), 0o644)
}

// WriteSequence writes frames first..last into dir as
// <prefix><zero padded number>.dng.
func WriteSequence(dir, prefix string, first, last, digits int, f Frame) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	data := f.Bytes()
	var paths []string
	for n := first; n <= last; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s%0*d.dng", prefix, digits, n))
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// PaddedSize returns the padded dimensions the reader will report.
func (f Frame) PaddedSize() (int, int) {
	if f.TileWidth > 0 && f.TileHeight > 0 {
		return roundUp(f.Width, f.TileWidth), roundUp(f.Height, f.TileHeight)
	}
	return f.Width, f.Height
}

// Samples returns the padded-area samples the frame encodes.
func (f Frame) Samples() []uint16 {
	if f.Pixels != nil {
		return f.Pixels
	}
	pw, ph := f.PaddedSize()
	max := uint32(1)<<uint(f.bitDepth()) - 1
	s := make([]uint16, pw*ph)
	for i := range s {
		s[i] = uint16(uint32(i*37) % (max + 1))
	}
	return s
}

func (f Frame) bitDepth() int {
	if f.BitDepth == 0 {
		return 16
	}
	return f.BitDepth
}

// Bytes encodes the frame as a little-endian DNG.
func (f Frame) Bytes() []byte {
	bits := f.bitDepth()
	compression := f.Compression
	if compression == 0 {
		compression = 1
	}
	tiled := f.TileWidth > 0 && f.TileHeight > 0

	var segments [][]byte
	if f.Segments != nil {
		segments = f.Segments
	} else {
		segments = f.pack(bits, tiled)
	}

	buf := []byte{'I', 'I', 42, 0, 0, 0, 0, 0}
	offsets := make([]uint32, len(segments))
	counts := make([]uint32, len(segments))
	for i, s := range segments {
		buf = pad(buf)
		offsets[i] = uint32(len(buf))
		counts[i] = uint32(len(s))
		buf = append(buf, s...)
	}

	photometric := uint32(32803)
	if f.Monochrome {
		photometric = 34892
	}
	image := []entry{
		longs(254, 0),
		longs(256, uint32(f.Width)),
		longs(257, uint32(f.Height)),
		shorts(258, uint16(bits)),
		shorts(259, uint16(compression)),
		shorts(262, uint16(photometric)),
	}
	if tiled {
		image = append(image,
			longs(322, uint32(f.TileWidth)),
			longs(323, uint32(f.TileHeight)),
			longs(324, offsets...),
			longs(325, counts...),
		)
	} else {
		image = append(image,
			longs(273, offsets...),
			longs(278, uint32(f.rowsPerStrip())),
			longs(279, counts...),
		)
	}
	if !f.Monochrome && f.CFAPattern != nil {
		image = append(image, shorts(33421, 2, 2), entry{33422, typeByte, uint32(len(f.CFAPattern)), f.CFAPattern})
	}
	if f.BlackLevel != 0 {
		image = append(image, longs(50714, f.BlackLevel))
	}
	if f.WhiteLevel != 0 {
		image = append(image, longs(50717, f.WhiteLevel))
	}

	var profile []entry
	if f.CameraModel != "" {
		s := append([]byte(f.CameraModel), 0)
		profile = append(profile, entry{50708, typeASCII, uint32(len(s)), s})
	}
	if f.BaselineExposure != 0 {
		profile = append(profile, srationals(50730, f.BaselineExposure))
	}
	if f.ColorMatrix1 != nil {
		profile = append(profile, srationals(50721, f.ColorMatrix1...), shorts(50778, f.Illuminant1))
	}
	if f.ColorMatrix2 != nil {
		profile = append(profile, srationals(50722, f.ColorMatrix2...), shorts(50779, f.Illuminant2))
	}
	if f.ForwardMatrix1 != nil {
		profile = append(profile, srationals(50964, f.ForwardMatrix1...))
	}
	if f.ForwardMatrix2 != nil {
		profile = append(profile, srationals(50965, f.ForwardMatrix2...))
	}
	if f.AsShotNeutral != nil {
		profile = append(profile, rationals(50728, f.AsShotNeutral...))
	}
	if f.TimeCode != nil {
		profile = append(profile, entry{51043, typeByte, uint32(len(f.TimeCode)), f.TimeCode})
	}
	if f.Framerate[1] != 0 {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint32(b, uint32(f.Framerate[0]))
		binary.LittleEndian.PutUint32(b[4:], uint32(f.Framerate[1]))
		profile = append(profile, entry{51044, typeSRational, 1, b})
	}

	var ifd0 uint32
	if f.SubIFD {
		var sub uint32
		buf, sub = writeIFD(buf, image)
		preview := append([]entry{
			longs(254, 1),
			longs(256, 1),
			longs(257, 1),
			shorts(258, 8),
			longs(330, sub),
		}, profile...)
		buf, ifd0 = writeIFD(buf, preview)
	} else {
		buf, ifd0 = writeIFD(buf, append(image, profile...))
	}
	binary.LittleEndian.PutUint32(buf[4:], ifd0)
	return buf
}

func (f Frame) rowsPerStrip() int {
	strips := f.Strips
	if strips <= 0 {
		strips = 1
	}
	return (f.Height + strips - 1) / strips
}

// pack splits the samples into strips or tiles and bit-packs each one.
func (f Frame) pack(bits int, tiled bool) [][]byte {
	samples := f.Samples()
	pw, ph := f.PaddedSize()

	var segments [][]byte
	if tiled {
		for ty := 0; ty < ph; ty += f.TileHeight {
			for tx := 0; tx < pw; tx += f.TileWidth {
				tile := make([]uint16, 0, f.TileWidth*f.TileHeight)
				for y := ty; y < ty+f.TileHeight; y++ {
					tile = append(tile, samples[y*pw+tx:y*pw+tx+f.TileWidth]...)
				}
				segments = append(segments, packBits(tile, bits))
			}
		}
		return segments
	}

	rows := f.rowsPerStrip()
	for y := 0; y < ph; y += rows {
		end := min(y+rows, ph)
		segments = append(segments, packBits(samples[y*pw:end*pw], bits))
	}
	return segments
}

func packBits(samples []uint16, bits int) []byte {
	switch bits {
	case 8:
		out := make([]byte, len(samples))
		for i, s := range samples {
			out[i] = byte(s)
		}
		return out
	case 16:
		out := make([]byte, 2*len(samples))
		for i, s := range samples {
			binary.LittleEndian.PutUint16(out[2*i:], s)
		}
		return out
	}

	// MSB-first bit stream, as DNG stores packed samples.
	out := make([]byte, 0, (len(samples)*bits+7)/8)
	var acc uint64
	var n int
	for _, s := range samples {
		acc = acc<<uint(bits) | uint64(s)&(1<<uint(bits)-1)
		n += bits
		for n >= 8 {
			out = append(out, byte(acc>>uint(n-8)))
			n -= 8
		}
	}
	if n > 0 {
		out = append(out, byte(acc<<uint(8-n)))
	}
	return out
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func shorts(tag uint16, v ...uint16) entry {
	b := make([]byte, 2*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint16(b[2*i:], x)
	}
	return entry{tag, typeShort, uint32(len(v)), b}
}

func longs(tag uint16, v ...uint32) entry {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], x)
	}
	return entry{tag, typeLong, uint32(len(v)), b}
}

const ratDen = 1000000

func rationals(tag uint16, v ...float64) entry {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[8*i:], uint32(math.Round(x*ratDen)))
		binary.LittleEndian.PutUint32(b[8*i+4:], ratDen)
	}
	return entry{tag, typeRational, uint32(len(v)), b}
}

func srationals(tag uint16, v ...float64) entry {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[8*i:], uint32(int32(math.Round(x*ratDen))))
		binary.LittleEndian.PutUint32(b[8*i+4:], ratDen)
	}
	return entry{tag, typeSRational, uint32(len(v)), b}
}

// writeIFD appends an IFD (entries sorted, values after the directory) and
// returns its offset.
func writeIFD(buf []byte, entries []entry) ([]byte, uint32) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	buf = pad(buf)
	off := uint32(len(buf))
	valueStart := off + 2 + 12*uint32(len(entries)) + 4

	var values []byte
	dir := make([]byte, 2, 2+12*len(entries)+4)
	binary.LittleEndian.PutUint16(dir, uint16(len(entries)))
	for _, e := range entries {
		var rec [12]byte
		binary.LittleEndian.PutUint16(rec[0:], e.tag)
		binary.LittleEndian.PutUint16(rec[2:], e.typ)
		binary.LittleEndian.PutUint32(rec[4:], e.count)
		if len(e.data) <= 4 {
			copy(rec[8:], e.data)
		} else {
			binary.LittleEndian.PutUint32(rec[8:], valueStart+uint32(len(values)))
			values = pad(append(values, e.data...))
		}
		dir = append(dir, rec[:]...)
	}
	dir = append(dir, 0, 0, 0, 0)

	buf = append(buf, dir...)
	buf = append(buf, values...)
	return buf, off
}

func pad(b []byte) []byte {
	if len(b)%2 == 1 {
		return append(b, 0)
	}
	return b
}

func roundUp(v, multiple int) int {
	return (v + multiple - 1) / multiple * multiple
}
