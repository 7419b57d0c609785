// Package dng reads the parts of a DNG/CinemaDNG frame a player needs:
// the raw image IFD's geometry and sample layout, the colour calibration,
// the CinemaDNG frame rate and timecode, and the image data itself.
//
// IFD parsing is delegated to goexif's tiff package. The whole file is
// held in memory so strips and tiles are sliced without extra copies.
package dng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rwcarlsen/goexif/tiff"
)

var (
	ErrBadFile                = errors.New("dng: bad file")
	ErrBadMetadata            = errors.New("dng: bad metadata")
	ErrBadImageData           = errors.New("dng: bad image data")
	ErrUnsupportedCompression = errors.New("dng: unsupported compression")
	ErrUnsupportedBitDepth    = errors.New("dng: unsupported bit depth")
)

// Reader gives access to one DNG file.
type Reader struct {
	name  string
	data  []byte
	order binary.ByteOrder
	ifd0  *tiff.Dir
	image *tiff.Dir
}

// Open reads and parses the DNG at path.
func Open(path string) (*Reader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	return Parse(path, data)
}

// Parse parses an in-memory DNG. name is only used in error messages.
func Parse(name string, data []byte) (*Reader, error) {
	t, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadFile, name, err)
	}
	if len(t.Dirs) == 0 {
		return nil, fmt.Errorf("%w: %s: no IFD", ErrBadFile, name)
	}

	r := &Reader{
		name:  name,
		data:  data,
		order: t.Order,
		ifd0:  t.Dirs[0],
		image: t.Dirs[0],
	}

	// IFD0 is often a preview; the raw image then lives in a SubIFD
	// with NewSubfileType 0.
	if v, ok := intValue(findTag(r.ifd0, tagNewSubfileType), 0); ok && v != 0 {
		sub := findTag(r.ifd0, tagSubIFDs)
		if sub == nil {
			return nil, fmt.Errorf("%w: %s: IFD0 is not the main image and has no SubIFDs", ErrBadFile, name)
		}
		found := false
		for i := 0; i < int(sub.Count); i++ {
			off, ok := intValue(sub, i)
			if !ok {
				continue
			}
			dir, err := r.decodeDirAt(int64(off))
			if err != nil {
				return nil, fmt.Errorf("%w: %s: SubIFD %d: %v", ErrBadFile, name, i, err)
			}
			if st, ok := intValue(findTag(dir, tagNewSubfileType), 0); ok && st == 0 {
				r.image = dir
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s: no main image SubIFD", ErrBadFile, name)
		}
	}
	return r, nil
}

func (r *Reader) decodeDirAt(offset int64) (*tiff.Dir, error) {
	if offset <= 0 || offset >= int64(len(r.data)) {
		return nil, fmt.Errorf("offset %d out of range", offset)
	}
	br := bytes.NewReader(r.data)
	if _, err := br.Seek(offset, io.SeekStart); err != nil {
		return nil, err
	}
	dir, _, err := tiff.DecodeDir(br, r.order)
	return dir, err
}

// Name returns the path or name the reader was created with.
func (r *Reader) Name() string { return r.name }

// imageTag looks in the raw image IFD first, then IFD0.
func (r *Reader) imageTag(id uint16) *tiff.Tag {
	if t := findTag(r.image, id); t != nil {
		return t
	}
	if r.image != r.ifd0 {
		return findTag(r.ifd0, id)
	}
	return nil
}

// profileTag looks in IFD0 first, then the raw image IFD.
func (r *Reader) profileTag(id uint16) *tiff.Tag {
	if t := findTag(r.ifd0, id); t != nil {
		return t
	}
	if r.image != r.ifd0 {
		return findTag(r.image, id)
	}
	return nil
}

func findTag(d *tiff.Dir, id uint16) *tiff.Tag {
	if d == nil {
		return nil
	}
	for _, t := range d.Tags {
		if t.Id == id {
			return t
		}
	}
	return nil
}

func intValue(t *tiff.Tag, i int) (int64, bool) {
	if t == nil || i >= int(t.Count) || t.Format() != tiff.IntVal {
		return 0, false
	}
	v, err := t.Int64(i)
	return v, err == nil
}

func intValues(t *tiff.Tag) []int64 {
	if t == nil || t.Format() != tiff.IntVal {
		return nil
	}
	out := make([]int64, 0, t.Count)
	for i := 0; i < int(t.Count); i++ {
		v, err := t.Int64(i)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// floatValue reads integer, rational or floating point tags alike.
// A rational with a zero denominator reads as 0.
func floatValue(t *tiff.Tag, i int) (float64, bool) {
	if t == nil || i >= int(t.Count) {
		return 0, false
	}
	switch t.Format() {
	case tiff.IntVal:
		v, err := t.Int64(i)
		return float64(v), err == nil
	case tiff.RatVal:
		n, d, err := t.Rat2(i)
		if err != nil {
			return 0, false
		}
		if d == 0 {
			return 0, true
		}
		return float64(n) / float64(d), true
	case tiff.FloatVal:
		v, err := t.Float(i)
		return v, err == nil
	}
	return 0, false
}

func floatValues(t *tiff.Tag, n int) ([]float64, bool) {
	if t == nil || int(t.Count) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := range out {
		v, ok := floatValue(t, i)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
