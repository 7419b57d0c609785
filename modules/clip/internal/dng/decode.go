package dng

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DecodeImage decodes the raw image into dst, which must hold at least
// info.ImageSize() bytes. Output samples are little-endian. Tiles are
// written tile after tile, strips row after row.
func (r *Reader) DecodeImage(info *Info, dst []byte, codec Codec) error {
	offsets, counts, err := r.segments(info)
	if err != nil {
		return err
	}

	want := info.ImageSize()
	if len(dst) < want {
		return fmt.Errorf("%w: %s: output buffer %d bytes, need %d", ErrBadImageData, r.name, len(dst), want)
	}

	switch info.Compression {
	case CompressionNone:
		return r.decodeUncompressed(info, offsets, counts, dst[:want])
	case CompressionLosslessJPEG:
		if codec == nil {
			return fmt.Errorf("%w: %s: lossless JPEG needs a codec", ErrUnsupportedCompression, r.name)
		}
		return r.decodeCompressed(info, offsets, counts, dst[:want], codec)
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedCompression, r.name)
}

func (r *Reader) segments(info *Info) (offsets, counts []int64, err error) {
	if info.Tiled {
		offsets = intValues(findTag(r.image, tagTileOffsets))
		counts = intValues(findTag(r.image, tagTileByteCounts))
	} else {
		offsets = intValues(findTag(r.image, tagStripOffsets))
		counts = intValues(findTag(r.image, tagStripByteCounts))
	}
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, nil, fmt.Errorf("%w: %s: %d offsets, %d byte counts", ErrBadImageData, r.name, len(offsets), len(counts))
	}
	for i := range offsets {
		if offsets[i] < 0 || counts[i] < 0 || offsets[i]+counts[i] > int64(len(r.data)) {
			return nil, nil, fmt.Errorf("%w: %s: segment %d outside file", ErrBadImageData, r.name, i)
		}
	}
	return offsets, counts, nil
}

func (r *Reader) decodeUncompressed(info *Info, offsets, counts []int64, dst []byte) error {
	expectedIn := info.PaddedWidth * info.PaddedHeight * info.BitDepth / 8
	in, out := 0, 0

	for i := range offsets {
		n := min(int(counts[i]), expectedIn-in)
		if n <= 0 {
			break
		}
		src := r.data[offsets[i] : offsets[i]+int64(n)]

		switch info.BitDepth {
		case 8:
			out += copy(dst[out:], src)
		case 16:
			c := copy(dst[out:], src)
			if r.order == binary.BigEndian {
				swap16(dst[out : out+c])
			}
			out += c
		case 12:
			out += Unpack12To16(dst[out:], src)
		case 14:
			out += Unpack14To16(dst[out:], src)
		default:
			return fmt.Errorf("%w: %s: %d-bit uncompressed", ErrUnsupportedBitDepth, r.name, info.BitDepth)
		}
		in += n
	}

	if out != len(dst) {
		return fmt.Errorf("%w: %s: decoded %d bytes, expected %d", ErrBadImageData, r.name, out, len(dst))
	}
	return nil
}

// decodeCompressed decodes every segment concurrently; each one owns a
// disjoint slice of dst.
func (r *Reader) decodeCompressed(info *Info, offsets, counts []int64, dst []byte, codec Codec) error {
	segW, segH := info.TileWidth, info.TileHeight
	if !info.Tiled {
		segW, segH = info.PaddedWidth, info.PaddedHeight/len(offsets)
	}
	segSize := segW * segH * info.DecodedBitDepth / 8
	if segSize*len(offsets) != len(dst) {
		return fmt.Errorf("%w: %s: %d segments of %d bytes do not fill %d", ErrBadImageData, r.name, len(offsets), segSize, len(dst))
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := range offsets {
		g.Go(func() error {
			src := r.data[offsets[i] : offsets[i]+counts[i]]
			out := dst[i*segSize : (i+1)*segSize]
			if err := codec.Decode(out, src, segW, segH, info.BitDepth); err != nil {
				return fmt.Errorf("%w: %s: segment %d: %v", ErrBadImageData, r.name, i, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func swap16(b []byte) {
	for i := 0; i+1 < len(b); i += 2 {
		b[i], b[i+1] = b[i+1], b[i]
	}
}
