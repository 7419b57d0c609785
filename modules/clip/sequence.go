package clip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/e7canasta/rawplay/modules/clip/internal/dng"
)

// sequence is a CinemaDNG folder: one DNG per frame.
type sequence struct {
	dir   string
	field SequencingField
	first string // first frame name; template for FramePath
	last  string
}

func (s *sequence) essence() Essence { return EssenceSequence }

func (s *sequence) validate() error {
	names, err := listFrames(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPath, err)
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no .dng files in %s", ErrNoVideoStream, s.dir)
	}
	field, ok := findSequencingField(names[0])
	if !ok {
		return fmt.Errorf("%w: %s has no frame number", ErrNoVideoStream, names[0])
	}
	s.field = field
	s.first, s.last = names[0], names[len(names)-1]
	return nil
}

func (s *sequence) sequencingField() (SequencingField, bool) { return s.field, true }

func (s *sequence) framePath(n uint32) (string, error) {
	name, err := s.field.format(s.first, n)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

func (s *sequence) frameNumber(path string) (uint32, error) {
	return s.field.parse(filepath.Base(path))
}

func (s *sequence) readMetadata() (*Metadata, error) {
	path := filepath.Join(s.dir, s.first)
	r, err := dng.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}
	info, err := r.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMetadata, err)
	}

	md, err := newMetadata(filepath.Base(s.dir), info)
	if err != nil {
		return nil, err
	}

	first, err := s.field.parse(s.first)
	if err != nil {
		return nil, err
	}
	last, err := s.field.parse(s.last)
	if err != nil {
		return nil, err
	}
	if last < first {
		return nil, fmt.Errorf("%w: last frame %d before first %d", ErrBadMetadata, last, first)
	}
	md.FirstFrame, md.LastFrame = first, last
	md.DurationFrames = last - first + 1
	return md, nil
}

func (s *sequence) siblings() ([]string, error) {
	return siblingDirs(s.dir)
}

func (s *sequence) decoder(md *Metadata, codec Codec) DecodeFunc {
	return func(ctx context.Context, n uint32, dst, scratch []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !md.Contains(n) {
			return fmt.Errorf("%w: %d outside %d-%d", ErrBadFrameIndex, n, md.FirstFrame, md.LastFrame)
		}
		path, err := s.framePath(n)
		if err != nil {
			return err
		}

		data, err := readFile(path, scratch)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrFrameNotPresent, path)
			}
			return fmt.Errorf("%w: %v", ErrBadFrame, err)
		}

		r, err := dng.Parse(path, data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		info, err := r.Info()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		if info.PaddedWidth != md.PaddedWidth || info.PaddedHeight != md.PaddedHeight || info.DecodedBitDepth != md.DecodedBitDepth {
			return fmt.Errorf("%w: %s is %dx%d %d-bit, clip is %dx%d %d-bit", ErrBadFrame, path,
				info.PaddedWidth, info.PaddedHeight, info.DecodedBitDepth,
				md.PaddedWidth, md.PaddedHeight, md.DecodedBitDepth)
		}
		return r.DecodeImage(info, dst, codec)
	}
}

// readFile reads path into buf when it is large enough, else into a new
// slice.
func readFile(path string, buf []byte) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := int(st.Size())
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
