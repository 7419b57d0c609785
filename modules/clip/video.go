package clip

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// video is a single-file Blackmagic RAW clip. Only discovery is
// supported; reading frames is not.
type video struct {
	file string
}

func (v *video) essence() Essence { return EssenceVideo }

func (v *video) validate() error {
	st, err := os.Stat(v.file)
	if err != nil || !st.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrBadPath, v.file)
	}
	return nil
}

func (v *video) sequencingField() (SequencingField, bool) { return SequencingField{}, false }

func (v *video) readMetadata() (*Metadata, error) {
	return nil, fmt.Errorf("%w: metadata for %s", ErrNotImplemented, filepath.Base(v.file))
}

func (v *video) framePath(uint32) (string, error) {
	return v.file, nil
}

func (v *video) frameNumber(string) (uint32, error) {
	return 0, fmt.Errorf("%w: frame numbers of a video clip", ErrNotImplemented)
}

func (v *video) siblings() ([]string, error) {
	dir := filepath.Dir(v.file)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.EqualFold(filepath.Ext(e.Name()), ".braw") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

func (v *video) decoder(*Metadata, Codec) DecodeFunc {
	// Unreachable: metadata can never be read for a video clip.
	return nil
}
