package clip

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SequencingField locates the frame number inside a frame's file name.
type SequencingField struct {
	Position int
	Length   int
}

// findSequencingField scans name backward for the last run of digits.
func findSequencingField(name string) (SequencingField, bool) {
	end := -1
	for i := len(name) - 1; i >= 0; i-- {
		digit := name[i] >= '0' && name[i] <= '9'
		if digit && end < 0 {
			end = i + 1
		}
		if !digit && end >= 0 {
			return SequencingField{Position: i + 1, Length: end - i - 1}, true
		}
	}
	if end > 0 {
		return SequencingField{Position: 0, Length: end}, true
	}
	return SequencingField{}, false
}

// format writes n into template at the field, zero padded.
func (f SequencingField) format(template string, n uint32) (string, error) {
	digits := fmt.Sprintf("%0*d", f.Length, n)
	if len(digits) != f.Length {
		return "", fmt.Errorf("%w: %d does not fit %d digits", ErrBadFrameIndex, n, f.Length)
	}
	return template[:f.Position] + digits + template[f.Position+f.Length:], nil
}

// parse reads the frame number at the field of name.
func (f SequencingField) parse(name string) (uint32, error) {
	if len(name) < f.Position+f.Length {
		return 0, fmt.Errorf("%w: %q too short", ErrBadFrameIndex, name)
	}
	n, err := strconv.ParseUint(name[f.Position:f.Position+f.Length], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadFrameIndex, name, err)
	}
	return uint32(n), nil
}

// isFrameName reports whether a directory entry is a DNG frame. AppleDouble
// "._" companions are skipped.
func isFrameName(name string) bool {
	return strings.EqualFold(extension(name), ".dng") && !strings.HasPrefix(name, "._")
}

func extension(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}

// listFrames returns the sorted frame file names in dir.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isFrameName(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// hasFrames reports whether dir directly contains at least one frame.
func hasFrames(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Type().IsRegular() && isFrameName(e.Name()) {
			return true
		}
	}
	return false
}
