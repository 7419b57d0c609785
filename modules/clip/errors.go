package clip

import (
	"errors"
	"strings"

	"github.com/e7canasta/rawplay/modules/clip/internal/dng"
)

var (
	ErrBadPath          = errors.New("clip: bad path")
	ErrClipNotValidated = errors.New("clip: clip not validated")
	ErrNoVideoStream    = errors.New("clip: no sequenceable frames")
	ErrBadMetadata      = errors.New("clip: bad metadata")
	ErrBadFrameIndex    = errors.New("clip: bad frame index")
	ErrFrameNotPresent  = errors.New("clip: frame not present")
	ErrBadFrame         = errors.New("clip: bad frame")
	ErrNotImplemented   = errors.New("clip: not implemented")

	// Frame decode errors surfaced from the DNG reader.
	ErrBadImageData           = dng.ErrBadImageData
	ErrUnsupportedCompression = dng.ErrUnsupportedCompression
	ErrUnsupportedBitDepth    = dng.ErrUnsupportedBitDepth
)

// Category groups errors by how the player reacts to them.
type Category int

const (
	// CategoryConfiguration errors are fatal to opening a clip
	CategoryConfiguration Category = iota
	// CategoryFrameDecode errors are recorded on a frame; playback continues
	CategoryFrameDecode
	// CategoryResource errors are transient; the caller may retry later
	CategoryResource
	// CategoryInvariant errors indicate a defect and are only logged
	CategoryInvariant
	// CategoryUnknown errors could not be classified
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryConfiguration:
		return "configuration"
	case CategoryFrameDecode:
		return "frame_decode"
	case CategoryResource:
		return "resource"
	case CategoryInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Classify maps an error from the clip, stream or playback layers to a
// Category.
//
// Sentinels from this package are matched with errors.Is. Errors from
// other packages are matched on their message, which carries the
// originating package prefix and a stable description.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch {
	case errors.Is(err, ErrBadPath),
		errors.Is(err, ErrClipNotValidated),
		errors.Is(err, ErrNoVideoStream),
		errors.Is(err, ErrBadMetadata),
		errors.Is(err, ErrNotImplemented),
		errors.Is(err, dng.ErrBadMetadata):
		return CategoryConfiguration
	case errors.Is(err, ErrFrameNotPresent),
		errors.Is(err, ErrBadFrame),
		errors.Is(err, ErrBadFrameIndex),
		errors.Is(err, dng.ErrBadFile),
		errors.Is(err, dng.ErrBadImageData),
		errors.Is(err, dng.ErrUnsupportedCompression),
		errors.Is(err, dng.ErrUnsupportedBitDepth):
		return CategoryFrameDecode
	}

	msg := strings.ToLower(err.Error())

	// Invariant first: those messages may also mention resources.
	if containsAny(msg, invariantKeywords) {
		return CategoryInvariant
	}
	if containsAny(msg, resourceKeywords) {
		return CategoryResource
	}
	if containsAny(msg, decodeKeywords) {
		return CategoryFrameDecode
	}
	return CategoryUnknown
}

var (
	invariantKeywords = []string{
		"invariant",
		"untracked frame",
		"not tracked",
	}
	resourceKeywords = []string{
		"buffer full",
		"out of range",
		"stream closed",
		"too many open files",
		"no space left",
		"deadline exceeded",
	}
	decodeKeywords = []string{
		"decode",
		"corrupt",
		"huffman",
		"unexpected eof",
	}
)

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
