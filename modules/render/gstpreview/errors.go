package gstpreview

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies preview pipeline errors for telemetry.
type ErrorCategory int

const (
	// ErrCategoryResource: the sink or display is unavailable
	ErrCategoryResource ErrorCategory = iota
	// ErrCategoryCodec: caps negotiation or format conversion failed
	ErrCategoryCodec
	ErrCategoryUnknown
)

func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryCodec:
		return "codec"
	default:
		return "unknown"
	}
}

// ClassifyGStreamerError categorizes a bus error.
// go-gst's GError does not expose Domain(), so classification is by message.
func ClassifyGStreamerError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return classifyMessage(gerr.Error(), gerr.DebugString())
}

func classifyMessage(errMsg, debugStr string) ErrorCategory {
	combined := strings.ToLower(errMsg + " " + debugStr)

	// Codec first: "could not open" style resource messages rarely
	// mention caps, negotiation failures always do.
	if containsAny(combined, codecKeywords) {
		return ErrCategoryCodec
	}
	if containsAny(combined, resourceKeywords) {
		return ErrCategoryResource
	}
	return ErrCategoryUnknown
}

var codecKeywords = []string{
	"not negotiated",
	"negotiation",
	"caps",
	"format",
	"convert",
	"missing plugin",
}

var resourceKeywords = []string{
	"could not open",
	"display",
	"resource",
	"busy",
	"no such element",
	"permission",
	"device",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
