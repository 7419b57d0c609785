package gstpreview

import (
	"image"
	"testing"

	"github.com/e7canasta/rawplay/modules/timecode"
)

func TestBlitTiles(t *testing.T) {
	// 4x2 raster, 8-bit, assembled from two 2x2 tiles stored back to back
	src := []byte{
		1, 2, 3, 4, // tile 0 rows
		5, 6, 7, 8, // tile 1 rows
	}
	dst := make([]byte, 8)

	if err := blit(dst, 4, image.Pt(0, 0), image.Pt(2, 2), src, 0, 1); err != nil {
		t.Fatalf("blit tile 0: %v", err)
	}
	if err := blit(dst, 4, image.Pt(2, 0), image.Pt(2, 2), src, 4, 1); err != nil {
		t.Fatalf("blit tile 1: %v", err)
	}

	want := []byte{1, 2, 5, 6, 3, 4, 7, 8}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("raster mismatch at %d: got %v, want %v", i, dst, want)
		}
	}
}

func TestBlit16Bit(t *testing.T) {
	src := []byte{0x01, 0x02, 0x03, 0x04}
	dst := make([]byte, 8) // 2x2 at 16 bits

	if err := blit(dst, 4, image.Pt(1, 1), image.Pt(1, 1), src, 2, 2); err != nil {
		t.Fatalf("blit failed: %v", err)
	}
	if dst[6] != 0x03 || dst[7] != 0x04 {
		t.Errorf("expected last pixel 0x0403, got %v", dst)
	}
}

func TestBlitBounds(t *testing.T) {
	dst := make([]byte, 8)
	cases := []struct {
		name   string
		origin image.Point
		size   image.Point
		src    []byte
		offset int
	}{
		{"too wide", image.Pt(3, 0), image.Pt(2, 1), make([]byte, 2), 0},
		{"too tall", image.Pt(0, 1), image.Pt(4, 2), make([]byte, 8), 0},
		{"short source", image.Pt(0, 0), image.Pt(2, 2), make([]byte, 3), 0},
		{"negative origin", image.Pt(-1, 0), image.Pt(1, 1), make([]byte, 1), 0},
		{"empty block", image.Pt(0, 0), image.Pt(0, 1), nil, 0},
	}
	for _, c := range cases {
		if err := blit(dst, 4, c.origin, c.size, c.src, c.offset, 1); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestBuildCaps(t *testing.T) {
	caps, err := buildCaps(PipelineConfig{Width: 1920, Height: 1080, DecodedBitDepth: 16, Framerate: timecode.FPS24})
	if err != nil {
		t.Fatalf("buildCaps failed: %v", err)
	}
	want := "video/x-raw,format=GRAY16_LE,width=1920,height=1080,framerate=24/1"
	if caps != want {
		t.Errorf("got %q, want %q", caps, want)
	}

	// Missing rate falls back to 23.976
	caps, _ = buildCaps(PipelineConfig{Width: 8, Height: 4, DecodedBitDepth: 8})
	if caps != "video/x-raw,format=GRAY8,width=8,height=4,framerate=24000/1001" {
		t.Errorf("unexpected default caps %q", caps)
	}

	if _, err := buildCaps(PipelineConfig{Width: 8, Height: 4, DecodedBitDepth: 12}); err == nil {
		t.Error("expected error for 12-bit frames")
	}
	if _, err := buildCaps(PipelineConfig{Width: 0, Height: 4, DecodedBitDepth: 8}); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestClassifyMessage(t *testing.T) {
	cases := []struct {
		msg, debug string
		want       ErrorCategory
	}{
		{"Internal data stream error.", "streaming stopped, reason not-negotiated (not negotiated)", ErrCategoryCodec},
		{"Could not open display", "", ErrCategoryResource},
		{"Resource busy", "", ErrCategoryResource},
		{"Something odd", "", ErrCategoryUnknown},
	}
	for _, c := range cases {
		if got := classifyMessage(c.msg, c.debug); got != c.want {
			t.Errorf("classifyMessage(%q) = %s, want %s", c.msg, got, c.want)
		}
	}
	if ClassifyGStreamerError(nil) != ErrCategoryUnknown {
		t.Error("nil error should be unknown")
	}
	if ErrCategoryCodec.String() != "codec" || ErrCategoryResource.String() != "resource" || ErrorCategory(9).String() != "unknown" {
		t.Error("unexpected category strings")
	}
}

func TestErrorCounters(t *testing.T) {
	var c ErrorCounters
	c.add(ErrCategoryCodec)
	c.add(ErrCategoryCodec)
	c.add(ErrCategoryResource)
	c.add(ErrCategoryUnknown)
	s := c.Snapshot()
	if s.Codec != 2 || s.Resource != 1 || s.Unknown != 1 {
		t.Errorf("unexpected counters %+v", s)
	}
}
