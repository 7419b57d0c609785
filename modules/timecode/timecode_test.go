package timecode

import (
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromFramesNonDrop(t *testing.T) {
	tc := FromFrames(24*3600+24*61+5, FPS24, false)
	assert.Equal(t, TimeCode{Hours: 1, Minutes: 1, Seconds: 1, Frames: 5}, tc)
	assert.Equal(t, "01:01:01:05", tc.String())
}

func TestFromFramesDropFrame2997(t *testing.T) {
	cases := []struct {
		frames uint64
		want   string
	}{
		{0, "00:00:00;00"},
		{1799, "00:00:59;29"},
		{1800, "00:01:00;02"},
		{17982, "00:10:00;00"},
		{17982 + 1800, "00:11:00;02"},
	}
	for _, c := range cases {
		tc := FromFramesAuto(c.frames, FPS2997)
		assert.Equal(t, c.want, tc.String(), "frames=%d", c.frames)
		assert.Equal(t, c.frames, tc.TotalFrames(FPS2997), "round trip frames=%d", c.frames)
	}
}

func TestFromFramesDropFrame5994(t *testing.T) {
	tc := FromFramesAuto(3600, FPS5994)
	assert.Equal(t, "00:01:00;04", tc.String())
	assert.Equal(t, uint64(3600), tc.TotalFrames(FPS5994))
}

func TestDropFrameIgnoredForIntegerRates(t *testing.T) {
	tc := FromFrames(100, FPS25, true)
	assert.False(t, tc.DropFrame)
	assert.Equal(t, "00:00:04:00", tc.String())
}

// TestTotalFramesRoundTrip checks FromFrames/TotalFrames are inverse for every
// supported rate, drop-frame or not.
func TestTotalFramesRoundTrip(t *testing.T) {
	rates := []Rational{FPS23976, FPS24, FPS25, FPS2997, FPS30, FPS5994, FPS60}
	for _, rate := range rates {
		rate := rate
		f := func(n uint32) bool {
			frames := uint64(n % 5_000_000)
			return FromFramesAuto(frames, rate).TotalFrames(rate) == frames
		}
		if err := quick.Check(f, nil); err != nil {
			t.Errorf("rate %s: %v", rate, err)
		}
	}
}

func TestSMPTERoundTrip(t *testing.T) {
	want := TimeCode{Hours: 13, Minutes: 42, Seconds: 7, Frames: 23, DropFrame: true}
	got, err := DecodeSMPTE(EncodeSMPTE(want))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = DecodeSMPTE([]byte{0, 1})
	assert.Error(t, err)
}

func TestParseRational(t *testing.T) {
	cases := map[string]Rational{
		"24000/1001": FPS23976,
		"23.976":     FPS23976,
		"29.97":      FPS2997,
		"25":         FPS25,
		" 60/1 ":     FPS60,
	}
	for in, want := range cases {
		got, err := ParseRational(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "0", "x/1", "24/0", "-5"} {
		_, err := ParseRational(bad)
		assert.Error(t, err, bad)
	}
}

func TestFrameTime(t *testing.T) {
	assert.Equal(t, 40*time.Millisecond, FPS25.Interval())
	// 1001 frames at 23.976 is exactly 1001*1001/24000 s
	assert.Equal(t, time.Duration(1001*1001*int64(time.Second)/24000), FPS23976.FrameTime(1001))
	assert.Equal(t, time.Duration(0), Rational{}.FrameTime(10))
}
