package playback

import (
	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/timecode"
)

// GenerateTimeCode synthesizes the timecode of frame n: its offset from
// the first frame, plus the clip's start timecode when it has one.
// Drop-frame counting follows the start timecode, or the rate when there
// is none.
func GenerateTimeCode(md *clip.Metadata, n uint32) timecode.TimeCode {
	rate := md.FrameRate()

	var frames uint64
	if n > md.FirstFrame {
		frames = uint64(n - md.FirstFrame)
	}
	if md.StartTimeCode == nil {
		return timecode.FromFramesAuto(frames, rate)
	}

	frames += md.StartTimeCode.TotalFrames(rate)
	return timecode.FromFrames(frames, rate, md.StartTimeCode.DropFrame)
}
