package timecode

import "fmt"

// TimeCode is an HH:MM:SS:FF address. DropFrame marks NTSC drop-frame
// counting, where frame numbers 0 and 1 (0-3 at 59.94) are skipped at the
// start of every minute that is not a multiple of ten.
type TimeCode struct {
	Hours     int
	Minutes   int
	Seconds   int
	Frames    int
	DropFrame bool
}

// dropFrameParams returns the frames dropped per minute and the real frame
// count of ten minutes for rates that support drop-frame counting.
func dropFrameParams(rate Rational) (drop, per10Min int64, ok bool) {
	switch rate {
	case FPS2997:
		return 2, 17982, true
	case FPS5994:
		return 4, 35964, true
	}
	return 0, 0, false
}

// SupportsDropFrame reports whether rate has a drop-frame counting mode.
func SupportsDropFrame(rate Rational) bool {
	_, _, ok := dropFrameParams(rate)
	return ok
}

// FromFrames converts an absolute frame count into a timecode. Drop-frame
// counting is used for 29.97 and 59.94 when dropFrame is true; for other
// rates the flag is ignored.
func FromFrames(frames uint64, rate Rational, dropFrame bool) TimeCode {
	if !rate.Valid() {
		return TimeCode{}
	}

	fps := int64(rate.Rounded())
	n := int64(frames)

	drop, per10Min, ok := dropFrameParams(rate)
	if dropFrame && ok {
		d := n / per10Min
		m := n % per10Min
		n += 9*drop*d + drop*((m-drop)/(per10Min/10))
	} else {
		dropFrame = false
	}

	totalSeconds := n / fps
	totalMinutes := totalSeconds / 60
	return TimeCode{
		Hours:     int(totalMinutes / 60),
		Minutes:   int(totalMinutes % 60),
		Seconds:   int(totalSeconds % 60),
		Frames:    int(n % fps),
		DropFrame: dropFrame,
	}
}

// FromFramesAuto is FromFrames with drop-frame enabled whenever the rate supports it.
func FromFramesAuto(frames uint64, rate Rational) TimeCode {
	return FromFrames(frames, rate, SupportsDropFrame(rate))
}

// TotalFrames converts the timecode back into an absolute frame count at rate.
func (tc TimeCode) TotalFrames(rate Rational) uint64 {
	if !rate.Valid() {
		return 0
	}

	fps := int64(rate.Rounded())
	minutes := int64(tc.Hours*60 + tc.Minutes)
	total := minutes*60*fps + int64(tc.Seconds)*fps + int64(tc.Frames)

	if drop, _, ok := dropFrameParams(rate); tc.DropFrame && ok {
		total -= drop * (minutes - minutes/10)
	}
	if total < 0 {
		return 0
	}
	return uint64(total)
}

// String formats the timecode; drop-frame timecodes use ';' before the frame field.
func (tc TimeCode) String() string {
	sep := ":"
	if tc.DropFrame {
		sep = ";"
	}
	return fmt.Sprintf("%02d:%02d:%02d%s%02d", tc.Hours, tc.Minutes, tc.Seconds, sep, tc.Frames)
}
