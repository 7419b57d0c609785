// Package timecode provides frame-rate rationals and SMPTE timecodes for
// frame-accurate playback.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Rational is a frame rate expressed as Numerator/Denominator frames per second.
type Rational struct {
	Numerator   int
	Denominator int
}

// Common frame rates.
var (
	FPS23976 = Rational{24000, 1001}
	FPS24    = Rational{24, 1}
	FPS25    = Rational{25, 1}
	FPS2997  = Rational{30000, 1001}
	FPS30    = Rational{30, 1}
	FPS50    = Rational{50, 1}
	FPS5994  = Rational{60000, 1001}
	FPS60    = Rational{60, 1}
)

// DefaultFramerate is used when a clip does not carry a frame rate.
var DefaultFramerate = FPS23976

// IsZero reports whether the rate has a zero numerator.
func (r Rational) IsZero() bool { return r.Numerator == 0 }

// IsInfinity reports whether the rate has a zero denominator and non-zero numerator.
func (r Rational) IsInfinity() bool { return r.Numerator != 0 && r.Denominator == 0 }

// Valid reports whether the rate can drive a timer.
func (r Rational) Valid() bool {
	return r.Numerator > 0 && r.Denominator > 0
}

// Float returns the rate as frames per second.
func (r Rational) Float() float64 {
	return float64(r.Numerator) / float64(r.Denominator)
}

// Rounded returns the nominal integer rate used for timecode arithmetic (29.97 → 30).
func (r Rational) Rounded() int {
	return int(math.Round(r.Float()))
}

// Interval returns the duration of a single frame.
func (r Rational) Interval() time.Duration {
	return r.FrameTime(1)
}

// FrameTime returns the presentation offset of the given frame count,
// computed as count·den/num so long runs do not accumulate rounding drift.
func (r Rational) FrameTime(count int64) time.Duration {
	if !r.Valid() {
		return 0
	}
	return time.Duration(count * int64(r.Denominator) * int64(time.Second) / int64(r.Numerator))
}

// String formats the rate as "num/den".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// ParseRational parses "24000/1001", "25" or "23.976".
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return Rational{}, fmt.Errorf("timecode: invalid rate numerator %q: %w", num, err)
		}
		d, err := strconv.Atoi(strings.TrimSpace(den))
		if err != nil {
			return Rational{}, fmt.Errorf("timecode: invalid rate denominator %q: %w", den, err)
		}
		r := Rational{n, d}
		if !r.Valid() {
			return Rational{}, fmt.Errorf("timecode: invalid rate %q", s)
		}
		return r, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return Rational{}, fmt.Errorf("timecode: invalid rate %q", s)
	}

	// NTSC rates are written loosely as 23.976, 29.97, 59.94
	for _, r := range []Rational{FPS23976, FPS2997, FPS5994} {
		if math.Abs(r.Float()-f) < 0.01 {
			return r, nil
		}
	}
	if f == math.Trunc(f) {
		return Rational{int(f), 1}, nil
	}
	return Rational{int(math.Round(f * 1000)), 1000}, nil
}
