package playback

import (
	"math"
	"time"
)

const (
	// fpsStabilityThreshold: stable if stddev < 15% of mean FPS
	fpsStabilityThreshold = 0.15

	// jitterStabilityThreshold: stable if mean jitter < 20% of the expected interval
	jitterStabilityThreshold = 0.20

	// timingWindowSize bounds how many presentation timestamps are kept
	timingWindowSize = 240
)

// DisplayStats describes presentation timing over the recent window.
type DisplayStats struct {
	FramesPresented int           `json:"frames_presented"`
	Duration        time.Duration `json:"duration"`
	FPSMean         float64       `json:"fps_mean"`
	FPSStdDev       float64       `json:"fps_stddev"`
	FPSMin          float64       `json:"fps_min"`
	FPSMax          float64       `json:"fps_max"`
	IsStable        bool          `json:"is_stable"`

	JitterMean   float64 `json:"jitter_mean"` // seconds
	JitterStdDev float64 `json:"jitter_stddev"`
	JitterMax    float64 `json:"jitter_max"`
}

// CalculateDisplayStats computes presentation statistics from frame
// timestamps.
//
//  1. Mean FPS over totalDuration
//  2. Instantaneous FPS per interval, with min/max/stddev
//  3. Jitter: deviation of each interval from 1/mean
//  4. Stable: stddev < 15% of mean AND mean jitter < 20% of the interval
func CalculateDisplayStats(frameTimes []time.Time, totalDuration time.Duration) DisplayStats {
	n := len(frameTimes)
	if n == 0 || totalDuration <= 0 {
		return DisplayStats{FramesPresented: n, Duration: totalDuration}
	}

	fpsMean := float64(n) / totalDuration.Seconds()

	instantaneous := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if interval := frameTimes[i].Sub(frameTimes[i-1]).Seconds(); interval > 0 {
			instantaneous = append(instantaneous, 1.0/interval)
		}
	}
	if len(instantaneous) == 0 {
		return DisplayStats{FramesPresented: n, Duration: totalDuration, FPSMean: fpsMean}
	}

	fpsMin, fpsMax := instantaneous[0], instantaneous[0]
	var sumSquares float64
	for _, fps := range instantaneous {
		fpsMin = math.Min(fpsMin, fps)
		fpsMax = math.Max(fpsMax, fps)
		diff := fps - fpsMean
		sumSquares += diff * diff
	}
	fpsStdDev := math.Sqrt(sumSquares / float64(len(instantaneous)))

	expectedInterval := 1.0 / fpsMean
	jitters := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		actual := frameTimes[i].Sub(frameTimes[i-1]).Seconds()
		jitters = append(jitters, math.Abs(actual-expectedInterval))
	}

	var jitterSum, jitterMax float64
	for _, j := range jitters {
		jitterSum += j
		jitterMax = math.Max(jitterMax, j)
	}
	jitterMean := jitterSum / float64(len(jitters))

	var jitterSquares float64
	for _, j := range jitters {
		diff := j - jitterMean
		jitterSquares += diff * diff
	}
	jitterStdDev := math.Sqrt(jitterSquares / float64(len(jitters)))

	return DisplayStats{
		FramesPresented: n,
		Duration:        totalDuration,
		FPSMean:         fpsMean,
		FPSStdDev:       fpsStdDev,
		FPSMin:          fpsMin,
		FPSMax:          fpsMax,
		IsStable:        fpsStdDev < fpsMean*fpsStabilityThreshold && jitterMean < expectedInterval*jitterStabilityThreshold,
		JitterMean:      jitterMean,
		JitterStdDev:    jitterStdDev,
		JitterMax:       jitterMax,
	}
}

// timingWindow is a ring of the most recent presentation timestamps.
type timingWindow struct {
	times [timingWindowSize]time.Time
	next  int
	count int
}

func (w *timingWindow) add(t time.Time) {
	w.times[w.next] = t
	w.next = (w.next + 1) % len(w.times)
	if w.count < len(w.times) {
		w.count++
	}
}

func (w *timingWindow) reset() {
	w.next, w.count = 0, 0
}

// snapshot returns the timestamps oldest first.
func (w *timingWindow) snapshot() []time.Time {
	out := make([]time.Time, 0, w.count)
	start := (w.next - w.count + len(w.times)) % len(w.times)
	for i := 0; i < w.count; i++ {
		out = append(out, w.times[(start+i)%len(w.times)])
	}
	return out
}

// stats treats every presentation as owning one frame interval, so a
// perfectly periodic window reports exactly the nominal rate.
func (w *timingWindow) stats(interval time.Duration) DisplayStats {
	times := w.snapshot()
	if len(times) == 0 {
		return DisplayStats{}
	}
	span := times[len(times)-1].Sub(times[0]) + interval
	return CalculateDisplayStats(times, span)
}
