package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/render"
	"github.com/e7canasta/rawplay/modules/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a monochrome 4x2 16-bit clip whose frames decode to their
// own number.
type fakeSource struct {
	md *clip.Metadata

	mu          sync.Mutex
	params      clip.RawParameters
	decoded     []uint32
	delay       map[uint32]time.Duration
	fail        map[uint32]error
	validateErr error
}

func newFakeSource(first, last uint32, rate timecode.Rational) *fakeSource {
	return &fakeSource{
		md: &clip.Metadata{
			Title:           "fake",
			FirstFrame:      first,
			LastFrame:       last,
			DurationFrames:  last - first + 1,
			Framerate:       &rate,
			Width:           4,
			Height:          2,
			PaddedWidth:     4,
			PaddedHeight:    2,
			BitDepth:        16,
			DecodedBitDepth: 16,
			Monochrome:      true,
			WhiteLevel:      65535,
		},
		delay: make(map[uint32]time.Duration),
		fail:  make(map[uint32]error),
	}
}

func (s *fakeSource) Path() string        { return "/clips/fake" }
func (s *fakeSource) Validate() error     { return s.validateErr }
func (s *fakeSource) ReadMetadata() error { return nil }

func (s *fakeSource) Metadata() *clip.Metadata { return s.md }

func (s *fakeSource) RawParameters() clip.RawParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *fakeSource) SetRawParameters(p clip.RawParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) Decoder(clip.Codec) (clip.DecodeFunc, error) {
	return func(ctx context.Context, n uint32, dst, _ []byte) error {
		s.mu.Lock()
		s.decoded = append(s.decoded, n)
		delay, err := s.delay[n], s.fail[n]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err != nil {
			return err
		}
		binary.LittleEndian.PutUint32(dst, n)
		return nil
	}, nil
}

func (s *fakeSource) decodedFrames() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.decoded...)
}

// eventLog is a Config.Observer that keeps every event.
type eventLog struct {
	mu     sync.Mutex
	events []eventbus.Event
	hook   func(eventbus.Event)
}

func (l *eventLog) observe(e eventbus.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	if l.hook != nil {
		l.hook(e)
	}
}

func (l *eventLog) all() []eventbus.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]eventbus.Event(nil), l.events...)
}

func (l *eventLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *eventLog) ofKind(kind eventbus.Kind) []eventbus.Event {
	var out []eventbus.Event
	for _, e := range l.all() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func newTestPlayer(t *testing.T, cfg Config) (*Player, *eventLog, *render.Recorder) {
	t.Helper()
	log := &eventLog{}
	rec := render.NewRecorder()
	cfg.Observer = log.observe
	if cfg.Backend == nil {
		cfg.Backend = rec
	}
	cfg.Session = "test-session"
	p := New(cfg)
	t.Cleanup(func() { p.Shutdown() })
	return p, log, rec
}

func waitState(t *testing.T, p *Player, want State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p.State() == want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state = %s after %v, want %s", p.State(), timeout, want)
}

func TestOpenEntersStopped(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 4})
	src := newFakeSource(0, 9, timecode.FPS24)

	require.NoError(t, p.Open(src))
	assert.Equal(t, StateStopped, p.State())
	assert.Same(t, src.md, p.Metadata())

	opened := log.ofKind(eventbus.KindClipOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, "/clips/fake", opened[0].Clip)
	assert.Equal(t, "test-session", opened[0].Session)

	changes := log.ofKind(eventbus.KindStateChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, "stopped", changes[0].State)
	assert.Equal(t, "empty", changes[0].PreviousState)
}

func TestOpenFailureLeavesEmpty(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{})
	src := newFakeSource(0, 9, timecode.FPS24)
	src.validateErr = clip.ErrClipNotValidated

	err := p.Open(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, clip.ErrClipNotValidated)
	assert.Equal(t, StateEmpty, p.State())
	assert.Nil(t, p.Source())

	assert.ErrorIs(t, p.Play(), ErrInvalidTransition)
	assert.ErrorIs(t, p.Seek(1), ErrNotOpen)
}

func TestOpenRejectsBadLayout(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{})
	src := newFakeSource(0, 9, timecode.FPS24)
	src.md.DecodedBitDepth = 12

	err := p.Open(src)
	assert.ErrorIs(t, err, render.ErrBadLayout)
	assert.Equal(t, StateEmpty, p.State())
}

// TestBufferingScenario plays a 24 fps clip with a depth of 6: frames 0..5
// are decoded before the first display tick, and the player reports
// Playing only after a frame was shown.
func TestBufferingScenario(t *testing.T) {
	p, log, rec := newTestPlayer(t, Config{BufferingDepth: 6})
	src := newFakeSource(0, 11, timecode.FPS24)

	var (
		decodedAtFirstDisplay []uint32
		once                  sync.Once
	)
	log.hook = func(e eventbus.Event) {
		if e.Kind == eventbus.KindFrameDisplayed {
			once.Do(func() { decodedAtFirstDisplay = src.decodedFrames() })
		}
	}

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Play())
	waitState(t, p, StatePausedEnd, 3*time.Second)

	for n := uint32(0); n <= 5; n++ {
		assert.Contains(t, decodedAtFirstDisplay, n, "frame %d decoded before the first display", n)
	}

	events := log.all()
	firstDisplay, playing := -1, -1
	for i, e := range events {
		if e.Kind == eventbus.KindFrameDisplayed && firstDisplay < 0 {
			firstDisplay = i
			assert.Equal(t, uint32(0), e.Frame)
			assert.Equal(t, "00:00:00:00", e.TimeCode)
		}
		if e.Kind == eventbus.KindStateChanged && e.State == "playing" && playing < 0 {
			playing = i
		}
	}
	require.GreaterOrEqual(t, firstDisplay, 0, "no frame displayed")
	require.GreaterOrEqual(t, playing, 0, "never entered playing")
	assert.Greater(t, playing, firstDisplay, "playing before the first display")

	last := events[len(events)-1]
	assert.Equal(t, eventbus.KindStateChanged, last.Kind)
	assert.Equal(t, "paused_end", last.State)

	presented := rec.Presented()
	require.NotEmpty(t, presented)
	assert.Equal(t, uint32(11), presented[len(presented)-1])

	st := p.Status()
	require.NotNil(t, st.LastDisplayed)
	assert.Equal(t, uint32(11), *st.LastDisplayed)
	assert.Equal(t, "paused_end", st.State)
	assert.Equal(t, uint64(12), st.Counters.Requested)
	t.Logf("displayed=%d skipped=%d missing=%d fps=%.2f",
		st.Counters.Displayed, st.Counters.Skipped, st.Counters.Missing, st.Display.FPSMean)
}

func TestDecodeFailureIsMissingAndPlaybackContinues(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 3})
	src := newFakeSource(0, 7, timecode.Rational{Numerator: 100, Denominator: 1})
	src.fail[3] = errors.New("corrupt frame")

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Play())
	waitState(t, p, StatePausedEnd, 3*time.Second)

	var found bool
	for _, e := range log.ofKind(eventbus.KindFrameMissing) {
		if e.Frame == 3 && e.Error == "corrupt frame" {
			found = true
		}
	}
	assert.True(t, found, "no missing event for frame 3")
	assert.GreaterOrEqual(t, p.Status().Counters.Missing, uint64(1))
}

// TestDisplayFallsBackToNearestEarlierFrame: with {2, 5, 9} ready and the
// display cursor on 7, the tick shows 5 as a skip and leaves 9 alone.
func TestDisplayFallsBackToNearestEarlierFrame(t *testing.T) {
	p, log, rec := newTestPlayer(t, Config{BufferingDepth: 4})
	src := newFakeSource(0, 11, timecode.FPS24)
	require.NoError(t, p.Open(src))

	for _, n := range []uint32{2, 5, 9} {
		p.stream.RequestFrame(n)
	}
	require.Eventually(t, func() bool {
		ready := p.stream.ReadyFrames()
		return len(ready) == 3 && ready[0] == 2 && ready[1] == 5 && ready[2] == 9
	}, 2*time.Second, time.Millisecond, "frames 2, 5 and 9 never became ready")

	p.mu.Lock()
	p.state = StatePlaying
	p.displayCursor = 7
	p.onDisplay()
	skipped := p.counters.Skipped
	displayed := p.counters.Displayed
	nextCursor := p.displayCursor
	// Back to a state that runs no timers, so cleanup closes normally.
	p.state = StateStopped
	p.mu.Unlock()

	assert.Equal(t, []uint32{5}, rec.Presented())
	require.Len(t, rec.Uploads(), 1)

	skips := log.ofKind(eventbus.KindFrameSkipped)
	require.Len(t, skips, 1)
	assert.Equal(t, uint32(7), skips[0].Frame)
	assert.Equal(t, uint32(5), skips[0].Actual)
	assert.Equal(t, "00:00:00:05", skips[0].TimeCode)
	assert.Empty(t, log.ofKind(eventbus.KindFrameDisplayed))

	assert.Equal(t, uint64(1), skipped)
	assert.Equal(t, uint64(0), displayed)
	assert.Equal(t, uint32(8), nextCursor)

	// 5 went back on display, 2 was reclaimed as stale; 9 is still ahead.
	assert.Equal(t, []uint32{9}, p.stream.ReadyFrames())
}

func TestPauseIsQuiescent(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 4})
	src := newFakeSource(0, 10000, timecode.Rational{Numerator: 200, Denominator: 1})

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Play())
	waitState(t, p, StatePlaying, 2*time.Second)

	require.NoError(t, p.Pause())
	assert.Equal(t, StatePaused, p.State())
	n := log.count()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, log.count(), "events after Pause returned")

	st := p.Status()
	require.NotNil(t, st.LastDisplayed)
	resumeAt := *st.LastDisplayed
	require.NotNil(t, st.Stream)
	assert.Equal(t, 0, st.Stream.Ready, "pause keeps ready frames")

	before := log.count()
	require.NoError(t, p.Play())
	waitState(t, p, StatePlaying, 2*time.Second)
	require.NoError(t, p.Stop())
	assert.Equal(t, StateStopped, p.State())

	var first *eventbus.Event
	for _, e := range log.all()[before:] {
		switch e.Kind {
		case eventbus.KindFrameDisplayed, eventbus.KindFrameSkipped, eventbus.KindFrameMissing:
			if first == nil {
				e := e
				first = &e
			}
		}
	}
	require.NotNil(t, first, "no display tick after resuming")
	assert.Equal(t, resumeAt, first.Frame, "did not resume at the paused frame")

	st = p.Status()
	assert.Nil(t, st.RequestCursor)
	assert.Nil(t, st.DisplayCursor)
	assert.Nil(t, st.LastDisplayed)
}

func TestSeek(t *testing.T) {
	p, log, rec := newTestPlayer(t, Config{BufferingDepth: 4})
	src := newFakeSource(10, 40, timecode.FPS25)

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Seek(17))
	assert.Equal(t, StatePaused, p.State())

	done := log.ofKind(eventbus.KindSeekCompleted)
	require.Len(t, done, 1)
	assert.Equal(t, uint32(17), done[0].Frame)
	assert.Equal(t, "00:00:00:07", done[0].TimeCode)
	assert.Equal(t, []uint32{17}, rec.Presented())

	st := p.Status()
	require.NotNil(t, st.LastDisplayed)
	assert.Equal(t, uint32(17), *st.LastDisplayed)
	assert.Equal(t, uint64(1), st.Counters.SeeksComplete)

	require.NoError(t, p.Seek(40))
	assert.Equal(t, StatePausedEnd, p.State())

	assert.ErrorIs(t, p.Seek(41), ErrFrameOutOfRange)
	assert.ErrorIs(t, p.Seek(9), ErrFrameOutOfRange)
	assert.Equal(t, StatePausedEnd, p.State())
}

func TestSeekRejectedWhilePlaying(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{BufferingDepth: 2})
	src := newFakeSource(0, 10000, timecode.Rational{Numerator: 100, Denominator: 1})

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Play())
	assert.ErrorIs(t, p.Seek(5), ErrInvalidTransition)
	require.NoError(t, p.Stop())
}

func TestSeekTimeout(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{
		BufferingDepth: 2,
		SeekTimeout:    20 * time.Millisecond,
	})
	src := newFakeSource(0, 9, timecode.FPS24)
	src.delay[5] = 300 * time.Millisecond

	require.NoError(t, p.Open(src))
	err := p.Seek(5)
	assert.ErrorIs(t, err, ErrSeekTimeout)
	assert.Equal(t, StatePaused, p.State())
}

func TestSeekDecodeError(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 2})
	src := newFakeSource(0, 9, timecode.FPS24)
	boom := errors.New("boom")
	src.fail[3] = boom

	require.NoError(t, p.Open(src))
	err := p.Seek(3)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StatePaused, p.State())

	missing := log.ofKind(eventbus.KindFrameMissing)
	require.Len(t, missing, 1)
	assert.Equal(t, uint32(3), missing[0].Frame)
	assert.Empty(t, log.ofKind(eventbus.KindSeekCompleted))
}

func TestStopCancelsSeek(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{BufferingDepth: 2, SeekTimeout: 5 * time.Second})
	src := newFakeSource(0, 9, timecode.FPS24)
	src.delay[4] = 200 * time.Millisecond

	require.NoError(t, p.Open(src))

	errc := make(chan error, 1)
	go func() { errc <- p.Seek(4) }()
	waitState(t, p, StatePausedSeeking, time.Second)

	assert.ErrorIs(t, p.Seek(5), ErrSeekActive)
	require.NoError(t, p.Stop())

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSeekCancelled)
	case <-time.After(2 * time.Second):
		t.Fatal("seek did not return after Stop")
	}
	assert.Equal(t, StateStopped, p.State())
}

func TestPlayFromPausedEndRestarts(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 2})
	src := newFakeSource(0, 5, timecode.Rational{Numerator: 100, Denominator: 1})

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Seek(5))
	require.Equal(t, StatePausedEnd, p.State())

	require.NoError(t, p.Play())
	waitState(t, p, StatePausedEnd, 2*time.Second)

	displayed := log.ofKind(eventbus.KindFrameDisplayed)
	require.NotEmpty(t, displayed)
	assert.Equal(t, uint32(0), displayed[0].Frame)
}

func TestCloseWhilePlaying(t *testing.T) {
	p, log, _ := newTestPlayer(t, Config{BufferingDepth: 3})
	src := newFakeSource(0, 10000, timecode.Rational{Numerator: 100, Denominator: 1})

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Play())
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, p.Close())
	assert.Equal(t, StateEmpty, p.State())
	assert.Nil(t, p.Metadata())

	closed := log.ofKind(eventbus.KindClipClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, "/clips/fake", closed[0].Clip)

	n := log.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, log.count(), "events after Close returned")

	require.NoError(t, p.Close())
}

func TestSetRawParametersRepresentsPausedFrame(t *testing.T) {
	p, _, rec := newTestPlayer(t, Config{BufferingDepth: 2})
	src := newFakeSource(0, 9, timecode.FPS24)

	require.NoError(t, p.Open(src))
	require.NoError(t, p.Seek(2))

	ev := 1.5
	require.NoError(t, p.SetRawParameters(clip.RawParameters{Exposure: &ev}))
	assert.Equal(t, []uint32{2, 2}, rec.Presented())

	v, ok := rec.Uniform(render.UniformExposure)
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-6)
}

func TestSetVelocity(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{})
	assert.ErrorIs(t, p.SetVelocity(Backward), ErrNotImplemented)
	require.NoError(t, p.SetVelocity(Forward))
	assert.Equal(t, Forward, p.Velocity())
}

func TestSubscribeReceivesEvents(t *testing.T) {
	p, _, _ := newTestPlayer(t, Config{})
	ch := make(chan eventbus.Event, 16)
	require.NoError(t, p.Subscribe("test", ch))

	require.NoError(t, p.Open(newFakeSource(0, 3, timecode.FPS24)))

	select {
	case e := <-ch:
		assert.Equal(t, eventbus.KindClipOpened, e.Kind)
		assert.NotZero(t, e.Sequence)
	case <-time.After(time.Second):
		t.Fatal("no event on subscriber channel")
	}
	require.NoError(t, p.Unsubscribe("test"))
}
