package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/colorpipeline"
	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/framestream"
	"github.com/e7canasta/rawplay/modules/render"
)

// Player drives one clip at a time through the playback state machine.
//
// All public methods and both timer callbacks run under one mutex, so
// they never interleave. Stop, Pause and Close return only after any
// in-flight timer tick has finished and no further tick can run.
type Player struct {
	cfg     Config
	bus     eventbus.Bus
	ownsBus bool

	mu    sync.Mutex
	state State

	src    Source
	md     *clip.Metadata
	stream framestream.Stream
	layout render.Layout
	target colorpipeline.Target

	sched    *scheduler
	interval time.Duration

	requestCursor uint32
	displayCursor uint32
	cursorsSet    bool

	lastDisplayed uint32
	hasDisplayed  bool

	requestDone bool // request cursor reached the last frame this cycle
	presented   bool // a frame was presented this cycle
	seekGen     uint64

	velocity Velocity
	timing   timingWindow
	counters Counters
	dropped  atomic.Uint64
}

// Counters are cumulative since the clip was opened.
type Counters struct {
	Requested     uint64 `json:"requested"`
	Displayed     uint64 `json:"displayed"`
	Skipped       uint64 `json:"skipped"`
	Missing       uint64 `json:"missing"`
	Dropped       uint64 `json:"dropped"`
	RenderErrors  uint64 `json:"render_errors"`
	SeeksComplete uint64 `json:"seeks_completed"`
}

// New creates a player in StateEmpty.
func New(cfg Config) *Player {
	cfg = cfg.withDefaults()
	p := &Player{cfg: cfg, bus: cfg.Bus}
	if p.bus == nil {
		p.bus = eventbus.New()
		p.ownsBus = true
	}
	return p
}

// Bus returns the bus events are published on.
func (p *Player) Bus() eventbus.Bus { return p.bus }

// Subscribe registers ch for every event (DropNew policy).
func (p *Player) Subscribe(id string, ch chan<- eventbus.Event) error {
	return p.bus.Subscribe(id, ch)
}

// Unsubscribe removes a subscriber registered with Subscribe.
func (p *Player) Unsubscribe(id string) error {
	return p.bus.Unsubscribe(id)
}

// State returns the current state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Source returns the open clip, or nil.
func (p *Player) Source() Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src
}

// Metadata returns the open clip's metadata, or nil.
func (p *Player) Metadata() *clip.Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.md
}

// Open validates src, reads its metadata and starts the decode stream.
// A clip already open is closed first. On failure the player is left in
// StateEmpty.
func (p *Player) Open(src Source) error {
	if err := p.Close(); err != nil {
		return err
	}

	if err := src.Validate(); err != nil {
		return fmt.Errorf("playback: open %s: %w", src.Path(), err)
	}
	if err := src.ReadMetadata(); err != nil {
		return fmt.Errorf("playback: open %s: %w", src.Path(), err)
	}
	md := src.Metadata()
	layout := render.LayoutOf(md)
	if err := layout.Validate(); err != nil {
		return fmt.Errorf("playback: open %s: %w", src.Path(), err)
	}
	decode, err := src.Decoder(p.cfg.Codec)
	if err != nil {
		return fmt.Errorf("playback: open %s: %w", src.Path(), err)
	}

	scratch := p.cfg.ScratchSize
	switch {
	case scratch == 0:
		scratch = md.ImageSize() + scratchHeadroom
	case scratch < 0:
		scratch = 0
	}

	stream, err := framestream.New(framestream.Config{
		FirstFrame:     md.FirstFrame,
		LastFrame:      md.LastFrame,
		BufferingDepth: p.cfg.BufferingDepth,
		Workers:        p.cfg.Workers,
		BufferSize:     md.ImageSize(),
		ScratchSize:    scratch,
		OnDropped:      p.onDropped(src.Path()),
	}, func(ctx context.Context, f *framestream.Frame, scratch []byte) error {
		return decode(ctx, f.Number, f.Data, scratch)
	})
	if err != nil {
		return fmt.Errorf("playback: open %s: %w", src.Path(), err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateEmpty {
		// Another Open won the race.
		stream.Close()
		return &TransitionError{From: p.state, Event: EventOpen}
	}

	p.src = src
	p.md = md
	p.stream = stream
	p.layout = layout
	p.target = md.ColorTarget(p.cfg.Gamut)
	p.interval = md.FrameRate().Interval()
	p.counters = Counters{}
	p.dropped.Store(0)
	p.velocity = Forward

	slog.Info("playback: clip opened",
		"path", src.Path(),
		"frames", fmt.Sprintf("%d-%d", md.FirstFrame, md.LastFrame),
		"framerate", md.FrameRate().String(),
		"buffering_depth", p.cfg.BufferingDepth,
	)
	p.publish(eventbus.Event{Kind: eventbus.KindClipOpened, Frame: md.FirstFrame})
	_, err = p.fire(Event{Kind: EventOpen})
	return err
}

// Close stops playback, releases the decode stream and returns to
// StateEmpty. Closing an empty player is a no-op.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.state == StateEmpty {
		p.mu.Unlock()
		return nil
	}
	path := p.src.Path()
	stopped, err := p.fire(Event{Kind: EventClose})
	p.mu.Unlock()

	if stopped != nil {
		stopped.wait()
	}
	if err == nil {
		slog.Info("playback: clip closed", "path", path)
	}
	return err
}

// Shutdown closes the clip and, if the player created its own bus, the
// bus too.
func (p *Player) Shutdown() error {
	err := p.Close()
	if p.ownsBus {
		p.bus.Close()
	}
	return err
}

// Play starts or resumes playback. From StatePausedEnd it stops first and
// plays from the first frame.
func (p *Player) Play() error {
	p.mu.Lock()
	var stopped *scheduler
	if p.state == StatePausedEnd {
		var err error
		if stopped, err = p.fire(Event{Kind: EventStop}); err != nil {
			p.mu.Unlock()
			return err
		}
	}
	_, err := p.fire(Event{Kind: EventPlay})
	p.mu.Unlock()

	if stopped != nil {
		stopped.wait()
	}
	return err
}

// Pause stops the timers, keeping the cursor on the last displayed frame.
func (p *Player) Pause() error {
	p.mu.Lock()
	stopped, err := p.fire(Event{Kind: EventPause, AtEnd: p.atEndLocked()})
	p.mu.Unlock()

	if stopped != nil {
		stopped.wait()
	}
	return err
}

// Stop stops the timers and resets both cursors.
func (p *Player) Stop() error {
	p.mu.Lock()
	stopped, err := p.fire(Event{Kind: EventStop})
	p.mu.Unlock()

	if stopped != nil {
		stopped.wait()
	}
	return err
}

// SetRawParameters updates the clip's adjustments and, when paused on a
// frame, re-applies the colour uniforms so the change is visible.
func (p *Player) SetRawParameters(params clip.RawParameters) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == nil {
		return ErrNotOpen
	}
	if err := p.src.SetRawParameters(params); err != nil {
		return err
	}
	if p.state.IsPaused() && p.hasDisplayed && p.cfg.Backend != nil {
		if err := p.applyUniformsLocked(); err != nil {
			return err
		}
		if presenter, ok := p.cfg.Backend.(render.Presenter); ok {
			return presenter.Present(p.lastDisplayed)
		}
	}
	return nil
}

// Status is a point-in-time snapshot of the player.
type Status struct {
	State    string `json:"state"`
	Velocity string `json:"velocity"`
	Clip     string `json:"clip,omitempty"`

	FirstFrame uint32 `json:"first_frame"`
	LastFrame  uint32 `json:"last_frame"`
	Framerate  string `json:"framerate,omitempty"`

	RequestCursor *uint32 `json:"request_cursor,omitempty"`
	DisplayCursor *uint32 `json:"display_cursor,omitempty"`
	LastDisplayed *uint32 `json:"last_displayed,omitempty"`
	TimeCode      string  `json:"timecode,omitempty"`

	Stream   *framestream.Stats `json:"stream,omitempty"`
	Display  DisplayStats       `json:"display"`
	Counters Counters           `json:"counters"`
}

// Status returns a snapshot for status pages and control responses.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	st := Status{
		State:    p.state.String(),
		Velocity: p.velocity.String(),
		Counters: p.counters,
	}
	st.Counters.Dropped = p.dropped.Load()
	if p.src == nil {
		return st
	}
	st.Clip = p.src.Path()
	st.FirstFrame, st.LastFrame = p.md.FirstFrame, p.md.LastFrame
	st.Framerate = p.md.FrameRate().String()
	if p.cursorsSet {
		r, d := p.requestCursor, p.displayCursor
		st.RequestCursor, st.DisplayCursor = &r, &d
	}
	if p.hasDisplayed {
		n := p.lastDisplayed
		st.LastDisplayed = &n
		st.TimeCode = GenerateTimeCode(p.md, n).String()
	}
	stats := p.stream.Stats()
	st.Stream = &stats
	st.Display = p.timing.stats(p.interval)
	return st
}

// DisplayStats returns presentation timing over the recent window.
func (p *Player) DisplayStats() DisplayStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timing.stats(p.interval)
}

// atEndLocked reports whether the last frame is on screen.
func (p *Player) atEndLocked() bool {
	return p.md != nil && p.hasDisplayed && p.lastDisplayed >= p.md.LastFrame
}

// fire applies ev to the state machine, carries out its effects and
// publishes the state change. The returned scheduler, if any, was
// cancelled and must be waited for once the lock is released.
func (p *Player) fire(ev Event) (*scheduler, error) {
	from := p.state
	next, effects, err := transition(from, ev)
	if err != nil {
		slog.Debug("playback: rejected event", "state", from.String(), "event", ev.Kind.String())
		return nil, err
	}

	var stopped *scheduler
	for _, e := range effects {
		switch e {
		case EffectStopTimers:
			if p.sched != nil {
				p.sched.cancelLocked()
				stopped = p.sched
				p.sched = nil
			}

		case EffectReclaim:
			cancelled := p.stream.CancelAllRequests()
			reclaimed := p.stream.ReclaimReadyFrames()
			slog.Debug("playback: pool reclaimed", "cancelled", cancelled, "reclaimed", reclaimed)

		case EffectResetCursors:
			p.cursorsSet = false
			p.requestCursor, p.displayCursor = 0, 0
			p.hasDisplayed = false
			p.lastDisplayed = 0

		case EffectStartCursors:
			p.setCursorsLocked(p.md.FirstFrame)

		case EffectResumeCursors:
			start := p.md.FirstFrame
			if p.hasDisplayed {
				start = p.lastDisplayed
			}
			p.setCursorsLocked(start)

		case EffectStartTimers:
			delay := p.interval * time.Duration(p.cfg.BufferingDepth)
			p.sched = startScheduler(&p.mu, p.interval, delay, p.onRequest, p.onDisplay)

		case EffectCloseStream:
			if err := p.stream.Close(); err != nil {
				slog.Warn("playback: stream close failed", "error", err)
			}
			path := p.src.Path()
			p.stream = nil
			p.src = nil
			p.md = nil
			p.publish(eventbus.Event{Kind: eventbus.KindClipClosed, Clip: path})
		}
	}

	p.state = next
	if next != from {
		slog.Debug("playback: state changed", "from", from.String(), "to", next.String(), "event", ev.Kind.String())
		p.publish(eventbus.Event{Kind: eventbus.KindStateChanged, State: next.String(), PreviousState: from.String()})
	}
	return stopped, nil
}

func (p *Player) setCursorsLocked(n uint32) {
	p.requestCursor, p.displayCursor = n, n
	p.cursorsSet = true
	p.requestDone = false
	p.presented = false
	p.timing.reset()
}

// publish stamps and distributes an event. Called with mu held.
func (p *Player) publish(e eventbus.Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Session = p.cfg.Session
	if e.Clip == "" && p.src != nil {
		e.Clip = p.src.Path()
	}
	p.bus.Publish(e)
	if p.cfg.Observer != nil {
		p.cfg.Observer(e)
	}
}

// onDropped returns the stream's drop hook. It runs on a decode worker
// and must not take the player lock: Close holds it while waiting for the
// workers. Drops go to the bus only, not to the Observer.
func (p *Player) onDropped(path string) func(uint32) {
	return func(n uint32) {
		p.dropped.Add(1)
		p.bus.Publish(eventbus.Event{
			Kind:      eventbus.KindBufferFull,
			Timestamp: time.Now(),
			Session:   p.cfg.Session,
			Clip:      path,
			Frame:     n,
		})
	}
}

func (p *Player) applyUniformsLocked() error {
	u, err := colorpipeline.Uniforms(p.md.Profile, p.src.RawParameters(), p.target)
	if err != nil {
		return fmt.Errorf("playback: uniforms: %w", err)
	}
	return render.ApplyUniforms(p.cfg.Backend, u)
}

// errString returns err's message, or "" for nil.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
