package playback

import (
	"log/slog"
	"time"

	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/framestream"
	"github.com/e7canasta/rawplay/modules/render"
)

// onRequest is the request timer callback.
func (p *Player) onRequest() {
	if p.state != StateBuffering && p.state != StatePlaying {
		return
	}
	if p.requestDone || p.velocity != Forward {
		return
	}

	n := p.requestCursor
	res := p.stream.RequestFrame(n)
	p.counters.Requested++
	if err := res.Err(); err != nil {
		slog.Warn("playback: frame request failed", "frame", n, "result", res.String())
	}

	if n >= p.md.LastFrame {
		p.requestDone = true
		if _, err := p.fire(Event{Kind: EventRequestReachedEnd}); err != nil {
			slog.Debug("playback: request reached end", "state", p.state.String())
		}
		return
	}
	p.requestCursor++
}

// onDisplay is the display timer callback.
func (p *Player) onDisplay() {
	if !p.state.IsPlaying() {
		return
	}

	cursor := p.displayCursor
	presented := p.displayLocked(cursor, true, eventbus.KindFrameDisplayed)
	if presented {
		p.timing.add(time.Now())
	}
	p.lastDisplayed, p.hasDisplayed = cursor, true

	// Everything at or before the cursor is stale now.
	p.stream.CancelRequestsUpTo(cursor)
	if hasReadyUpTo(p.stream.ReadyFrames(), cursor) {
		p.stream.ReclaimReadyFramesUpTo(cursor)
	}

	if presented && !p.presented {
		p.presented = true
		if p.state == StateBuffering || p.state == StatePlayingFromBuffer {
			p.fire(Event{Kind: EventFirstFrameDisplayed})
		}
	}

	if cursor >= p.md.LastFrame {
		p.fire(Event{Kind: EventDisplayReachedEnd})
		return
	}
	p.displayCursor++
}

// displayLocked shows frame cursor. With fallback set, a frame that is not
// ready is replaced by the nearest ready frame before it. The matching
// event is published: okKind when cursor itself was shown, FrameSkipped
// for a fallback and FrameMissing when nothing usable was ready or the
// decode failed (the zero-filled frame is still uploaded as a black
// placeholder). Reports whether a decoded image reached the backend.
func (p *Player) displayLocked(cursor uint32, fallback bool, okKind eventbus.Kind) bool {
	f, ok := p.stream.RetrieveFrame(cursor)
	actual := cursor
	if !ok && fallback {
		if n, found := nearestReady(p.stream.ReadyFrames(), cursor); found {
			if f, ok = p.stream.RetrieveFrame(n); ok {
				actual = n
			}
		}
	}

	if !ok {
		p.counters.Missing++
		p.publish(eventbus.Event{
			Kind:     eventbus.KindFrameMissing,
			Frame:    cursor,
			TimeCode: GenerateTimeCode(p.md, cursor).String(),
			Error:    "frame not ready",
		})
		return false
	}

	tc := GenerateTimeCode(p.md, actual)
	if f.TimeCode != nil {
		tc = *f.TimeCode
	}

	p.renderLocked(f)
	decodeErr := f.Err
	p.stream.ReturnFrame(actual)

	switch {
	case decodeErr != nil:
		p.counters.Missing++
		p.publish(eventbus.Event{
			Kind:     eventbus.KindFrameMissing,
			Frame:    cursor,
			Actual:   actual,
			TimeCode: tc.String(),
			Error:    errString(decodeErr),
		})
		return false

	case actual != cursor:
		p.counters.Skipped++
		p.publish(eventbus.Event{
			Kind:     eventbus.KindFrameSkipped,
			Frame:    cursor,
			Actual:   actual,
			TimeCode: tc.String(),
		})

	default:
		p.counters.Displayed++
		p.publish(eventbus.Event{
			Kind:     okKind,
			Frame:    cursor,
			Actual:   actual,
			TimeCode: tc.String(),
		})
	}
	return true
}

// renderLocked uploads f and the current colour uniforms. Render failures
// are counted and logged; playback goes on.
func (p *Player) renderLocked(f *framestream.Frame) {
	b := p.cfg.Backend
	if b == nil {
		f.NeedsUpload = false
		return
	}

	if err := render.UploadFrame(b, f.Data, p.layout); err != nil {
		p.counters.RenderErrors++
		slog.Warn("playback: frame upload failed", "frame", f.Number, "error", err)
		return
	}
	f.NeedsUpload = false

	if err := p.applyUniformsLocked(); err != nil {
		p.counters.RenderErrors++
		slog.Warn("playback: uniforms failed", "frame", f.Number, "error", err)
	}

	if presenter, ok := b.(render.Presenter); ok {
		if err := presenter.Present(f.Number); err != nil {
			p.counters.RenderErrors++
			slog.Warn("playback: present failed", "frame", f.Number, "error", err)
		}
	}
}

// nearestReady returns the ready frame at or before cursor closest to it.
// Frames after the cursor are never chosen.
func nearestReady(ready []uint32, cursor uint32) (uint32, bool) {
	var best uint32
	found := false
	for _, n := range ready {
		if n > cursor {
			continue
		}
		if !found || cursor-n < cursor-best {
			best, found = n, true
		}
	}
	return best, found
}

func hasReadyUpTo(ready []uint32, n uint32) bool {
	for _, r := range ready {
		if r <= n {
			return true
		}
	}
	return false
}
