package playback

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/rawplay/modules/eventbus"
)

// Seek shows frame n while paused or stopped.
//
// The player enters StatePausedSeeking, requests n once and polls the
// ready map until the frame lands or the seek timeout expires. It then
// returns to StatePaused, or StatePausedEnd when n is the last frame; a
// later Play resumes from n. A second Seek while one is running returns
// ErrSeekActive; Stop or Close during a seek make it return
// ErrSeekCancelled.
func (p *Player) Seek(n uint32) error {
	p.mu.Lock()
	if p.src == nil {
		p.mu.Unlock()
		return ErrNotOpen
	}
	if p.state == StatePausedSeeking {
		p.mu.Unlock()
		return ErrSeekActive
	}
	if !p.md.Contains(n) {
		first, last := p.md.FirstFrame, p.md.LastFrame
		p.mu.Unlock()
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrFrameOutOfRange, n, first, last)
	}
	if _, err := p.fire(Event{Kind: EventSeekBegin}); err != nil {
		p.mu.Unlock()
		return err
	}
	p.seekGen++
	gen := p.seekGen
	res := p.stream.RequestFrame(n)
	p.mu.Unlock()

	slog.Debug("playback: seek started", "frame", n, "request", res.String())

	deadline := time.Now().Add(p.cfg.SeekTimeout)
	ticker := time.NewTicker(p.cfg.SeekPollInterval)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		if p.state != StatePausedSeeking || p.seekGen != gen {
			p.mu.Unlock()
			return ErrSeekCancelled
		}
		if _, ready := p.stream.RetrieveFrame(n); ready {
			err := p.finishSeekLocked(n)
			p.mu.Unlock()
			return err
		}
		if time.Now().After(deadline) {
			p.stream.CancelAllRequests()
			p.fire(Event{Kind: EventSeekEnd, AtEnd: p.atEndLocked()})
			p.mu.Unlock()
			return fmt.Errorf("%w: frame %d after %s", ErrSeekTimeout, n, p.cfg.SeekTimeout)
		}
		p.mu.Unlock()

		<-ticker.C
	}
}

func (p *Player) finishSeekLocked(n uint32) error {
	f, _ := p.stream.RetrieveFrame(n)
	decodeErr := f.Err

	p.displayLocked(n, false, eventbus.KindSeekCompleted)
	p.setCursorsLocked(n)
	p.lastDisplayed, p.hasDisplayed = n, true
	p.counters.SeeksComplete++

	if _, err := p.fire(Event{Kind: EventSeekEnd, AtEnd: n >= p.md.LastFrame}); err != nil {
		return err
	}
	if decodeErr != nil {
		return fmt.Errorf("playback: seek to %d: %w", n, decodeErr)
	}
	return nil
}
