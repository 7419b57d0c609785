package internal

import (
	"fmt"
	"log/slog"
	"time"
)

// worker pops requests and decodes them into pooled frames.
//
// Algorithm:
//  1. Wait (work cond) until the queue is non-empty and no reclaim is
//     running, or the stream is closed
//  2. Pop the FIFO head
//  3. Take an idle frame; if none, drop the request (ErrorBufferFull)
//  4. Mark the number in flight, unlock, decode
//  5. Lock, store the frame in the ready map (success or not), signal
//     landed for reclaimers
//
// A failed decode zero-fills the frame and records the error on it; the
// worker never stops because of a decode error.
func (s *stream) worker(id int) {
	defer s.wg.Done()

	var scratch []byte
	if s.cfg.ScratchSize > 0 {
		scratch = make([]byte, s.cfg.ScratchSize)
	}

	for {
		s.mu.Lock()
		for !s.closed && (s.paused > 0 || len(s.queue) == 0) {
			s.work.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}

		n := s.queue[0]
		s.queue = s.queue[1:]

		if len(s.idle) == 0 {
			s.drops++
			s.mu.Unlock()
			slog.Debug("framestream: no idle frame, request dropped", "frame", n, "worker", id)
			if s.cfg.OnDropped != nil {
				s.cfg.OnDropped(n)
			}
			continue
		}

		f := s.idle[len(s.idle)-1]
		s.idle = s.idle[:len(s.idle)-1]
		s.inFlight[n] = struct{}{}
		s.mu.Unlock()

		f.reset(n)
		start := time.Now()
		err := s.safeDecode(f, scratch)
		f.DecodedAt = time.Now()
		f.DecodeDuration = f.DecodedAt.Sub(start)
		if err != nil {
			clear(f.Data)
			f.Err = err
			slog.Debug("framestream: decode failed", "frame", n, "worker", id, "error", err)
		} else {
			f.NeedsUpload = true
		}

		s.land(f, err == nil)
	}
}

// safeDecode turns a panicking decoder into a frame error.
func (s *stream) safeDecode(f *Frame, scratch []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("framestream: decoder panic: %v", r)
		}
	}()
	return s.decode(s.ctx, f, scratch)
}

// land moves a decoded frame from in flight to ready.
func (s *stream) land(f *Frame, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, f.Number)
	if ok {
		s.decoded++
	} else {
		s.failed++
	}

	// Overwrite: only reachable if a caller bypassed RequestFrame's
	// checks; keep the pool whole by recycling the older frame.
	if old, loaded := s.ready.Swap(f.Number, f); loaded {
		s.idle = append(s.idle, old.(*Frame))
		slog.Warn("framestream: ready frame overwritten", "frame", f.Number)
	} else {
		s.nReady++
	}
	s.landed.Broadcast()
}
