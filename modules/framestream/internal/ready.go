package internal

import (
	"log/slog"
	"slices"
)

// RetrieveFrame looks n up in the ready map without blocking.
func (s *stream) RetrieveFrame(n uint32) (*Frame, bool) {
	v, ok := s.ready.Load(n)
	if !ok {
		return nil, false
	}
	return v.(*Frame), true
}

// ReadyFrames returns the ready frame numbers in ascending order.
func (s *stream) ReadyFrames() []uint32 {
	var out []uint32
	s.ready.Range(func(key, _ any) bool {
		out = append(out, key.(uint32))
		return true
	})
	slices.Sort(out)
	return out
}

// ReturnFrame hands a displayed frame back to the pool.
//
// Returning a frame that is not ready is a caller defect: it is logged
// and ignored so the pool is never corrupted.
func (s *stream) ReturnFrame(n uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.ready.LoadAndDelete(n)
	if !ok {
		slog.Warn("framestream: return of untracked frame ignored", "frame", n, "error", ErrUntrackedFrame)
		return false
	}
	s.nReady--
	s.idle = append(s.idle, v.(*Frame))
	return true
}

// ReclaimReadyFrames pauses the workers, waits for in-flight decodes to
// land and returns every ready frame to the pool, leaving it clean.
func (s *stream) ReclaimReadyFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused++
	for len(s.inFlight) > 0 && !s.closed {
		s.landed.Wait()
	}
	n := s.reclaimLocked(func(uint32) bool { return true })
	s.paused--
	s.work.Broadcast()
	return n
}

// ReclaimReadyFramesUpTo returns ready frames <= n to the pool. It does
// not wait for in-flight decodes; a matching frame that lands later
// stays ready until the next reclaim.
func (s *stream) ReclaimReadyFramesUpTo(n uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reclaimLocked(func(f uint32) bool { return f <= n })
}

// ReclaimReadyFramesFrom returns ready frames >= n to the pool, without
// waiting for in-flight decodes.
func (s *stream) ReclaimReadyFramesFrom(n uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reclaimLocked(func(f uint32) bool { return f >= n })
}

// reclaimLocked moves matching ready frames to the idle pool.
func (s *stream) reclaimLocked(match func(uint32) bool) int {
	var numbers []uint32
	s.ready.Range(func(key, _ any) bool {
		if n := key.(uint32); match(n) {
			numbers = append(numbers, n)
		}
		return true
	})
	for _, n := range numbers {
		if v, ok := s.ready.LoadAndDelete(n); ok {
			s.idle = append(s.idle, v.(*Frame))
			s.nReady--
		}
	}
	if len(numbers) > 0 {
		s.work.Broadcast()
	}
	return len(numbers)
}
