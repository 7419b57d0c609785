package internal

import "slices"

// RequestFrame asks for frame n to be decoded.
//
// Order of checks:
//  1. closed → ErrorStreamClosed
//  2. ready → AlreadyComplete
//  3. queued or being decoded → AlreadyInProgress
//  4. outside [FirstFrame, LastFrame] → ErrorFrameOutOfRange (queue untouched)
//  5. append to the queue, wake workers → Success
//
// Checks 2 and 3 are what keep a frame number in at most one of
// {queue, in flight, ready}.
func (s *stream) RequestFrame(n uint32) RequestResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrorStreamClosed
	}
	if _, ok := s.ready.Load(n); ok {
		return AlreadyComplete
	}
	if _, ok := s.inFlight[n]; ok || slices.Contains(s.queue, n) {
		return AlreadyInProgress
	}
	if n < s.cfg.FirstFrame || n > s.cfg.LastFrame {
		return ErrorFrameOutOfRange
	}

	s.queue = append(s.queue, n)
	s.work.Broadcast()
	return Success
}

// CancelAllRequests drops every queued request. In-flight decodes finish.
func (s *stream) CancelAllRequests() int {
	return s.cancelWhere(func(uint32) bool { return true })
}

// CancelRequestsUpTo drops queued requests for frames <= n.
func (s *stream) CancelRequestsUpTo(n uint32) int {
	return s.cancelWhere(func(f uint32) bool { return f <= n })
}

// CancelRequestsFrom drops queued requests for frames >= n.
func (s *stream) CancelRequestsFrom(n uint32) int {
	return s.cancelWhere(func(f uint32) bool { return f >= n })
}

func (s *stream) cancelWhere(match func(uint32) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.queue)
	s.queue = slices.DeleteFunc(s.queue, match)
	return before - len(s.queue)
}

// Queued returns a snapshot of the request queue in FIFO order.
func (s *stream) Queued() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.queue)
}
