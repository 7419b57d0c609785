package internal

// Stats returns a consistent snapshot of the pool and counters.
func (s *stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		Capacity:        s.cfg.BufferingDepth,
		Workers:         s.cfg.Workers,
		Idle:            len(s.idle),
		Ready:           s.nReady,
		InFlight:        len(s.inFlight),
		Queued:          len(s.queue),
		Decoded:         s.decoded,
		Failed:          s.failed,
		BufferFullDrops: s.drops,
	}
}
