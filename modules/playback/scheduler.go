package playback

import (
	"sync"
	"time"
)

// scheduler runs the request and display callbacks on one goroutine.
//
// Both callbacks fire every interval; the display callback's first tick
// is displayDelay after the request callback's. Each tick runs with mu
// held, so ticks never overlap each other or the player's public API.
// When both are due at the same instant the display tick goes first: it
// frees the pool slot the request tick is about to need.
type scheduler struct {
	mu           *sync.Mutex
	interval     time.Duration
	displayDelay time.Duration
	onRequest    func()
	onDisplay    func()

	// cancelled is guarded by mu
	cancelled bool
	stop      chan struct{}
	done      chan struct{}
}

func startScheduler(mu *sync.Mutex, interval, displayDelay time.Duration, onRequest, onDisplay func()) *scheduler {
	s := &scheduler{
		mu:           mu,
		interval:     interval,
		displayDelay: displayDelay,
		onRequest:    onRequest,
		onDisplay:    onDisplay,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *scheduler) run() {
	defer close(s.done)

	start := time.Now()
	nextRequest := start
	nextDisplay := start.Add(s.displayDelay)

	for {
		next, display := nextRequest, false
		if !nextDisplay.After(nextRequest) {
			next, display = nextDisplay, true
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-timer.C:
		}

		s.mu.Lock()
		if s.cancelled {
			s.mu.Unlock()
			return
		}
		if display {
			s.onDisplay()
			nextDisplay = s.advance(nextDisplay)
		} else {
			s.onRequest()
			nextRequest = s.advance(nextRequest)
		}
		s.mu.Unlock()
	}
}

// advance moves a deadline one interval forward without letting a late
// tick queue up a burst of catch-up ticks.
func (s *scheduler) advance(t time.Time) time.Time {
	t = t.Add(s.interval)
	if now := time.Now(); t.Before(now.Add(-s.interval)) {
		return now
	}
	return t
}

// cancelLocked stops further ticks. Must be called with mu held; the tick
// in progress (if any, i.e. the caller) finishes normally.
func (s *scheduler) cancelLocked() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	close(s.stop)
}

// wait blocks until the scheduler goroutine has exited. Must be called
// without mu held.
func (s *scheduler) wait() {
	<-s.done
}
