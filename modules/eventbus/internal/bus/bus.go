package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// sink is one subscriber's delivery end.
type sink interface {
	// deliver hands e over without blocking and reports whether an
	// event (e itself or an unread older one) was lost.
	deliver(e Event) (lost bool)
	close()
}

type subscription struct {
	sink    sink
	sent    atomic.Uint64
	dropped atomic.Uint64
}

func (s *subscription) snapshot() SubscriberStats {
	return SubscriberStats{Sent: s.sent.Load(), Dropped: s.dropped.Load()}
}

type bus struct {
	mu     sync.RWMutex
	subs   map[string]*subscription
	closed bool

	published atomic.Uint64
	seq       atomic.Uint64
}

// New creates a new event bus
func New() Bus {
	return &bus{subs: make(map[string]*subscription)}
}

// Subscribe registers a channel with DropNew policy
func (b *bus) Subscribe(id string, ch chan<- Event) error {
	if ch == nil {
		return ErrNilChannel
	}
	return b.add(id, chanSink{ch: ch})
}

// SubscribeDropOld registers a subscriber that only ever sees the latest event
func (b *bus) SubscribeDropOld(id string) (Receiver, error) {
	m := newMailbox()
	if err := b.add(id, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (b *bus) add(id string, s sink) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	if _, dup := b.subs[id]; dup {
		return ErrSubscriberExists
	}
	b.subs[id] = &subscription{sink: s}
	return nil
}

// Publish stamps the event and distributes it to all subscribers.
// Never blocks: full DropNew channels drop the event.
func (b *bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	b.published.Add(1)
	e.Sequence = b.seq.Add(1)
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	for _, sub := range b.subs {
		lost := sub.sink.deliver(e)
		if lost {
			sub.dropped.Add(1)
		}
		// A latest-only mailbox always takes the new event.
		if _, latest := sub.sink.(*mailbox); !lost || latest {
			sub.sent.Add(1)
		}
	}
}

// Unsubscribe removes a subscriber
func (b *bus) Unsubscribe(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return ErrSubscriberNotFound
	}
	sub.sink.close()
	delete(b.subs, id)
	return nil
}

// Stats returns statistics for a subscriber
func (b *bus) Stats(id string) (*SubscriberStats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sub, ok := b.subs[id]
	if !ok {
		return nil, ErrSubscriberNotFound
	}
	st := sub.snapshot()
	return &st, nil
}

// BusStats returns a snapshot over all subscribers
func (b *bus) BusStats() BusStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := BusStats{
		TotalPublished: b.published.Load(),
		Subscribers:    make(map[string]SubscriberStats, len(b.subs)),
	}
	for id, sub := range b.subs {
		st := sub.snapshot()
		out.Subscribers[id] = st
		out.TotalSent += st.Sent
		out.TotalDropped += st.Dropped
	}
	return out
}

// Close shuts down the bus and all DropOld receivers. Channels passed to
// Subscribe are left open; they belong to the caller.
func (b *bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.sink.close()
	}
	b.subs = nil
}

// chanSink is the DropNew policy.
type chanSink struct {
	ch chan<- Event
}

func (c chanSink) deliver(e Event) bool {
	select {
	case c.ch <- e:
		return false
	default:
		return true
	}
}

func (chanSink) close() {}

// mailbox is the DropOld policy: a one-slot box guarded by a cond.
type mailbox struct {
	mu     sync.Mutex
	filled *sync.Cond
	latest Event
	has    bool // latest holds an event
	unread bool
	closed bool
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.filled = sync.NewCond(&m.mu)
	return m
}

func (m *mailbox) deliver(e Event) (overwrote bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	overwrote = m.unread
	m.latest, m.has, m.unread = e, true, true
	m.filled.Broadcast()
	return overwrote
}

// Receive blocks until an unread event is available. ok is false once
// the receiver is closed.
func (m *mailbox) Receive() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for !m.unread && !m.closed {
		m.filled.Wait()
	}
	if m.closed {
		return Event{}, false
	}
	m.unread = false
	return m.latest, true
}

// TryReceive returns the latest event without blocking, read before or not.
func (m *mailbox) TryReceive() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.has {
		return Event{}, false
	}
	m.unread = false
	return m.latest, true
}

func (m *mailbox) close() { m.Close() }

// Close wakes any blocked Receive; later deliveries are ignored.
func (m *mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.filled.Broadcast()
}
