package eventbus_test

import (
	"sync"
	"testing"
	"time"

	"github.com/e7canasta/rawplay/modules/eventbus"
)

func TestPublishDropNew(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	ch := make(chan eventbus.Event, 2)
	if err := b.Subscribe("sub1", ch); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := uint32(1); i <= 5; i++ {
		b.Publish(eventbus.Event{Kind: eventbus.KindFrameDisplayed, Frame: i})
	}

	stats, err := b.Stats("sub1")
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Sent != 2 || stats.Dropped != 3 {
		t.Errorf("expected sent=2 dropped=3, got sent=%d dropped=%d", stats.Sent, stats.Dropped)
	}

	first := <-ch
	second := <-ch
	if first.Frame != 1 || second.Frame != 2 {
		t.Errorf("DropNew must keep the oldest events, got %d,%d", first.Frame, second.Frame)
	}
	if first.Sequence != 1 || second.Sequence != 2 {
		t.Errorf("expected sequence 1,2, got %d,%d", first.Sequence, second.Sequence)
	}
	if first.Timestamp.IsZero() {
		t.Error("Publish must stamp a timestamp")
	}
}

func TestPublishKeepsCallerTimestamp(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	ch := make(chan eventbus.Event, 1)
	_ = b.Subscribe("sub", ch)

	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b.Publish(eventbus.Event{Kind: eventbus.KindStateChanged, Timestamp: ts})
	if got := <-ch; !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp overwritten: %v", got.Timestamp)
	}
}

func TestDropOldKeepsLatest(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	r, err := b.SubscribeDropOld("latest")
	if err != nil {
		t.Fatalf("SubscribeDropOld failed: %v", err)
	}

	if _, ok := r.TryReceive(); ok {
		t.Fatal("TryReceive on empty holder should report false")
	}

	for i := uint32(1); i <= 3; i++ {
		b.Publish(eventbus.Event{Kind: eventbus.KindFrameDisplayed, Frame: i})
	}

	e, ok := r.Receive()
	if !ok || e.Frame != 3 {
		t.Fatalf("expected latest frame 3, got %d ok=%v", e.Frame, ok)
	}

	stats, _ := b.Stats("latest")
	if stats.Dropped != 2 {
		t.Errorf("expected 2 overwritten events, got %d", stats.Dropped)
	}
}

func TestDropOldReceiveBlocksUntilPublish(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	r, _ := b.SubscribeDropOld("waiter")

	got := make(chan eventbus.Event, 1)
	go func() {
		e, ok := r.Receive()
		if ok {
			got <- e
		}
	}()

	select {
	case <-got:
		t.Fatal("Receive returned before any publish")
	case <-time.After(20 * time.Millisecond):
	}

	b.Publish(eventbus.Event{Kind: eventbus.KindSeekCompleted, Frame: 42})

	select {
	case e := <-got:
		if e.Frame != 42 {
			t.Errorf("expected frame 42, got %d", e.Frame)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake up")
	}
}

func TestCloseUnblocksReceivers(t *testing.T) {
	b := eventbus.New()
	r, _ := b.SubscribeDropOld("waiter")

	done := make(chan bool, 1)
	go func() {
		_, ok := r.Receive()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Receive after Close should report false")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Receive")
	}

	// Publishing on a closed bus is a no-op
	b.Publish(eventbus.Event{Kind: eventbus.KindClipClosed})
	if _, err := b.SubscribeDropOld("late"); err != eventbus.ErrBusClosed {
		t.Errorf("expected ErrBusClosed, got %v", err)
	}
}

func TestSubscribeErrors(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	ch := make(chan eventbus.Event, 1)
	if err := b.Subscribe("a", nil); err != eventbus.ErrNilChannel {
		t.Errorf("expected ErrNilChannel, got %v", err)
	}
	_ = b.Subscribe("a", ch)
	if err := b.Subscribe("a", ch); err != eventbus.ErrSubscriberExists {
		t.Errorf("expected ErrSubscriberExists, got %v", err)
	}
	if _, err := b.SubscribeDropOld("a"); err != eventbus.ErrSubscriberExists {
		t.Errorf("expected ErrSubscriberExists, got %v", err)
	}
	if err := b.Unsubscribe("missing"); err != eventbus.ErrSubscriberNotFound {
		t.Errorf("expected ErrSubscriberNotFound, got %v", err)
	}
	if _, err := b.Stats("missing"); err != eventbus.ErrSubscriberNotFound {
		t.Errorf("expected ErrSubscriberNotFound, got %v", err)
	}
	if err := b.Unsubscribe("a"); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
}

func TestBusStatsAndDropRate(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	fast := make(chan eventbus.Event, 10)
	slow := make(chan eventbus.Event, 1)
	_ = b.Subscribe("fast", fast)
	_ = b.Subscribe("slow", slow)

	for i := 0; i < 4; i++ {
		b.Publish(eventbus.Event{Kind: eventbus.KindFrameDisplayed})
	}

	stats := b.BusStats()
	if stats.TotalPublished != 4 {
		t.Errorf("expected 4 published, got %d", stats.TotalPublished)
	}
	if stats.TotalSent != 5 || stats.TotalDropped != 3 {
		t.Errorf("expected sent=5 dropped=3, got sent=%d dropped=%d", stats.TotalSent, stats.TotalDropped)
	}
	if rate := eventbus.DropRate(stats); rate != 3.0/8.0 {
		t.Errorf("unexpected bus drop rate %f", rate)
	}
	if rate := eventbus.SubscriberDropRate(stats, "slow"); rate != 0.75 {
		t.Errorf("unexpected slow drop rate %f", rate)
	}
	if rate := eventbus.SubscriberDropRate(stats, "fast"); rate != 0 {
		t.Errorf("unexpected fast drop rate %f", rate)
	}
	if rate := eventbus.SubscriberDropRate(stats, "nobody"); rate != 0 {
		t.Errorf("unknown subscriber should report 0, got %f", rate)
	}
	if rate := eventbus.DropRate(eventbus.BusStats{}); rate != 0 {
		t.Errorf("empty stats should report 0, got %f", rate)
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := eventbus.New()
	defer b.Close()

	ch := make(chan eventbus.Event, 1000)
	_ = b.Subscribe("sink", ch)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Publish(eventbus.Event{Kind: eventbus.KindFrameDisplayed})
			}
		}()
	}
	wg.Wait()

	if len(ch) != 1000 {
		t.Fatalf("expected 1000 events, got %d", len(ch))
	}
	seen := make(map[uint64]bool, 1000)
	for i := 0; i < 1000; i++ {
		e := <-ch
		if seen[e.Sequence] {
			t.Fatalf("duplicate sequence %d", e.Sequence)
		}
		seen[e.Sequence] = true
	}
}
