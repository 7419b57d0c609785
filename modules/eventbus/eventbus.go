// Package eventbus fans playback events out to subscribers without ever
// blocking the player.
//
// Two policies:
//   - DropNew: channel subscriber; a full channel drops the incoming event
//   - DropOld: latest-only receiver; a new event replaces an unread one
//
// Usage:
//
//	bus := eventbus.New()
//	defer bus.Close()
//
//	ch := make(chan eventbus.Event, 64)
//	bus.Subscribe("telemetry", ch)
//
//	status, _ := bus.SubscribeDropOld("status-page")
//	defer status.Close()
//
//	bus.Publish(eventbus.Event{Kind: eventbus.KindFrameDisplayed, Frame: 12})
package eventbus

import "github.com/e7canasta/rawplay/modules/eventbus/internal/bus"

// New creates an event bus
func New() Bus {
	return bus.New()
}

// DropRate returns dropped / (sent + dropped) over the whole bus, 0 when
// nothing was distributed.
func DropRate(stats BusStats) float64 {
	total := stats.TotalSent + stats.TotalDropped
	if total == 0 {
		return 0.0
	}
	return float64(stats.TotalDropped) / float64(total)
}

// SubscriberDropRate returns the drop rate of one subscriber, 0 if unknown.
func SubscriberDropRate(stats BusStats, id string) float64 {
	sub, ok := stats.Subscribers[id]
	if !ok {
		return 0.0
	}
	total := sub.Sent + sub.Dropped
	if total == 0 {
		return 0.0
	}
	return float64(sub.Dropped) / float64(total)
}
