package bus

import (
	"errors"
	"time"
)

// Internal errors - mapped to public errors in the eventbus package
var (
	ErrBusClosed          = errors.New("eventbus: bus is closed")
	ErrSubscriberExists   = errors.New("eventbus: subscriber already exists")
	ErrSubscriberNotFound = errors.New("eventbus: subscriber not found")
	ErrNilChannel         = errors.New("eventbus: nil channel provided")
	ErrReceiverClosed     = errors.New("eventbus: receiver is closed")
)

// DropPolicy defines how the bus handles events when a subscriber cannot keep up
type DropPolicy int

const (
	DropNew DropPolicy = iota
	DropOld
)

func (p DropPolicy) String() string {
	if p == DropOld {
		return "drop_old"
	}
	return "drop_new"
}

// Kind names what happened.
type Kind string

const (
	KindClipOpened     Kind = "clip_opened"
	KindClipClosed     Kind = "clip_closed"
	KindStateChanged   Kind = "state_changed"
	KindFrameDisplayed Kind = "frame_displayed"
	KindFrameSkipped   Kind = "frame_skipped"
	KindFrameMissing   Kind = "frame_missing"
	KindSeekCompleted  Kind = "seek_completed"
	KindBufferFull     Kind = "buffer_full"
)

// Event is one playback notification.
//
// Frame is the frame the player asked for; Actual is the one it showed
// (they differ only for FrameSkipped). Sequence is assigned by the bus.
type Event struct {
	Kind      Kind      `json:"kind" msgpack:"kind"`
	Sequence  uint64    `json:"seq" msgpack:"seq"`
	Timestamp time.Time `json:"ts" msgpack:"ts"`
	Session   string    `json:"session,omitempty" msgpack:"session,omitempty"`

	Clip          string `json:"clip,omitempty" msgpack:"clip,omitempty"`
	State         string `json:"state,omitempty" msgpack:"state,omitempty"`
	PreviousState string `json:"previous_state,omitempty" msgpack:"previous_state,omitempty"`

	Frame    uint32 `json:"frame" msgpack:"frame"`
	Actual   uint32 `json:"actual,omitempty" msgpack:"actual,omitempty"`
	TimeCode string `json:"timecode,omitempty" msgpack:"timecode,omitempty"`
	Error    string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// Receiver provides blocking/non-blocking access for DropOld subscribers
type Receiver interface {
	Receive() (Event, bool)
	TryReceive() (Event, bool)
	Close()
}

// SubscriberStats tracks distribution metrics for one subscriber
type SubscriberStats struct {
	Sent    uint64
	Dropped uint64
}

// BusStats is a snapshot of the whole bus
type BusStats struct {
	TotalPublished uint64
	TotalSent      uint64
	TotalDropped   uint64
	Subscribers    map[string]SubscriberStats
}

// Bus distributes events to multiple subscribers
type Bus interface {
	Subscribe(id string, ch chan<- Event) error
	SubscribeDropOld(id string) (Receiver, error)
	Publish(e Event)
	Unsubscribe(id string) error
	Stats(id string) (*SubscriberStats, error)
	BusStats() BusStats
	Close()
}
