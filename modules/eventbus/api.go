package eventbus

import "github.com/e7canasta/rawplay/modules/eventbus/internal/bus"

// Public API - Re-export internal types as stable contract

// DropPolicy defines how the bus handles events when a subscriber cannot keep up
type DropPolicy = bus.DropPolicy

const (
	// DropNew drops incoming events if the subscriber's channel is full
	DropNew = bus.DropNew
	// DropOld keeps only the latest event, replacing older ones
	DropOld = bus.DropOld
)

// Kind names what happened
type Kind = bus.Kind

const (
	KindClipOpened     = bus.KindClipOpened
	KindClipClosed     = bus.KindClipClosed
	KindStateChanged   = bus.KindStateChanged
	KindFrameDisplayed = bus.KindFrameDisplayed
	KindFrameSkipped   = bus.KindFrameSkipped
	KindFrameMissing   = bus.KindFrameMissing
	KindSeekCompleted  = bus.KindSeekCompleted
	KindBufferFull     = bus.KindBufferFull
)

// Event is one playback notification
type Event = bus.Event

// Receiver provides blocking/non-blocking access for DropOld subscribers
type Receiver = bus.Receiver

// SubscriberStats tracks distribution metrics for one subscriber
type SubscriberStats = bus.SubscriberStats

// BusStats is a snapshot of the whole bus
type BusStats = bus.BusStats

// Bus distributes events to multiple subscribers with configurable drop policies
type Bus = bus.Bus

// Public API errors
var (
	ErrBusClosed          = bus.ErrBusClosed
	ErrSubscriberExists   = bus.ErrSubscriberExists
	ErrSubscriberNotFound = bus.ErrSubscriberNotFound
	ErrNilChannel         = bus.ErrNilChannel
	ErrReceiverClosed     = bus.ErrReceiverClosed
)
