// Package framestream decodes the frames of a clip concurrently into a
// fixed pool of reusable buffers.
//
// Design:
//   - Bounded memory: BufferingDepth frames, allocated once
//   - FIFO request queue, N decode workers, concurrent ready map
//   - At most one in-flight decode per frame number
//   - Backpressure is explicit: an exhausted pool drops the request
//   - Decode failures are data on the frame, never fatal
package framestream

import (
	"github.com/e7canasta/rawplay/modules/framestream/internal"
)

// Frame is re-exported from the internal package.
// See internal/types.go for full documentation.
type Frame = internal.Frame

// Config is re-exported from the internal package.
type Config = internal.Config

// DecodeFunc is re-exported from the internal package.
type DecodeFunc = internal.DecodeFunc

// Stats is re-exported from the internal package.
type Stats = internal.Stats

// RequestResult is re-exported from the internal package.
type RequestResult = internal.RequestResult

const (
	Success              = internal.Success
	AlreadyComplete      = internal.AlreadyComplete
	AlreadyInProgress    = internal.AlreadyInProgress
	ErrorFrameOutOfRange = internal.ErrorFrameOutOfRange
	ErrorBufferFull      = internal.ErrorBufferFull
	ErrorStreamClosed    = internal.ErrorStreamClosed
)

var (
	ErrStreamClosed    = internal.ErrStreamClosed
	ErrFrameOutOfRange = internal.ErrFrameOutOfRange
	ErrBufferFull      = internal.ErrBufferFull
	ErrInvalidConfig   = internal.ErrInvalidConfig
	ErrUntrackedFrame  = internal.ErrUntrackedFrame
)

// Stream is the public interface of a frame decode stream.
//
// Lifecycle: New() → RequestFrame()/RetrieveFrame()/ReturnFrame()... → Close()
//
// Thread-safety: all methods are safe for concurrent use.
type Stream interface {
	// RequestFrame queues frame n for decode.
	//
	// Returns:
	//   - AlreadyComplete if n is ready
	//   - AlreadyInProgress if n is queued or being decoded
	//   - ErrorFrameOutOfRange if n is outside [FirstFrame, LastFrame]
	//     (the queue is not touched)
	//   - ErrorStreamClosed after Close
	//   - Success otherwise
	//
	// Never blocks on decoding.
	RequestFrame(n uint32) RequestResult

	// CancelAllRequests, CancelRequestsUpTo and CancelRequestsFrom remove
	// matching not-yet-started requests and return how many were removed.
	// In-flight decodes are never interrupted.
	CancelAllRequests() int
	CancelRequestsUpTo(n uint32) int
	CancelRequestsFrom(n uint32) int

	// ReclaimReadyFrames pauses the workers, waits for in-flight decodes
	// to land and returns every ready frame to the pool.
	//
	// ReclaimReadyFramesUpTo and ReclaimReadyFramesFrom return matching
	// ready frames only and never wait on a decode, so they are safe to
	// call from a display tick.
	ReclaimReadyFrames() int
	ReclaimReadyFramesUpTo(n uint32) int
	ReclaimReadyFramesFrom(n uint32) int

	// RetrieveFrame is a non-blocking ready-map lookup.
	// The frame stays owned by the stream until ReturnFrame or a reclaim.
	RetrieveFrame(n uint32) (*Frame, bool)

	// ReadyFrames returns the ready frame numbers, sorted ascending.
	ReadyFrames() []uint32

	// ReturnFrame gives a displayed frame back to the pool.
	// Returning a frame that is not ready is logged and reported as false.
	ReturnFrame(n uint32) bool

	// Queued returns the pending requests in FIFO order.
	Queued() []uint32

	// Stats returns a snapshot; Idle + Ready + InFlight == Capacity.
	Stats() Stats

	// Config returns the effective configuration.
	Config() Config

	// Close stops the workers after in-flight decodes finish.
	// Idempotent.
	Close() error
}

// New allocates BufferingDepth frames of BufferSize bytes and starts the
// decode workers.
//
// Returns ErrInvalidConfig for an empty frame range, a non-positive depth
// or buffer size, or a nil decode function.
func New(cfg Config, decode DecodeFunc) (Stream, error) {
	s, err := internal.NewStream(cfg, decode)
	if err != nil {
		return nil, err
	}
	return s, nil
}
