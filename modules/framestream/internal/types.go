package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/e7canasta/rawplay/modules/timecode"
)

// Frame is a reusable decode target owned by the stream's pool.
//
// Ownership:
//   - Allocated once per pool slot by New, never freed until Close
//   - Idle in the pool, being decoded by one worker, or ready: never two at once
//   - Data is written only by the decoding worker; readers see it after
//     RetrieveFrame and must not keep it past ReturnFrame/Reclaim
type Frame struct {
	// Number is the frame number this buffer currently holds.
	// Reassigned on every decode cycle.
	Number uint32

	// Data is the decoded image, sized once from Config.BufferSize.
	// Zero-filled when the decode failed.
	Data []byte

	// Err is the last decode error (nil on success).
	// Lets callers tell "source missing" from "not yet decoded".
	Err error

	// NeedsUpload is set after a successful decode and cleared by the
	// presenter once the image reached the render backend.
	NeedsUpload bool

	// TimeCode is optionally filled by the decode function.
	TimeCode *timecode.TimeCode

	// DecodedAt and DecodeDuration describe the last decode.
	DecodedAt      time.Time
	DecodeDuration time.Duration
}

func (f *Frame) reset(n uint32) {
	f.Number = n
	f.Err = nil
	f.NeedsUpload = false
	f.TimeCode = nil
}

// DecodeFunc decodes frame.Number into frame.Data. scratch is a per-worker
// buffer of Config.ScratchSize bytes (nil when zero).
type DecodeFunc func(ctx context.Context, frame *Frame, scratch []byte) error

// Config is fixed for the lifetime of a stream.
type Config struct {
	// FirstFrame and LastFrame bound the frames that may be requested.
	FirstFrame uint32
	LastFrame  uint32

	// BufferingDepth is the pool size: the most frames that can be
	// decoded-but-undisplayed at once.
	BufferingDepth int

	// Workers is the decode goroutine count.
	// 0 means min(BufferingDepth, runtime.NumCPU()).
	Workers int

	// BufferSize is the size of each frame's Data.
	BufferSize int

	// ScratchSize is the per-worker scratch buffer size (0 for none).
	ScratchSize int

	// OnDropped, if set, is called from a worker goroutine whenever a
	// request is dropped because the pool had no idle frame.
	OnDropped func(frame uint32)
}

// RequestResult is the outcome of RequestFrame.
type RequestResult int

const (
	// Success means the frame was queued for decode.
	Success RequestResult = iota
	// AlreadyComplete means the frame is already ready.
	AlreadyComplete
	// AlreadyInProgress means the frame is queued or being decoded.
	AlreadyInProgress
	// ErrorFrameOutOfRange means the frame is outside [FirstFrame, LastFrame].
	ErrorFrameOutOfRange
	// ErrorBufferFull means no idle frame was available when a worker
	// picked the request up. Only reported through Stats and OnDropped,
	// since the drop happens after RequestFrame returned.
	ErrorBufferFull
	// ErrorStreamClosed means the stream was closed.
	ErrorStreamClosed
)

func (r RequestResult) String() string {
	switch r {
	case Success:
		return "success"
	case AlreadyComplete:
		return "already_complete"
	case AlreadyInProgress:
		return "already_in_progress"
	case ErrorFrameOutOfRange:
		return "frame_out_of_range"
	case ErrorBufferFull:
		return "buffer_full"
	case ErrorStreamClosed:
		return "stream_closed"
	default:
		return fmt.Sprintf("RequestResult(%d)", int(r))
	}
}

// Err converts error results to errors (nil for the non-error ones).
func (r RequestResult) Err() error {
	switch r {
	case ErrorFrameOutOfRange:
		return ErrFrameOutOfRange
	case ErrorBufferFull:
		return ErrBufferFull
	case ErrorStreamClosed:
		return ErrStreamClosed
	}
	return nil
}

// Stats is a snapshot of the stream.
//
// While the stream is open Idle + Ready + InFlight == Capacity.
type Stats struct {
	Capacity int `json:"capacity"`
	Workers  int `json:"workers"`

	Idle     int `json:"idle"`
	Ready    int `json:"ready"`
	InFlight int `json:"in_flight"`
	Queued   int `json:"queued"`

	// Decoded counts successful decodes, Failed the ones that recorded an
	// error, BufferFullDrops the requests dropped for lack of an idle frame.
	Decoded         uint64 `json:"decoded"`
	Failed          uint64 `json:"failed"`
	BufferFullDrops uint64 `json:"buffer_full_drops"`
}
