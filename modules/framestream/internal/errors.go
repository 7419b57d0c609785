package internal

import "errors"

var (
	ErrStreamClosed    = errors.New("framestream: stream closed")
	ErrFrameOutOfRange = errors.New("framestream: frame out of range")
	ErrBufferFull      = errors.New("framestream: buffer full")
	ErrInvalidConfig   = errors.New("framestream: invalid config")

	// ErrUntrackedFrame is logged, never returned, when a caller hands
	// back a frame the stream does not hold as ready.
	ErrUntrackedFrame = errors.New("framestream: invariant violation: untracked frame")
)
