package playback

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("playback: invalid transition")
	ErrNotOpen           = errors.New("playback: no clip open")
	ErrSeekActive        = errors.New("playback: seek already active")
	ErrSeekTimeout       = errors.New("playback: seek timed out")
	ErrSeekCancelled     = errors.New("playback: seek cancelled")
	ErrNotImplemented    = errors.New("playback: not implemented")
	ErrFrameOutOfRange   = errors.New("playback: frame out of range")
)

// TransitionError reports an input the current state does not accept.
// It matches ErrInvalidTransition with errors.Is.
type TransitionError struct {
	From  State
	Event EventKind
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%v: %s in state %s", ErrInvalidTransition, e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
