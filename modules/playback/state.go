package playback

// State is the player's single authoritative playback state.
type State int

const (
	StateEmpty State = iota
	StateStopped
	StateBuffering
	StatePlaying
	StatePlayingFromBuffer
	StatePaused
	StatePausedEnd
	StatePausedSeeking
	// StateEnd is part of the public vocabulary but never entered:
	// reaching the last frame pauses (StatePausedEnd).
	StateEnd
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateStopped:
		return "stopped"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePlayingFromBuffer:
		return "playing_from_buffer"
	case StatePaused:
		return "paused"
	case StatePausedEnd:
		return "paused_end"
	case StatePausedSeeking:
		return "paused_seeking"
	case StateEnd:
		return "end"
	}
	return "unknown"
}

// IsPlaying reports whether the timers are running.
func (s State) IsPlaying() bool {
	return s == StateBuffering || s == StatePlaying || s == StatePlayingFromBuffer
}

// IsPaused reports whether playback is paused on a frame.
func (s State) IsPaused() bool {
	return s == StatePaused || s == StatePausedEnd
}

// EventKind is an input to the state machine.
type EventKind int

const (
	EventOpen EventKind = iota
	EventPlay
	EventPause
	EventStop
	EventClose
	EventRequestReachedEnd
	EventFirstFrameDisplayed
	EventDisplayReachedEnd
	EventSeekBegin
	EventSeekEnd
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventStop:
		return "stop"
	case EventClose:
		return "close"
	case EventRequestReachedEnd:
		return "request_reached_end"
	case EventFirstFrameDisplayed:
		return "first_frame_displayed"
	case EventDisplayReachedEnd:
		return "display_reached_end"
	case EventSeekBegin:
		return "seek_begin"
	case EventSeekEnd:
		return "seek_end"
	}
	return "unknown"
}

// Event is a state machine input. AtEnd tells Pause and SeekEnd whether
// the frame on screen is the clip's last one.
type Event struct {
	Kind  EventKind
	AtEnd bool
}

// Effect is a side effect the player carries out after a transition, in
// order.
type Effect int

const (
	// EffectStopTimers cancels the request/display timers.
	EffectStopTimers Effect = iota
	// EffectReclaim cancels queued requests and returns ready frames to the pool.
	EffectReclaim
	// EffectResetCursors forgets both cursors and the last displayed frame.
	EffectResetCursors
	// EffectStartCursors starts both cursors at the first frame.
	EffectStartCursors
	// EffectResumeCursors starts both cursors at the last displayed frame.
	EffectResumeCursors
	// EffectStartTimers starts the request timer now and the display timer
	// one buffering depth later.
	EffectStartTimers
	// EffectCloseStream tears the decode stream down and forgets the clip.
	EffectCloseStream
)

func (e Effect) String() string {
	switch e {
	case EffectStopTimers:
		return "stop_timers"
	case EffectReclaim:
		return "reclaim"
	case EffectResetCursors:
		return "reset_cursors"
	case EffectStartCursors:
		return "start_cursors"
	case EffectResumeCursors:
		return "resume_cursors"
	case EffectStartTimers:
		return "start_timers"
	case EffectCloseStream:
		return "close_stream"
	}
	return "unknown"
}

var (
	pauseEffects = []Effect{EffectStopTimers, EffectReclaim}
	stopEffects  = []Effect{EffectStopTimers, EffectReclaim, EffectResetCursors}
	closeEffects = []Effect{EffectStopTimers, EffectCloseStream, EffectResetCursors}
)

// transition is the complete transition table. Illegal inputs return
// ErrInvalidTransition and the unchanged state.
func transition(s State, ev Event) (State, []Effect, error) {
	// Close is legal everywhere.
	if ev.Kind == EventClose {
		if s == StateEmpty {
			return StateEmpty, nil, nil
		}
		return StateEmpty, closeEffects, nil
	}

	switch s {
	case StateEmpty:
		if ev.Kind == EventOpen {
			return StateStopped, nil, nil
		}

	case StateStopped:
		switch ev.Kind {
		case EventPlay:
			return StateBuffering, []Effect{EffectStartCursors, EffectStartTimers}, nil
		case EventSeekBegin:
			return StatePausedSeeking, []Effect{EffectReclaim}, nil
		}

	case StateBuffering, StatePlaying, StatePlayingFromBuffer:
		switch ev.Kind {
		case EventRequestReachedEnd:
			if s != StatePlayingFromBuffer {
				return StatePlayingFromBuffer, nil, nil
			}
		case EventFirstFrameDisplayed:
			if s != StatePlaying {
				return StatePlaying, nil, nil
			}
		case EventDisplayReachedEnd:
			return StatePausedEnd, pauseEffects, nil
		case EventPause:
			if ev.AtEnd {
				return StatePausedEnd, pauseEffects, nil
			}
			return StatePaused, pauseEffects, nil
		case EventStop:
			return StateStopped, stopEffects, nil
		}

	case StatePaused:
		switch ev.Kind {
		case EventPlay:
			return StateBuffering, []Effect{EffectResumeCursors, EffectStartTimers}, nil
		case EventStop:
			return StateStopped, stopEffects, nil
		case EventSeekBegin:
			return StatePausedSeeking, []Effect{EffectReclaim}, nil
		}

	case StatePausedEnd:
		switch ev.Kind {
		case EventStop:
			return StateStopped, stopEffects, nil
		case EventSeekBegin:
			return StatePausedSeeking, []Effect{EffectReclaim}, nil
		}

	case StatePausedSeeking:
		switch ev.Kind {
		case EventSeekEnd:
			if ev.AtEnd {
				return StatePausedEnd, nil, nil
			}
			return StatePaused, nil, nil
		case EventStop:
			return StateStopped, stopEffects, nil
		}
	}

	return s, nil, &TransitionError{From: s, Event: ev.Kind}
}
