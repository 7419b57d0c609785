package playback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStates = []State{
	StateEmpty, StateStopped, StateBuffering, StatePlaying, StatePlayingFromBuffer,
	StatePaused, StatePausedEnd, StatePausedSeeking, StateEnd,
}

var allEvents = []EventKind{
	EventOpen, EventPlay, EventPause, EventStop, EventClose, EventRequestReachedEnd,
	EventFirstFrameDisplayed, EventDisplayReachedEnd, EventSeekBegin, EventSeekEnd,
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from State
		ev   Event
		want State
	}{
		{StateEmpty, Event{Kind: EventOpen}, StateStopped},
		{StateStopped, Event{Kind: EventPlay}, StateBuffering},
		{StateBuffering, Event{Kind: EventFirstFrameDisplayed}, StatePlaying},
		{StateBuffering, Event{Kind: EventRequestReachedEnd}, StatePlayingFromBuffer},
		{StatePlaying, Event{Kind: EventRequestReachedEnd}, StatePlayingFromBuffer},
		{StatePlayingFromBuffer, Event{Kind: EventFirstFrameDisplayed}, StatePlaying},
		{StatePlayingFromBuffer, Event{Kind: EventDisplayReachedEnd}, StatePausedEnd},
		{StatePlaying, Event{Kind: EventPause}, StatePaused},
		{StatePlaying, Event{Kind: EventPause, AtEnd: true}, StatePausedEnd},
		{StatePlaying, Event{Kind: EventStop}, StateStopped},
		{StatePaused, Event{Kind: EventPlay}, StateBuffering},
		{StatePaused, Event{Kind: EventSeekBegin}, StatePausedSeeking},
		{StatePausedEnd, Event{Kind: EventSeekBegin}, StatePausedSeeking},
		{StatePausedEnd, Event{Kind: EventStop}, StateStopped},
		{StateStopped, Event{Kind: EventSeekBegin}, StatePausedSeeking},
		{StatePausedSeeking, Event{Kind: EventSeekEnd}, StatePaused},
		{StatePausedSeeking, Event{Kind: EventSeekEnd, AtEnd: true}, StatePausedEnd},
		{StatePausedSeeking, Event{Kind: EventStop}, StateStopped},
	}
	for _, c := range cases {
		got, _, err := transition(c.from, c.ev)
		require.NoError(t, err, "%s + %s", c.from, c.ev.Kind)
		assert.Equal(t, c.want, got, "%s + %s", c.from, c.ev.Kind)
	}
}

func TestCloseIsLegalEverywhere(t *testing.T) {
	for _, s := range allStates {
		got, effects, err := transition(s, Event{Kind: EventClose})
		require.NoError(t, err, s.String())
		assert.Equal(t, StateEmpty, got, s.String())
		if s == StateEmpty {
			assert.Empty(t, effects)
		} else {
			assert.Contains(t, effects, EffectCloseStream, s.String())
		}
	}
}

func TestIllegalTransitionsKeepState(t *testing.T) {
	cases := []struct {
		from State
		kind EventKind
	}{
		{StateEmpty, EventPlay},
		{StateEmpty, EventSeekBegin},
		{StateStopped, EventPause},
		{StateStopped, EventOpen},
		{StatePlaying, EventPlay},
		{StatePlaying, EventSeekBegin},
		{StatePlaying, EventFirstFrameDisplayed},
		{StatePausedEnd, EventPlay},
		{StatePausedSeeking, EventSeekBegin},
		{StatePausedSeeking, EventPlay},
		{StateEnd, EventPlay},
	}
	for _, c := range cases {
		got, effects, err := transition(c.from, Event{Kind: c.kind})
		require.Error(t, err, "%s + %s", c.from, c.kind)
		assert.True(t, errors.Is(err, ErrInvalidTransition))
		var te *TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, c.from, te.From)
		assert.Equal(t, c.kind, te.Event)
		assert.Equal(t, c.from, got)
		assert.Empty(t, effects)
	}
}

// TestPlayingOnlyAfterDisplay checks that no input other than a first
// presentation leads into StatePlaying.
func TestPlayingOnlyAfterDisplay(t *testing.T) {
	for _, s := range allStates {
		for _, k := range allEvents {
			for _, atEnd := range []bool{false, true} {
				got, _, err := transition(s, Event{Kind: k, AtEnd: atEnd})
				if err != nil || got != StatePlaying || s == StatePlaying {
					continue
				}
				if k != EventFirstFrameDisplayed {
					t.Errorf("%s + %s entered playing", s, k)
				}
			}
		}
	}
}

// TestPausedEndOnlyAtLastFrame checks that StatePausedEnd is entered only
// by the last-frame display or by inputs flagged as being at the end.
func TestPausedEndOnlyAtLastFrame(t *testing.T) {
	for _, s := range allStates {
		for _, k := range allEvents {
			got, _, err := transition(s, Event{Kind: k})
			if err != nil || got != StatePausedEnd || s == StatePausedEnd {
				continue
			}
			if k != EventDisplayReachedEnd {
				t.Errorf("%s + %s entered paused_end without AtEnd", s, k)
			}
		}
	}
}

func TestEndIsNeverEntered(t *testing.T) {
	for _, s := range allStates {
		for _, k := range allEvents {
			for _, atEnd := range []bool{false, true} {
				got, _, err := transition(s, Event{Kind: k, AtEnd: atEnd})
				if err == nil && got == StateEnd && s != StateEnd {
					t.Errorf("%s + %s entered end", s, k)
				}
			}
		}
	}
}

func TestStopAndPauseEffects(t *testing.T) {
	_, effects, err := transition(StatePlaying, Event{Kind: EventStop})
	require.NoError(t, err)
	assert.Equal(t, []Effect{EffectStopTimers, EffectReclaim, EffectResetCursors}, effects)

	_, effects, err = transition(StatePlaying, Event{Kind: EventPause})
	require.NoError(t, err)
	assert.Equal(t, []Effect{EffectStopTimers, EffectReclaim}, effects)

	_, effects, err = transition(StatePaused, Event{Kind: EventPlay})
	require.NoError(t, err)
	assert.Equal(t, []Effect{EffectResumeCursors, EffectStartTimers}, effects)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "playing_from_buffer", StatePlayingFromBuffer.String())
	assert.Equal(t, "paused_seeking", StatePausedSeeking.String())
	assert.True(t, StateBuffering.IsPlaying())
	assert.False(t, StatePaused.IsPlaying())
	assert.True(t, StatePausedEnd.IsPaused())
	assert.False(t, StatePausedSeeking.IsPaused())
}
