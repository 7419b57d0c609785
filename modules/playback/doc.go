// Package playback plays a clip in real time from a framestream decode
// pool.
//
// State machine:
//
//	Empty ──Open──▶ Stopped ──Play──▶ Buffering ──first frame shown──▶ Playing
//	                   ▲                  │ request cursor at last        │
//	                   │                  ▼                               │
//	                   │          PlayingFromBuffer ◀──────────────────────┘
//	                   │                  │ last frame shown
//	                 Stop                 ▼
//	                   └──────────── PausedEnd / Paused ──Seek──▶ PausedSeeking
//
// Close returns to Empty from anywhere. Every transition goes through one
// table (transition) that also lists the side effects to carry out.
//
// Timing: two callbacks share one goroutine and the player lock. The
// request callback fires every frame interval starting immediately and
// asks the pool for the request cursor's frame. The display callback
// fires at the same interval starting BufferingDepth intervals later, so
// the pool has a BufferingDepth head start. It shows the display cursor's
// frame or, when that one is not decoded yet, the nearest ready frame
// before it (FrameSkipped). Decode failures and empty pools surface as
// FrameMissing; playback never stops for them.
//
// Events (eventbus.Event) are published for state changes, every display
// tick, seeks, clip open/close and pool overflows.
package playback
