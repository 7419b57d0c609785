package playback

import (
	"time"

	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/colorpipeline"
	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/render"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultBufferingDepth   = 8
	DefaultSeekTimeout      = 2 * time.Second
	DefaultSeekPollInterval = 2 * time.Millisecond

	// scratchHeadroom is added to the decoded image size for the per-worker
	// file read buffer (DNG header, IFDs, preview).
	scratchHeadroom = 1 << 20
)

// Config is fixed for the lifetime of a Player.
type Config struct {
	// BufferingDepth is how many frames are decoded ahead of the display
	// cursor. It sizes the frame pool and delays the first display tick.
	BufferingDepth int

	// Workers is the decode goroutine count (0: min(depth, NumCPU)).
	Workers int

	// ScratchSize is the per-worker file buffer (0: image size + 1 MiB,
	// negative: none).
	ScratchSize int

	// Codec decodes compressed tiles; nil leaves compressed frames failing
	// with clip.ErrUnsupportedCompression.
	Codec clip.Codec

	// Gamut is the display target of the colour pipeline.
	Gamut colorpipeline.Gamut

	// Backend receives frames and uniforms; nil runs headless.
	Backend render.Backend

	// Bus receives every event; nil creates a private bus.
	Bus eventbus.Bus

	// Session is stamped on every event.
	Session string

	// Observer, if set, is called synchronously with every event while the
	// player lock is held. It must not call back into the Player.
	Observer func(eventbus.Event)

	// SeekTimeout bounds how long Seek waits for its frame.
	SeekTimeout time.Duration

	// SeekPollInterval is how often Seek checks for its frame.
	SeekPollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BufferingDepth <= 0 {
		c.BufferingDepth = DefaultBufferingDepth
	}
	if c.SeekTimeout <= 0 {
		c.SeekTimeout = DefaultSeekTimeout
	}
	if c.SeekPollInterval <= 0 {
		c.SeekPollInterval = DefaultSeekPollInterval
	}
	return c
}
