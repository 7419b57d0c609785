package gstpreview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/tinyzimmer/go-gst/gst"
)

var ErrClosed = errors.New("gstpreview: backend closed")

// Stats reports what the preview has done so far.
type Stats struct {
	FramesPushed  uint64
	FramesDropped uint64
	LastFrame     uint32
	Errors        ErrorCounters
}

// Backend is a render.Backend that assembles uploaded tiles into a
// single-channel raster and pushes one buffer per presented frame into a
// GStreamer pipeline. Uniforms are kept for inspection only; the raw
// mosaic is shown as is.
type Backend struct {
	cfg      PipelineConfig
	elements *PipelineElements

	mu        sync.Mutex
	staging   []byte
	stride    int
	bpp       int
	uniforms  map[string]any
	lastFrame uint32
	closed    bool

	pushed  uint64
	dropped uint64
	errors  ErrorCounters

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates the pipeline. Call Start to begin playback.
func New(cfg PipelineConfig) (*Backend, error) {
	elements, err := CreatePipeline(cfg)
	if err != nil {
		return nil, err
	}
	bpp := cfg.DecodedBitDepth / 8
	return &Backend{
		cfg:      cfg,
		elements: elements,
		staging:  make([]byte, cfg.Width*cfg.Height*bpp),
		stride:   cfg.Width * bpp,
		bpp:      bpp,
		uniforms: make(map[string]any),
	}, nil
}

// Start sets the pipeline to PLAYING and monitors its bus until Close or
// ctx is cancelled.
func (b *Backend) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	if err := b.elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		return fmt.Errorf("gstpreview: start pipeline: %w", err)
	}

	ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := MonitorPipelineBus(ctx, b.elements.Pipeline, &b.errors, &b.pushed); err != nil {
			slog.Warn("gstpreview: monitor stopped", "error", err)
		}
	}()

	slog.Info("gstpreview: preview started",
		"width", b.cfg.Width,
		"height", b.cfg.Height,
		"bit_depth", b.cfg.DecodedBitDepth,
		"framerate", b.cfg.Framerate.String(),
	)
	return nil
}

func (b *Backend) UploadTexture(origin, size image.Point, data []byte, offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	return blit(b.staging, b.stride, origin, size, data, offset, b.bpp)
}

func (b *Backend) SetUniform(name string, v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.uniforms[name] = v
	return nil
}

// Uniform returns the last value set for name.
func (b *Backend) Uniform(name string) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.uniforms[name]
	return v, ok
}

// Present pushes the assembled raster. A refused buffer counts as dropped.
func (b *Backend) Present(frame uint32) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	buf := gst.NewBufferFromBytes(append([]byte(nil), b.staging...))
	b.lastFrame = frame
	b.mu.Unlock()

	if ret := b.elements.AppSrc.PushBuffer(buf); ret != gst.FlowOK {
		atomic.AddUint64(&b.dropped, 1)
		return fmt.Errorf("gstpreview: push frame %d: flow %v", frame, ret)
	}
	atomic.AddUint64(&b.pushed, 1)
	return nil
}

// Stats returns a snapshot.
func (b *Backend) Stats() Stats {
	b.mu.Lock()
	last := b.lastFrame
	b.mu.Unlock()
	return Stats{
		FramesPushed:  atomic.LoadUint64(&b.pushed),
		FramesDropped: atomic.LoadUint64(&b.dropped),
		LastFrame:     last,
		Errors:        b.errors.Snapshot(),
	}
}

// Close ends the stream, stops the monitor and tears the pipeline down.
// Idempotent.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancel := b.cancel
	b.mu.Unlock()

	b.elements.AppSrc.EndStream()
	if cancel != nil {
		cancel()
	}
	b.wg.Wait()

	slog.Info("gstpreview: preview closed", "frames_pushed", atomic.LoadUint64(&b.pushed))
	return DestroyPipeline(b.elements)
}

// blit copies a size.X×size.Y block of bpp-byte pixels stored row after
// row at src[offset:] into dst at origin.
func blit(dst []byte, dstStride int, origin, size image.Point, src []byte, offset, bpp int) error {
	if origin.X < 0 || origin.Y < 0 || size.X <= 0 || size.Y <= 0 || offset < 0 {
		return fmt.Errorf("gstpreview: invalid block %v+%v at offset %d", origin, size, offset)
	}
	rowBytes := size.X * bpp
	if origin.X*bpp+rowBytes > dstStride {
		return fmt.Errorf("gstpreview: block %v+%v exceeds raster width", origin, size)
	}
	for row := 0; row < size.Y; row++ {
		s := offset + row*rowBytes
		d := (origin.Y+row)*dstStride + origin.X*bpp
		if s+rowBytes > len(src) {
			return fmt.Errorf("gstpreview: source too short for block %v+%v", origin, size)
		}
		if d+rowBytes > len(dst) {
			return fmt.Errorf("gstpreview: block %v+%v exceeds raster height", origin, size)
		}
		copy(dst[d:d+rowBytes], src[s:s+rowBytes])
	}
	return nil
}
