// Package internal implements the frame decode stream.
//
// This package is INTERNAL - clients use the public API in the parent package.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// stream is the concrete implementation of framestream.Stream.
//
// Goroutine topology:
//   - Workers fixed goroutines (spawned by NewStream, stopped by Close)
//   - callers of the public API (any goroutine)
//
// Locking: one mutex guards the queue, the idle pool, the ready map and
// the in-flight set, so a frame number's membership is always consistent.
// The ready map is additionally a sync.Map so RetrieveFrame and
// ReadyFrames never wait behind a worker.
type stream struct {
	cfg    Config
	decode DecodeFunc

	mu     sync.Mutex
	work   *sync.Cond // workers: queue non-empty, resume after reclaim, or close
	landed *sync.Cond // reclaimers: an in-flight decode landed

	queue    []uint32            // FIFO of requested frame numbers
	idle     []*Frame            // pool of free frames (LIFO)
	ready    sync.Map            // uint32 → *Frame; mutated under mu
	nReady   int                 // len(ready), under mu
	inFlight map[uint32]struct{} // frames being decoded
	paused   int                 // reclaims in progress
	closed   bool

	decoded uint64
	failed  uint64
	drops   uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStream allocates the pool and starts the workers.
func NewStream(cfg Config, decode DecodeFunc) (*stream, error) {
	if decode == nil {
		return nil, fmt.Errorf("%w: nil decode function", ErrInvalidConfig)
	}
	if cfg.FirstFrame > cfg.LastFrame {
		return nil, fmt.Errorf("%w: first frame %d after last frame %d", ErrInvalidConfig, cfg.FirstFrame, cfg.LastFrame)
	}
	if cfg.BufferingDepth <= 0 {
		return nil, fmt.Errorf("%w: buffering depth %d", ErrInvalidConfig, cfg.BufferingDepth)
	}
	if cfg.BufferSize <= 0 {
		return nil, fmt.Errorf("%w: buffer size %d", ErrInvalidConfig, cfg.BufferSize)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = min(cfg.BufferingDepth, runtime.NumCPU())
	}

	s := &stream{
		cfg:      cfg,
		decode:   decode,
		idle:     make([]*Frame, 0, cfg.BufferingDepth),
		inFlight: make(map[uint32]struct{}, cfg.Workers),
	}
	s.work = sync.NewCond(&s.mu)
	s.landed = sync.NewCond(&s.mu)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for i := 0; i < cfg.BufferingDepth; i++ {
		s.idle = append(s.idle, &Frame{Data: make([]byte, cfg.BufferSize)})
	}

	s.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go s.worker(i)
	}

	slog.Debug("framestream: started",
		"first_frame", cfg.FirstFrame,
		"last_frame", cfg.LastFrame,
		"buffering_depth", cfg.BufferingDepth,
		"workers", cfg.Workers,
		"buffer_size", cfg.BufferSize,
	)
	return s, nil
}

// Close stops the workers and waits for in-flight decodes to finish.
//
// Behavior:
//  1. Marks the stream closed (RequestFrame returns ErrorStreamClosed)
//  2. Cancels the decode context
//  3. Broadcasts to wake idle workers and waiting reclaimers
//  4. Waits for every worker to exit
//
// Idempotent.
func (s *stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.cancel()
	s.work.Broadcast()
	s.landed.Broadcast()
	s.wg.Wait()

	slog.Debug("framestream: closed", "decoded", s.decoded, "failed", s.failed, "buffer_full_drops", s.drops)
	return nil
}

// Config returns the effective configuration (Workers resolved).
func (s *stream) Config() Config { return s.cfg }
