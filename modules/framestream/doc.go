/*
Package framestream is the concurrency core of the player: it turns frame
numbers into decoded images under a fixed memory ceiling.

# Architecture

	RequestFrame(n) ──► request queue (FIFO, mutex)
	                          │  sync.Cond
	                          ▼
	                    N decode workers ──► DecodeFunc(ctx, frame, scratch)
	                          │
	                          ▼
	                    ready map (frame number → *Frame)
	                          │
	        RetrieveFrame / ReadyFrames / ReturnFrame / Reclaim*

Every Frame lives in exactly one place at a time: the idle pool, a
worker (in flight) or the ready map. Stats exposes the three counts so
callers can check Idle + Ready + InFlight == Capacity.

# Backpressure

RequestFrame never blocks. When a worker pops a request and the pool has
no idle frame, the request is dropped, counted in Stats.BufferFullDrops
and reported through Config.OnDropped. The caller re-requests later; the
player does this naturally on its next request tick.

# Errors

A decode error does not stop anything. The frame lands in the ready map
zero-filled with Frame.Err set, so the presenter can show a placeholder
and report the frame missing.

# Usage

	s, err := framestream.New(framestream.Config{
	    FirstFrame:     md.FirstFrame,
	    LastFrame:      md.LastFrame,
	    BufferingDepth: 6,
	    BufferSize:     md.ImageSize(),
	}, func(ctx context.Context, f *framestream.Frame, scratch []byte) error {
	    return decode(ctx, f.Number, f.Data, scratch)
	})
	if err != nil { ... }
	defer s.Close()

	s.RequestFrame(100)
	...
	if f, ok := s.RetrieveFrame(100); ok {
	    present(f)
	    s.ReturnFrame(100)
	}
*/
package framestream
