package gstpreview

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCounters holds atomic counters per error category.
type ErrorCounters struct {
	Resource uint64
	Codec    uint64
	Unknown  uint64
}

func (c *ErrorCounters) add(cat ErrorCategory) {
	switch cat {
	case ErrCategoryResource:
		atomic.AddUint64(&c.Resource, 1)
	case ErrCategoryCodec:
		atomic.AddUint64(&c.Codec, 1)
	default:
		atomic.AddUint64(&c.Unknown, 1)
	}
}

// Snapshot returns a consistent-enough copy for reporting.
func (c *ErrorCounters) Snapshot() ErrorCounters {
	return ErrorCounters{
		Resource: atomic.LoadUint64(&c.Resource),
		Codec:    atomic.LoadUint64(&c.Codec),
		Unknown:  atomic.LoadUint64(&c.Unknown),
	}
}

// MonitorPipelineBus polls the pipeline bus until ctx is cancelled, an
// error is posted or the stream ends.
//
// Returns nil on cancellation.
func MonitorPipelineBus(ctx context.Context, pipeline *gst.Pipeline, counters *ErrorCounters, pushed *uint64) error {
	if pipeline == nil {
		return fmt.Errorf("gstpreview: pipeline not initialized")
	}

	bus := pipeline.GetPipelineBus()
	started := time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("gstpreview: context cancelled, stopping bus monitor")
			return nil

		default:
			// Short timeout keeps shutdown responsive
			msg := bus.TimedPop(50 * time.Millisecond)
			if msg == nil {
				continue
			}

			switch msg.Type() {
			case gst.MessageEOS:
				slog.Info("gstpreview: end of stream",
					"uptime", time.Since(started),
					"frames_pushed", atomic.LoadUint64(pushed),
				)
				return nil

			case gst.MessageError:
				gerr := msg.ParseError()
				category := ClassifyGStreamerError(gerr)
				counters.add(category)

				slog.Error("gstpreview: pipeline error",
					"error", gerr.Error(),
					"debug", gerr.DebugString(),
					"category", category.String(),
					"uptime", time.Since(started),
					"frames_pushed", atomic.LoadUint64(pushed),
				)
				return fmt.Errorf("gstpreview: pipeline error [%s]: %s", category, gerr.Error())

			case gst.MessageStateChanged:
				if msg.Source() == pipeline.GetName() {
					old, new := msg.ParseStateChanged()
					slog.Debug("gstpreview: pipeline state changed", "from", old, "to", new)
				}
			}
		}
	}
}
