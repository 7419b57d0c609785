package gstpreview

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/rawplay/modules/timecode"
)

// PipelineConfig describes the raw frames pushed into the preview.
type PipelineConfig struct {
	Width, Height   int
	DecodedBitDepth int // 8 or 16
	Framerate       timecode.Rational

	// Sink is the GStreamer element name of the output
	// (default "autovideosink", "fakesink" for headless runs).
	Sink string
}

// PipelineElements holds references to the elements the backend drives.
type PipelineElements struct {
	Pipeline *gst.Pipeline
	AppSrc   *app.Source
	Convert  *gst.Element
	Sink     *gst.Element
}

// CreatePipeline builds the preview pipeline:
//
//	appsrc → videoconvert → videoscale → sink
//
// The pipeline is configured but NOT started (state remains NULL).
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	caps, err := buildCaps(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize GStreamer (safe to call multiple times)
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("gstpreview: create pipeline: %w", err)
	}

	src, err := app.NewAppSrc()
	if err != nil {
		return nil, fmt.Errorf("gstpreview: create appsrc: %w", err)
	}
	src.SetCaps(gst.NewCapsFromString(caps))
	src.SetFormat(gst.FormatTime)
	src.SetProperty("is-live", true)
	src.SetProperty("do-timestamp", true)
	// One frame of queueing; the player already buffers ahead.
	src.SetProperty("max-bytes", uint64(cfg.Width*cfg.Height*cfg.DecodedBitDepth/8))
	src.SetProperty("block", false)

	convert, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("gstpreview: create videoconvert: %w", err)
	}
	convert.SetProperty("n-threads", 0)

	scale, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, fmt.Errorf("gstpreview: create videoscale: %w", err)
	}

	sinkName := cfg.Sink
	if sinkName == "" {
		sinkName = "autovideosink"
	}
	sink, err := gst.NewElement(sinkName)
	if err != nil {
		return nil, fmt.Errorf("gstpreview: create %s: %w", sinkName, err)
	}
	sink.SetProperty("sync", false)

	pipeline.AddMany(src.Element, convert, scale, sink)
	if err := gst.ElementLinkMany(src.Element, convert, scale, sink); err != nil {
		return nil, fmt.Errorf("gstpreview: link pipeline: %w", err)
	}

	slog.Debug("gstpreview: pipeline created", "caps", caps, "sink", sinkName)

	return &PipelineElements{
		Pipeline: pipeline,
		AppSrc:   src,
		Convert:  convert,
		Sink:     sink,
	}, nil
}

// DestroyPipeline sets the pipeline to NULL. Safe on a nil or destroyed
// pipeline.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("gstpreview: set pipeline to NULL: %w", err)
	}
	return nil
}

// buildCaps returns the appsrc caps for raw single-channel frames.
//
// Format: "video/x-raw,format=GRAY16_LE,width=W,height=H,framerate=N/D"
func buildCaps(cfg PipelineConfig) (string, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("gstpreview: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	var format string
	switch cfg.DecodedBitDepth {
	case 8:
		format = "GRAY8"
	case 16:
		format = "GRAY16_LE"
	default:
		return "", fmt.Errorf("gstpreview: unsupported decoded bit depth %d", cfg.DecodedBitDepth)
	}
	rate := cfg.Framerate
	if !rate.Valid() {
		rate = timecode.DefaultFramerate
	}
	return fmt.Sprintf(
		"video/x-raw,format=%s,width=%d,height=%d,framerate=%d/%d",
		format, cfg.Width, cfg.Height, rate.Numerator, rate.Denominator,
	), nil
}
