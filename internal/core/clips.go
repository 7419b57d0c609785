package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/playback"
	"github.com/e7canasta/rawplay/modules/render/gstpreview"
)

// ErrNoAdjacentClip is returned by NextClip and PreviousClip at either
// end of the parent folder.
var ErrNoAdjacentClip = errors.New("core: no adjacent clip")

// OpenClip opens the clip at path, restoring its saved raw parameters.
func (s *Service) OpenClip(path string) error {
	c, err := clip.New(path)
	if err != nil {
		return err
	}
	return s.openClip(c)
}

// NextClip opens the sibling clip after the current one.
func (s *Service) NextClip() error { return s.openAdjacent(false) }

// PreviousClip opens the sibling clip before the current one.
func (s *Service) PreviousClip() error { return s.openAdjacent(true) }

func (s *Service) openAdjacent(previous bool) error {
	cur, ok := s.player.Source().(*clip.Clip)
	if !ok {
		return playback.ErrNotOpen
	}
	var (
		next  *clip.Clip
		found bool
	)
	if previous {
		next, found = cur.PreviousClip()
	} else {
		next, found = cur.NextClip()
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNoAdjacentClip, cur.Path())
	}
	return s.openClip(next)
}

func (s *Service) openClip(c *clip.Clip) error {
	s.clipMu.Lock()
	defer s.clipMu.Unlock()

	// Metadata is needed before the player opens the clip to size the
	// preview; both calls are no-ops the second time.
	if err := c.Validate(); err != nil {
		return fmt.Errorf("open %s: %w", c.Path(), err)
	}
	if err := c.ReadMetadata(); err != nil {
		return fmt.Errorf("open %s: %w", c.Path(), err)
	}
	s.restoreParameters(c)

	// The old clip must stop presenting before the preview changes size.
	if err := s.player.Close(); err != nil {
		return err
	}
	if s.cfg.Preview.Enabled {
		if err := s.swapPreviewLocked(c.Metadata()); err != nil {
			slog.Warn("preview unavailable, playing headless", "clip", c.Path(), "error", err)
		}
	}

	if err := s.player.Open(c); err != nil {
		return err
	}
	if s.cfg.Playback.Autoplay {
		if err := s.player.Play(); err != nil {
			return fmt.Errorf("autoplay: %w", err)
		}
	}
	return nil
}

// restoreParameters applies the stored adjustments for c, if any. A bad
// record is logged and ignored.
func (s *Service) restoreParameters(c *clip.Clip) {
	if s.store == nil {
		return
	}
	params, ok, err := s.store.Load(c.Path())
	if err != nil {
		slog.Warn("failed to load raw parameters", "clip", c.Path(), "error", err)
		return
	}
	if !ok {
		return
	}
	if err := c.SetRawParameters(params); err != nil {
		slog.Warn("stored raw parameters rejected", "clip", c.Path(), "error", err)
		return
	}
	slog.Info("raw parameters restored", "clip", c.Path())
}

// SetRawParameters applies params to the open clip and remembers them
// for the next time it is opened.
func (s *Service) SetRawParameters(params clip.RawParameters) error {
	if err := s.player.SetRawParameters(params); err != nil {
		return err
	}
	src := s.player.Source()
	if s.store == nil || src == nil {
		return nil
	}
	if err := s.store.Save(src.Path(), params); err != nil {
		return fmt.Errorf("save raw parameters: %w", err)
	}
	return nil
}

// swapPreviewLocked replaces the preview with one sized for md. On
// failure the player runs headless.
func (s *Service) swapPreviewLocked(md *clip.Metadata) error {
	s.mu.Lock()
	old := s.preview
	s.preview = nil
	s.mu.Unlock()
	s.display.Set(nil)
	if old != nil {
		s.closePreview(old)
	}

	b, err := gstpreview.New(gstpreview.PipelineConfig{
		Width:           md.PaddedWidth,
		Height:          md.PaddedHeight,
		DecodedBitDepth: md.DecodedBitDepth,
		Framerate:       md.FrameRate(),
		Sink:            s.cfg.Preview.Sink,
	})
	if err != nil {
		return err
	}
	if err := b.Start(s.runCtx); err != nil {
		s.closePreview(b)
		return err
	}

	s.mu.Lock()
	s.preview = b
	s.mu.Unlock()
	s.display.Set(b)
	return nil
}

func (s *Service) closePreview(b *gstpreview.Backend) {
	if b == nil {
		return
	}
	st := b.Stats()
	if err := b.Close(); err != nil {
		slog.Warn("failed to close preview", "error", err)
	}
	slog.Debug("preview closed", "frames_pushed", st.FramesPushed, "frames_dropped", st.FramesDropped)
}
