package core

import (
	"log/slog"
	"time"

	"github.com/e7canasta/rawplay/modules/eventbus"
)

// recentClips is how many stored clips get_status lists.
const recentClips = 5

// Status returns the service status for the get_status command.
func (s *Service) Status() map[string]interface{} {
	status := s.statusExtra()
	status["playback"] = s.player.Status()

	s.mu.RLock()
	status["running"] = s.isRunning
	s.mu.RUnlock()

	if s.store != nil {
		recent, err := s.store.Recent(recentClips)
		if err != nil {
			slog.Warn("failed to list recent clips", "error", err)
		} else {
			status["recent_clips"] = recent
		}
	}
	return status
}

// statusExtra is what /status adds to the player snapshot.
func (s *Service) statusExtra() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	busStats := s.bus.BusStats()
	extra := map[string]interface{}{
		"instance_id": s.cfg.InstanceID,
		"session":     s.session,
		"event_bus": map[string]interface{}{
			"published":   busStats.TotalPublished,
			"dropped":     busStats.TotalDropped,
			"drop_rate":   eventbus.DropRate(busStats),
			"subscribers": len(busStats.Subscribers),
		},
	}
	if !s.started.IsZero() {
		extra["uptime_s"] = time.Since(s.started).Seconds()
	}
	if s.emitter != nil {
		extra["telemetry"] = s.emitter.Stats()
	}
	if s.preview != nil {
		st := s.preview.Stats()
		extra["preview"] = map[string]interface{}{
			"sink":           s.cfg.Preview.Sink,
			"frames_pushed":  st.FramesPushed,
			"frames_dropped": st.FramesDropped,
			"last_frame":     st.LastFrame,
		}
	}
	return extra
}
