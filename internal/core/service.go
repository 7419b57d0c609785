// Package core wires the player, its render backends and the daemon's
// outer surfaces (MQTT telemetry and control, HTTP status, settings
// store) into one service.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/e7canasta/rawplay/internal/config"
	"github.com/e7canasta/rawplay/internal/control"
	"github.com/e7canasta/rawplay/internal/mqttconn"
	"github.com/e7canasta/rawplay/internal/server"
	"github.com/e7canasta/rawplay/internal/settings"
	"github.com/e7canasta/rawplay/internal/telemetry"
	"github.com/e7canasta/rawplay/modules/clip"
	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/playback"
	"github.com/e7canasta/rawplay/modules/render"
	"github.com/e7canasta/rawplay/modules/render/gstpreview"
)

// Options carry what the configuration file cannot.
type Options struct {
	// Session is stamped on every event (default: a new UUID).
	Session string

	// Codec decodes compressed DNG tiles; nil leaves compressed clips
	// reporting clip.ErrUnsupportedCompression per frame.
	Codec clip.Codec

	// MQTTClient replaces the connection made from mqtt.broker.
	MQTTClient mqtt.Client
}

// Service is the rawplay daemon.
type Service struct {
	cfg     *config.Config
	session string

	bus     eventbus.Bus
	player  *playback.Player
	display *render.Switch
	store   *settings.Store
	server  *server.Server

	mqttClient     mqtt.Client
	ownsClient     bool
	emitter        *telemetry.Emitter
	controlHandler *control.Handler

	// clipMu serializes clip changes (open, next, previous) and the
	// preview swap that goes with them.
	clipMu  sync.Mutex
	preview *gstpreview.Backend
	runCtx  context.Context

	started   time.Time
	mu        sync.RWMutex
	isRunning bool
	cancelCtx context.CancelFunc
}

// New creates the service. Nothing is started until Run.
func New(cfg *config.Config, opts Options) (*Service, error) {
	if opts.Session == "" {
		opts.Session = uuid.NewString()
	}

	s := &Service{
		cfg:        cfg,
		session:    opts.Session,
		bus:        eventbus.New(),
		display:    &render.Switch{},
		mqttClient: opts.MQTTClient,
		runCtx:     context.Background(),
	}
	s.player = playback.New(playback.Config{
		BufferingDepth: cfg.Playback.BufferingDepth,
		Workers:        cfg.Playback.Workers,
		Codec:          opts.Codec,
		Gamut:          cfg.Gamut(),
		Backend:        s.display,
		Bus:            s.bus,
		Session:        s.session,
		SeekTimeout:    cfg.SeekTimeout(),
	})

	if cfg.Settings.Path != "" {
		store, err := settings.Open(cfg.Settings.Path)
		if err != nil {
			s.bus.Close()
			return nil, fmt.Errorf("failed to open settings store: %w", err)
		}
		s.store = store
	}

	s.server = server.New(s.player)
	s.server.Extra = s.statusExtra

	slog.Info("rawplay service created",
		"instance_id", cfg.InstanceID,
		"session", s.session,
		"buffering_depth", cfg.Playback.BufferingDepth,
		"preview", cfg.Preview.Enabled,
		"settings", cfg.Settings.Path,
	)
	return s, nil
}

// Session returns the session ID stamped on events.
func (s *Service) Session() string { return s.session }

// Player returns the underlying player.
func (s *Service) Player() *playback.Player { return s.player }

// Server returns the HTTP status server.
func (s *Service) Server() *server.Server { return s.server }

// ShutdownTimeout returns the configured graceful shutdown timeout.
func (s *Service) ShutdownTimeout() time.Duration { return s.cfg.ShutdownTimeout() }

// Run starts every configured surface, opens the startup clip and blocks
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("service is already running")
	}
	s.isRunning = true
	s.started = time.Now()
	ctx, cancel := context.WithCancel(ctx)
	s.cancelCtx = cancel
	s.mu.Unlock()
	defer cancel()

	s.clipMu.Lock()
	s.runCtx = ctx
	s.clipMu.Unlock()

	if s.cfg.HTTP.Addr != "" {
		if err := s.server.Start(s.cfg.HTTP.Addr); err != nil {
			return fmt.Errorf("failed to start http server: %w", err)
		}
	}

	if err := s.startMQTT(ctx); err != nil {
		return err
	}

	if s.cfg.Clip != "" {
		// A bad startup clip leaves the daemon idle and controllable.
		if err := s.OpenClip(s.cfg.Clip); err != nil {
			slog.Error("failed to open startup clip", "clip", s.cfg.Clip, "error", err)
		}
	}

	slog.Info("rawplay service running",
		"http", s.server.Addr(),
		"mqtt", s.mqttClient != nil,
	)

	<-ctx.Done()
	slog.Info("rawplay service run loop exiting")
	return nil
}

// startMQTT connects (unless a client was injected) and starts the
// telemetry emitter and control handler. No broker and no client means
// no MQTT at all.
func (s *Service) startMQTT(ctx context.Context) error {
	if s.mqttClient == nil {
		if s.cfg.MQTT.Broker == "" {
			return nil
		}
		client, err := mqttconn.Connect(ctx, mqttconn.Options{
			Broker:   s.cfg.MQTT.Broker,
			ClientID: fmt.Sprintf("%s-%.8s", s.cfg.MQTT.ClientID, s.session),
			OnConnectionLost: func(err error) {
				slog.Warn("mqtt connection lost", "error", err)
			},
		})
		if err != nil {
			return fmt.Errorf("failed to connect mqtt: %w", err)
		}
		s.mu.Lock()
		s.mqttClient = client
		s.ownsClient = true
		s.mu.Unlock()
	}

	emitter := telemetry.NewEmitter(s.cfg, s.mqttClient)
	if err := emitter.Start(ctx, s.bus); err != nil {
		return fmt.Errorf("failed to start telemetry: %w", err)
	}
	s.mu.Lock()
	s.emitter = emitter
	s.mu.Unlock()

	handler := control.NewHandler(s.cfg, s.mqttClient, control.Callbacks{
		OnPlay:             s.player.Play,
		OnPause:            s.player.Pause,
		OnStop:             s.player.Stop,
		OnSeek:             s.player.Seek,
		OnOpen:             s.OpenClip,
		OnNextClip:         s.NextClip,
		OnPreviousClip:     s.PreviousClip,
		OnSetRawParameters: s.SetRawParameters,
		OnGetStatus:        func() interface{} { return s.Status() },
	})
	if err := handler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start control plane: %w", err)
	}

	s.mu.Lock()
	s.controlHandler = handler
	s.mu.Unlock()
	return nil
}

// Shutdown stops every component, bounded by ctx for the HTTP server.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.cancelCtx != nil {
		s.cancelCtx()
	}
	var uptime time.Duration
	if s.isRunning {
		uptime = time.Since(s.started)
	}
	s.isRunning = false
	s.mu.Unlock()

	slog.Info("shutting down rawplay service")

	s.mu.RLock()
	handler, emitter := s.controlHandler, s.emitter
	client, ownsClient := s.mqttClient, s.ownsClient
	s.mu.RUnlock()

	// 1. Stop taking commands
	if handler != nil {
		if err := handler.Stop(); err != nil {
			slog.Error("failed to stop control handler", "error", err)
		}
	}

	// 2. Stop playback and the decode workers
	if err := s.player.Shutdown(); err != nil {
		slog.Error("failed to close player", "error", err)
	}

	// 3. Preview window
	s.clipMu.Lock()
	s.display.Set(nil)
	s.mu.Lock()
	preview := s.preview
	s.preview = nil
	s.mu.Unlock()
	s.closePreview(preview)
	s.clipMu.Unlock()

	// 4. Outer surfaces
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("failed to stop http server", "error", err)
	}
	if emitter != nil {
		emitter.Wait()
	}
	s.bus.Close()
	if ownsClient && client.IsConnected() {
		client.Disconnect(250)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Error("failed to close settings store", "error", err)
		}
	}

	slog.Info("rawplay service shutdown complete", "uptime", uptime)
	return nil
}
