// Package server exposes health, status and a live event stream over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/e7canasta/rawplay/modules/eventbus"
	"github.com/e7canasta/rawplay/modules/playback"
)

// Source is what the server reports on. *playback.Player implements it.
type Source interface {
	Status() playback.Status
	Bus() eventbus.Bus
}

// Server serves:
//
//	/health     liveness
//	/readiness  200 once a clip is open, 503 before
//	/status     playback.Status as JSON, plus Extra()
//	/events     websocket, one JSON text message per event
type Server struct {
	src     Source
	started time.Time

	// Extra, if set, adds entries (telemetry stats, settings path, ...)
	// to /status.
	Extra func() map[string]interface{}

	upgrader websocket.Upgrader
	clients  atomic.Int64
	nextID   atomic.Uint64

	httpServer *http.Server
	listener   net.Listener
}

// New creates a server for src. It does not listen until Start.
func New(src Source) *Server {
	return &Server{
		src:     src,
		started: time.Now(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/readiness", s.handleReadiness)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/events", s.handleEvents)
	return mux
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server: listening",
		"addr", ln.Addr().String(),
		"endpoints", []string{"/health", "/readiness", "/status", "/events"},
	)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server: serve failed", "error", err)
		}
	}()
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting connections and waits for handlers, bounded
// by ctx. Hijacked websocket connections are not tracked; each stream
// ends when its client goes away.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": int64(time.Since(s.started).Seconds()),
	})
}

// Readiness reports whether a clip is loaded and decoding.
type Readiness struct {
	Status string `json:"status"` // "ready" or "not_ready"
	State  string `json:"state"`
	Clip   string `json:"clip,omitempty"`

	PoolIdle     int    `json:"pool_idle"`
	PoolReady    int    `json:"pool_ready"`
	PoolInFlight int    `json:"pool_in_flight"`
	Queued       int    `json:"queued"`
	Drops        uint64 `json:"buffer_full_drops"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	st := s.src.Status()
	rd := Readiness{Status: "not_ready", State: st.State, Clip: st.Clip}
	code := http.StatusServiceUnavailable
	if st.Clip != "" && st.Stream != nil {
		rd.Status = "ready"
		rd.PoolIdle = st.Stream.Idle
		rd.PoolReady = st.Stream.Ready
		rd.PoolInFlight = st.Stream.InFlight
		rd.Queued = st.Stream.Queued
		rd.Drops = st.Stream.BufferFullDrops
		code = http.StatusOK
	}
	writeJSON(w, code, rd)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"playback":       s.src.Status(),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"event_clients":  s.clients.Load(),
	}
	if s.Extra != nil {
		for k, v := range s.Extra() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// handleEvents streams bus events to a websocket client until it
// disconnects. A slow client loses events (DropNew) rather than stalling
// the player.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := fmt.Sprintf("ws-%d", s.nextID.Add(1))
	events := make(chan eventbus.Event, 64)

	bus := s.src.Bus()
	if err := bus.Subscribe(id, events); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer bus.Unsubscribe(id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("server: websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.clients.Add(1)
	defer s.clients.Add(-1)
	slog.Info("server: event client connected", "id", id, "remote", conn.RemoteAddr().String())

	// The reader only notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-gone:
			slog.Info("server: event client disconnected", "id", id)
			return
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("server: event write failed", "id", id, "error", err)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("server: response encode failed", "error", err)
	}
}
