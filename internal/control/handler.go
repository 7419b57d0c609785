// Package control executes playback commands received over MQTT.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/rawplay/internal/config"
	"github.com/e7canasta/rawplay/modules/clip"
)

// Command is a control plane command.
//
//	{"command": "seek", "frame": 120}
//	{"command": "open", "path": "/clips/A001_C002"}
//	{"command": "set_raw_parameters", "raw_parameters": {"exposure": 0.5}}
type Command struct {
	ID            string              `json:"id,omitempty"` // echoed in the response
	Command       string              `json:"command"`
	Frame         *uint32             `json:"frame,omitempty"`
	Path          string              `json:"path,omitempty"`
	RawParameters *clip.RawParameters `json:"raw_parameters,omitempty"`
}

// Response is published on <topics.control>/response.
type Response struct {
	ID         string      `json:"id,omitempty"`
	CommandAck string      `json:"command_ack"`
	Status     string      `json:"status"` // "success" or "error"
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// Callbacks carry out the commands. A nil callback answers
// "<command> not implemented".
type Callbacks struct {
	OnPlay             func() error
	OnPause            func() error
	OnStop             func() error
	OnSeek             func(frame uint32) error
	OnOpen             func(path string) error
	OnNextClip         func() error
	OnPreviousClip     func() error
	OnSetRawParameters func(clip.RawParameters) error
	OnGetStatus        func() interface{}
}

// Handler handles control plane commands
type Handler struct {
	cfg      *config.Config
	client   mqtt.Client
	commands chan Command

	callbacks Callbacks
	stopOnce  sync.Once
	done      chan struct{}
}

// NewHandler creates a control plane handler
func NewHandler(cfg *config.Config, client mqtt.Client, callbacks Callbacks) *Handler {
	return &Handler{
		cfg:       cfg,
		client:    client,
		commands:  make(chan Command, 10),
		callbacks: callbacks,
		done:      make(chan struct{}),
	}
}

// Start subscribes to the control topic and processes commands in order
// on one goroutine until ctx is done or Stop is called.
func (h *Handler) Start(ctx context.Context) error {
	topic := h.cfg.MQTT.Topics.Control
	qos := h.cfg.MQTT.QoS["control"]

	slog.Info("control: subscribing", "topic", topic, "qos", qos)

	token := h.client.Subscribe(topic, qos, h.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("control: subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control: subscription failed: %w", err)
	}

	go h.processCommands(ctx)
	return nil
}

// Stop unsubscribes and ends command processing.
func (h *Handler) Stop() error {
	h.stopOnce.Do(func() {
		if h.client != nil && h.client.IsConnected() {
			h.client.Unsubscribe(h.cfg.MQTT.Topics.Control).WaitTimeout(2 * time.Second)
		}
		close(h.done)
		slog.Info("control: handler stopped")
	})
	return nil
}

// messageHandler runs on the paho router goroutine.
func (h *Handler) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		slog.Warn("control: invalid command payload", "error", err)
		h.sendResponse(Response{CommandAck: "unknown", Status: "error", Error: "invalid JSON"})
		return
	}

	slog.Info("control: command received", "command", cmd.Command, "id", cmd.ID)

	select {
	case h.commands <- cmd:
	default:
		slog.Warn("control: command queue full, dropping command", "command", cmd.Command)
		h.sendResponse(Response{ID: cmd.ID, CommandAck: cmd.Command, Status: "error", Error: "command queue full"})
	}
}

func (h *Handler) processCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case cmd := <-h.commands:
			h.sendResponse(h.handleCommand(cmd))
		}
	}
}

// handleCommand executes one command and builds its response.
func (h *Handler) handleCommand(cmd Command) Response {
	resp := Response{ID: cmd.ID, CommandAck: cmd.Command}

	var err error
	switch cmd.Command {
	case "play":
		err = call(h.callbacks.OnPlay, cmd.Command)
	case "pause":
		err = call(h.callbacks.OnPause, cmd.Command)
	case "stop":
		err = call(h.callbacks.OnStop, cmd.Command)
	case "next_clip":
		err = call(h.callbacks.OnNextClip, cmd.Command)
	case "previous_clip":
		err = call(h.callbacks.OnPreviousClip, cmd.Command)

	case "seek":
		switch {
		case h.callbacks.OnSeek == nil:
			err = notImplemented(cmd.Command)
		case cmd.Frame == nil:
			err = fmt.Errorf("missing 'frame' parameter")
		default:
			err = h.callbacks.OnSeek(*cmd.Frame)
			resp.Data = map[string]interface{}{"frame": *cmd.Frame}
		}

	case "open":
		switch {
		case h.callbacks.OnOpen == nil:
			err = notImplemented(cmd.Command)
		case cmd.Path == "":
			err = fmt.Errorf("missing 'path' parameter")
		default:
			err = h.callbacks.OnOpen(cmd.Path)
			resp.Data = map[string]interface{}{"path": cmd.Path}
		}

	case "set_raw_parameters":
		switch {
		case h.callbacks.OnSetRawParameters == nil:
			err = notImplemented(cmd.Command)
		case cmd.RawParameters == nil:
			err = fmt.Errorf("missing 'raw_parameters' parameter")
		default:
			err = h.callbacks.OnSetRawParameters(*cmd.RawParameters)
		}

	case "get_status":
		if h.callbacks.OnGetStatus == nil {
			err = notImplemented(cmd.Command)
		} else {
			resp.Data = h.callbacks.OnGetStatus()
		}

	default:
		err = fmt.Errorf("unknown command: %s", cmd.Command)
	}

	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
		resp.Data = nil
		slog.Warn("control: command failed", "command", cmd.Command, "error", err)
	} else {
		resp.Status = "success"
	}
	return resp
}

// ResponseTopic is where responses are published.
func (h *Handler) ResponseTopic() string {
	return h.cfg.MQTT.Topics.Control + "/response"
}

func (h *Handler) sendResponse(resp Response) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(resp)
	if err != nil {
		slog.Error("control: failed to marshal response", "error", err)
		return
	}

	token := h.client.Publish(h.ResponseTopic(), h.cfg.MQTT.QoS["control"], false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		slog.Error("control: response publish timeout")
		return
	}
	if err := token.Error(); err != nil {
		slog.Error("control: response publish failed", "error", err)
	}
}

func call(fn func() error, name string) error {
	if fn == nil {
		return notImplemented(name)
	}
	return fn()
}

func notImplemented(name string) error {
	return fmt.Errorf("%s not implemented", name)
}
