// Package telemetry publishes playback events to MQTT.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/rawplay/internal/config"
	"github.com/e7canasta/rawplay/modules/eventbus"
)

const (
	subscriberID  = "telemetry"
	queueSize     = 256
	publishTimeout = 2 * time.Second
)

// Emitter forwards every bus event to <topics.events>/<kind>, msgpack
// encoded. State changes are retained so a late subscriber sees the
// current state.
type Emitter struct {
	cfg    *config.Config
	client mqtt.Client

	mu        sync.RWMutex
	published map[string]uint64 // count per topic
	errors    uint64

	events chan eventbus.Event
	done   chan struct{}
}

// NewEmitter creates an emitter publishing through client.
func NewEmitter(cfg *config.Config, client mqtt.Client) *Emitter {
	return &Emitter{
		cfg:       cfg,
		client:    client,
		published: make(map[string]uint64),
	}
}

// Start subscribes to bus and publishes until ctx is done or Stop is
// called.
func (e *Emitter) Start(ctx context.Context, bus eventbus.Bus) error {
	e.events = make(chan eventbus.Event, queueSize)
	if err := bus.Subscribe(subscriberID, e.events); err != nil {
		return fmt.Errorf("telemetry: subscribe: %w", err)
	}
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		for {
			select {
			case <-ctx.Done():
				bus.Unsubscribe(subscriberID)
				return
			case ev, ok := <-e.events:
				if !ok {
					return
				}
				if err := e.Publish(ev); err != nil {
					slog.Debug("telemetry: publish failed", "kind", ev.Kind, "error", err)
				}
			}
		}
	}()

	slog.Info("telemetry: emitter started", "topic", e.cfg.MQTT.Topics.Events)
	return nil
}

// Wait blocks until the goroutine started by Start has exited.
func (e *Emitter) Wait() {
	if e.done != nil {
		<-e.done
	}
}

// Publish sends one event.
func (e *Emitter) Publish(ev eventbus.Event) error {
	if e.client == nil || !e.client.IsConnected() {
		e.countError()
		return fmt.Errorf("telemetry: mqtt not connected")
	}

	topic := Topic(e.cfg.MQTT.Topics.Events, ev.Kind)
	retained := ev.Kind == eventbus.KindStateChanged
	qos := e.cfg.MQTT.QoS["events"]
	if retained {
		qos = e.cfg.MQTT.QoS["state"]
	}

	payload, err := msgpack.Marshal(&ev)
	if err != nil {
		e.countError()
		return fmt.Errorf("telemetry: encode %s: %w", ev.Kind, err)
	}

	token := e.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.countError()
		return fmt.Errorf("telemetry: publish timeout")
	}
	if err := token.Error(); err != nil {
		e.countError()
		return fmt.Errorf("telemetry: publish failed: %w", err)
	}

	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()

	slog.Debug("telemetry: event published", "topic", topic, "qos", qos, "size", len(payload))
	return nil
}

// Topic returns the topic an event kind is published on.
func Topic(prefix string, kind eventbus.Kind) string {
	return prefix + "/" + string(kind)
}

// Decode parses a published payload.
func Decode(payload []byte) (eventbus.Event, error) {
	var ev eventbus.Event
	if err := msgpack.Unmarshal(payload, &ev); err != nil {
		return eventbus.Event{}, fmt.Errorf("telemetry: decode: %w", err)
	}
	return ev, nil
}

// Stats contains emitter statistics
type Stats struct {
	Connected bool              `json:"connected"`
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

// Stats returns emitter statistics.
func (e *Emitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{
		Connected: e.client != nil && e.client.IsConnected(),
		Published: published,
		Errors:    e.errors,
	}
}

func (e *Emitter) countError() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}
