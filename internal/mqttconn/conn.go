// Package mqttconn dials the MQTT broker shared by telemetry and the
// control plane.
package mqttconn

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Options configure Connect.
type Options struct {
	Broker   string // host:port or a URL (tcp://, ssl://, ws://)
	ClientID string

	// ConnectTimeout bounds one connection attempt (default: 5s).
	ConnectTimeout time.Duration
	Backoff        BackoffConfig

	OnConnect        func()
	OnConnectionLost func(error)
}

// BackoffConfig contains the exponential backoff for the initial connection.
// Once connected, paho's auto-reconnect takes over.
type BackoffConfig struct {
	MaxRetries    int           // default: 5
	RetryDelay    time.Duration // initial delay (default: 1s)
	MaxRetryDelay time.Duration // cap (default: 30s)
}

// DefaultBackoffConfig returns the default backoff.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		MaxRetries:    5,
		RetryDelay:    1 * time.Second,
		MaxRetryDelay: 30 * time.Second,
	}
}

// Connect creates a client and connects it, retrying with exponential
// backoff until the broker answers, retries run out or ctx is done.
func Connect(ctx context.Context, o Options) (mqtt.Client, error) {
	if o.Broker == "" {
		return nil, fmt.Errorf("mqttconn: broker is required")
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.Backoff == (BackoffConfig{}) {
		o.Backoff = DefaultBackoffConfig()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(o.Broker))
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(o.Backoff.MaxRetryDelay)
	opts.OnConnect = func(mqtt.Client) {
		slog.Info("mqttconn: connection established", "broker", o.Broker, "client_id", o.ClientID)
		if o.OnConnect != nil {
			o.OnConnect()
		}
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		slog.Warn("mqttconn: connection lost, will auto-reconnect", "broker", o.Broker, "error", err)
		if o.OnConnectionLost != nil {
			o.OnConnectionLost(err)
		}
	}

	client := mqtt.NewClient(opts)

	var attempts uint32
	err := RunWithBackoff(ctx, func(context.Context) error {
		token := client.Connect()
		if !token.WaitTimeout(o.ConnectTimeout) {
			return fmt.Errorf("mqttconn: connection timeout after %s", o.ConnectTimeout)
		}
		return token.Error()
	}, o.Backoff, &attempts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// BrokerURL adds the tcp:// scheme to a bare host:port.
func BrokerURL(broker string) string {
	if strings.Contains(broker, "://") {
		return broker
	}
	return "tcp://" + broker
}

// ConnectFunc attempts one connection.
type ConnectFunc func(ctx context.Context) error

// RunWithBackoff calls connectFn until it succeeds.
//
// Delay before retry n is RetryDelay * 2^(n-1), capped at MaxRetryDelay.
// Returns an error once MaxRetries retries failed or ctx is cancelled.
// failures counts every failed attempt.
func RunWithBackoff(ctx context.Context, connectFn ConnectFunc, cfg BackoffConfig, failures *uint32) error {
	retries := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := connectFn(ctx)
		if err == nil {
			return nil
		}

		retries++
		if failures != nil {
			atomic.AddUint32(failures, 1)
		}
		if retries > cfg.MaxRetries {
			return fmt.Errorf("mqttconn: max retries exceeded (%d attempts): %w", cfg.MaxRetries, err)
		}

		delay := calculateBackoff(retries, cfg)
		slog.Warn("mqttconn: connection failed, retrying",
			"error", err,
			"attempt", retries,
			"max_retries", cfg.MaxRetries,
			"delay", delay,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func calculateBackoff(attempt int, cfg BackoffConfig) time.Duration {
	delay := cfg.RetryDelay * time.Duration(1<<uint(attempt-1))
	if delay > cfg.MaxRetryDelay || delay <= 0 {
		delay = cfg.MaxRetryDelay
	}
	return delay
}
