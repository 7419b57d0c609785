// Package mqtttest provides an in-memory mqtt.Client for tests.
package mqtttest

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Message is one recorded Publish call.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// Client records publishes and routes Deliver calls to subscribers.
// Topics match exactly; wildcards are not supported.
type Client struct {
	mu        sync.Mutex
	connected bool
	published []Message
	handlers  map[string]mqtt.MessageHandler

	// FailPublish, when set, is returned by every Publish token.
	FailPublish error
}

var _ mqtt.Client = (*Client)(nil)

// NewClient returns a connected client.
func NewClient() *Client {
	return &Client{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) IsConnectionOpen() bool { return c.IsConnected() }

// SetConnected simulates losing or regaining the broker.
func (c *Client) SetConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) Connect() mqtt.Token {
	c.SetConnected(true)
	return newToken(nil)
}

func (c *Client) Disconnect(uint) { c.SetConnected(false) }

func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = append([]byte(nil), p...)
	case string:
		b = []byte(p)
	default:
		return newToken(fmt.Errorf("mqtttest: unsupported payload %T", payload))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailPublish != nil {
		return newToken(c.FailPublish)
	}
	c.published = append(c.published, Message{Topic: topic, QoS: qos, Retained: retained, Payload: b})
	return newToken(nil)
}

func (c *Client) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	c.handlers[topic] = callback
	c.mu.Unlock()
	return newToken(nil)
}

func (c *Client) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return newToken(nil)
}

func (c *Client) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	for _, t := range topics {
		delete(c.handlers, t)
	}
	c.mu.Unlock()
	return newToken(nil)
}

func (c *Client) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.Subscribe(topic, 0, callback)
}

func (c *Client) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// Deliver hands payload to the subscriber of topic. It reports whether
// one was subscribed.
func (c *Client) Deliver(topic string, payload []byte) bool {
	c.mu.Lock()
	h := c.handlers[topic]
	c.mu.Unlock()
	if h == nil {
		return false
	}
	h(c, &message{topic: topic, payload: payload})
	return true
}

// Subscribed reports whether topic has a subscriber.
func (c *Client) Subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.handlers[topic]
	return ok
}

// Published returns a copy of every recorded publish.
func (c *Client) Published() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.published...)
}

// WaitPublished polls until at least n messages were published or the
// timeout expires, and returns what was published.
func (c *Client) WaitPublished(n int, timeout time.Duration) []Message {
	deadline := time.Now().Add(timeout)
	for {
		msgs := c.Published()
		if len(msgs) >= n || time.Now().After(deadline) {
			return msgs
		}
		time.Sleep(time.Millisecond)
	}
}

type token struct {
	err  error
	done chan struct{}
}

func newToken(err error) *token {
	t := &token{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *token) Wait() bool                     { return true }
func (t *token) WaitTimeout(time.Duration) bool { return true }
func (t *token) Done() <-chan struct{}          { return t.done }
func (t *token) Error() error                   { return t.err }

type message struct {
	topic   string
	payload []byte
}

func (m *message) Duplicate() bool   { return false }
func (m *message) Qos() byte         { return 0 }
func (m *message) Retained() bool    { return false }
func (m *message) Topic() string     { return m.topic }
func (m *message) MessageID() uint16 { return 0 }
func (m *message) Payload() []byte   { return m.payload }
func (m *message) Ack()              {}
