package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete rawplay daemon configuration.
type Config struct {
	InstanceID       string `yaml:"instance_id"`
	Clip             string `yaml:"clip"`               // clip opened at startup (optional)
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_s"` // graceful shutdown timeout in seconds (default: 5)

	Playback PlaybackConfig `yaml:"playback"`
	Preview  PreviewConfig  `yaml:"preview"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Settings SettingsConfig `yaml:"settings"`
}

// PlaybackConfig contains player settings
type PlaybackConfig struct {
	BufferingDepth int    `yaml:"buffering_depth"` // frames decoded ahead of display (default: 8)
	Workers        int    `yaml:"workers"`         // decode goroutines, 0 = min(depth, NumCPU)
	Gamut          string `yaml:"gamut"`           // rec709, rec2020, ... (default: rec709)
	SeekTimeoutMS  int    `yaml:"seek_timeout_ms"` // default: 2000
	Autoplay       bool   `yaml:"autoplay"`
}

// PreviewConfig enables the GStreamer preview window
type PreviewConfig struct {
	Enabled bool   `yaml:"enabled"`
	Sink    string `yaml:"sink"` // GStreamer sink element (default: autovideosink)
}

// MQTTConfig contains MQTT broker settings. An empty broker disables
// telemetry and remote control.
type MQTTConfig struct {
	Broker   string          `yaml:"broker"`
	ClientID string          `yaml:"client_id"`
	Topics   MQTTTopics      `yaml:"topics"`
	QoS      map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic prefixes
type MQTTTopics struct {
	Control string `yaml:"control"`
	Events  string `yaml:"events"`
}

// HTTPConfig contains the status server settings. An empty addr disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// SettingsConfig locates the raw parameter store. An empty path disables it.
type SettingsConfig struct {
	Path string `yaml:"path"`
}

// SeekTimeout returns playback.seek_timeout_ms as a duration.
func (c *Config) SeekTimeout() time.Duration {
	return time.Duration(c.Playback.SeekTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns shutdown_timeout_s as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates YAML configuration data
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
