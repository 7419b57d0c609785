package config

import (
	"fmt"
	"regexp"

	"github.com/e7canasta/rawplay/modules/colorpipeline"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills in defaults
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		cfg.InstanceID = "rawplay"
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.ShutdownTimeoutS <= 0 {
		cfg.ShutdownTimeoutS = 5
	}

	// Playback
	if cfg.Playback.BufferingDepth < 0 {
		return fmt.Errorf("playback.buffering_depth must be >= 0")
	}
	if cfg.Playback.BufferingDepth == 0 {
		cfg.Playback.BufferingDepth = 8
	}
	if cfg.Playback.BufferingDepth > 256 {
		return fmt.Errorf("playback.buffering_depth must be <= 256, got %d", cfg.Playback.BufferingDepth)
	}
	if cfg.Playback.Workers < 0 {
		return fmt.Errorf("playback.workers must be >= 0")
	}
	if cfg.Playback.Gamut == "" {
		cfg.Playback.Gamut = "rec709"
	}
	if _, err := colorpipeline.ParseGamut(cfg.Playback.Gamut); err != nil {
		return fmt.Errorf("playback.gamut: %w", err)
	}
	if cfg.Playback.SeekTimeoutMS < 0 {
		return fmt.Errorf("playback.seek_timeout_ms must be >= 0")
	}
	if cfg.Playback.SeekTimeoutMS == 0 {
		cfg.Playback.SeekTimeoutMS = 2000
	}

	if cfg.Preview.Enabled && cfg.Preview.Sink == "" {
		cfg.Preview.Sink = "autovideosink"
	}

	// MQTT is optional; topics only matter with a broker
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = fmt.Sprintf("rawplay-%s", cfg.InstanceID)
		}
		if cfg.MQTT.Topics.Control == "" {
			cfg.MQTT.Topics.Control = fmt.Sprintf("rawplay/control/%s", cfg.InstanceID)
		}
		if cfg.MQTT.Topics.Events == "" {
			cfg.MQTT.Topics.Events = fmt.Sprintf("rawplay/events/%s", cfg.InstanceID)
		}
		if cfg.MQTT.QoS == nil {
			cfg.MQTT.QoS = map[string]byte{
				"control": 1,
				"events":  0,
				"state":   1,
			}
		}
		for name, q := range cfg.MQTT.QoS {
			if q > 2 {
				return fmt.Errorf("mqtt.qos.%s must be 0, 1 or 2, got %d", name, q)
			}
		}
	}

	return nil
}

// Gamut returns the parsed playback gamut. Only valid after Validate.
func (c *Config) Gamut() colorpipeline.Gamut {
	g, _ := colorpipeline.ParseGamut(c.Playback.Gamut)
	return g
}
