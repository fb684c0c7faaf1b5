package config

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid configuration")

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if cfg.Device == "" {
		return invalid("device is required")
	}
	if cfg.Sensitivity < 0 || cfg.Sensitivity > 179 {
		return invalid("sensitivity must be in [0,179], got %d", cfg.Sensitivity)
	}
	if cfg.MinRegionArea <= 0 {
		return invalid("min_region_area must be > 0")
	}
	if cfg.FrameQueueDepth != 1 {
		return invalid("frame_queue_depth is fixed at 1, got %d", cfg.FrameQueueDepth)
	}
	if cfg.LookupTimeout <= 0 {
		return invalid("lookup_timeout must be > 0")
	}

	u, err := url.Parse(cfg.LookupURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("lookup_url must be an absolute http(s) URL, got %q", cfg.LookupURL)
	}

	if cfg.RenderInterval < 1 || cfg.RenderInterval > 1000 {
		return invalid("render_interval_ms must be in [1,1000], got %d", cfg.RenderInterval)
	}
	if cfg.ReadTimeout < 0 {
		return invalid("read_timeout_ms must be >= 0")
	}
	if cfg.CaptureYield < 0 {
		return invalid("capture_yield_ms must be >= 0")
	}
	if cfg.JPGEvery < 1 {
		return invalid("jpg_every must be >= 1")
	}

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return invalid("mqtt.qos must be 0, 1 or 2")
	}
	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.ClientID == "" {
			return invalid("mqtt.client_id is required with a broker")
		}
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = "huecam"
		}
		if cfg.MQTT.RegionInterval <= 0 {
			return invalid("mqtt.region_interval_ms must be > 0")
		}
	}

	return nil
}
