package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration
type Config struct {
	Device          string        `yaml:"device"` // camera index or stream URL
	Sensitivity     int           `yaml:"sensitivity"`
	MinRegionArea   float64       `yaml:"min_region_area"`
	FrameQueueDepth int           `yaml:"frame_queue_depth"` // only 1 is supported
	LookupTimeout   time.Duration `yaml:"lookup_timeout"`
	LookupURL       string        `yaml:"lookup_url"`
	RenderInterval  int           `yaml:"render_interval_ms"`
	ReadTimeout     int           `yaml:"read_timeout_ms"`
	CaptureYield    int           `yaml:"capture_yield_ms"`
	Smoothing       bool          `yaml:"smoothing"`
	StatusOverlay   bool          `yaml:"status_overlay"`
	Headless        bool          `yaml:"headless"`
	JPGPath         string        `yaml:"jpg_path"`
	JPGEvery        int           `yaml:"jpg_every"`
	MQTT            MQTTConfig    `yaml:"mqtt"`
}

// MQTTConfig contains MQTT broker settings. An empty broker disables events.
type MQTTConfig struct {
	Broker         string `yaml:"broker"`
	ClientID       string `yaml:"client_id"`
	TopicPrefix    string `yaml:"topic_prefix"`
	QoS            int    `yaml:"qos"`
	RegionInterval int    `yaml:"region_interval_ms"`
}

// Defaults returns the stock configuration
func Defaults() *Config {
	return &Config{
		Device:          "0",
		Sensitivity:     15,
		MinRegionArea:   1000,
		FrameQueueDepth: 1,
		LookupTimeout:   5 * time.Second,
		LookupURL:       "https://www.thecolorapi.com/id",
		RenderInterval:  15,
		ReadTimeout:     10,
		CaptureYield:    10,
		Smoothing:       true,
		JPGEvery:        1,
		MQTT: MQTTConfig{
			ClientID:       "huecam",
			TopicPrefix:    "huecam",
			RegionInterval: 1000,
		},
	}
}

// Load reads a YAML file over the defaults and validates the result
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Set applies one option by its flag name (the YAML key with dashes, mqtt
// keys prefixed "mqtt-"). It does not validate.
func (c *Config) Set(name, value string) error {
	var err error
	switch name {
	case "device":
		c.Device = value
	case "sensitivity":
		c.Sensitivity, err = strconv.Atoi(value)
	case "min-region-area":
		c.MinRegionArea, err = strconv.ParseFloat(value, 64)
	case "frame-queue-depth":
		c.FrameQueueDepth, err = strconv.Atoi(value)
	case "lookup-timeout":
		c.LookupTimeout, err = time.ParseDuration(value)
	case "lookup-url":
		c.LookupURL = value
	case "render-interval-ms":
		c.RenderInterval, err = strconv.Atoi(value)
	case "read-timeout-ms":
		c.ReadTimeout, err = strconv.Atoi(value)
	case "capture-yield-ms":
		c.CaptureYield, err = strconv.Atoi(value)
	case "smoothing":
		c.Smoothing, err = strconv.ParseBool(value)
	case "status-overlay":
		c.StatusOverlay, err = strconv.ParseBool(value)
	case "headless":
		c.Headless, err = strconv.ParseBool(value)
	case "jpg-path":
		c.JPGPath = value
	case "jpg-every":
		c.JPGEvery, err = strconv.Atoi(value)
	case "mqtt-broker":
		c.MQTT.Broker = value
	case "mqtt-client-id":
		c.MQTT.ClientID = value
	case "mqtt-topic-prefix":
		c.MQTT.TopicPrefix = value
	case "mqtt-qos":
		c.MQTT.QoS, err = strconv.Atoi(value)
	case "mqtt-region-interval-ms":
		c.MQTT.RegionInterval, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("%w: unknown option %q", ErrInvalid, name)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q: %v", ErrInvalid, name, value, err)
	}
	return nil
}

// RenderPeriod is the render tick interval
func (c *Config) RenderPeriod() time.Duration {
	return time.Duration(c.RenderInterval) * time.Millisecond
}

// ReadTimeoutDuration is how long a tick waits for a frame
func (c *Config) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

// CaptureYieldDuration is the pause between capture reads
func (c *Config) CaptureYieldDuration() time.Duration {
	return time.Duration(c.CaptureYield) * time.Millisecond
}

// RegionPeriod throttles MQTT region snapshots
func (m MQTTConfig) RegionPeriod() time.Duration {
	return time.Duration(m.RegionInterval) * time.Millisecond
}
