package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "huecam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, 15, cfg.Sensitivity)
	assert.Equal(t, 1000.0, cfg.MinRegionArea)
	assert.Equal(t, 1, cfg.FrameQueueDepth)
	assert.Equal(t, 5*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 15*time.Millisecond, cfg.RenderPeriod())
	assert.True(t, cfg.Smoothing)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
device: rtsp://cam.local/stream
sensitivity: 20
lookup_timeout: 2s
render_interval_ms: 33
mqtt:
  broker: localhost:1883
  qos: 1
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "rtsp://cam.local/stream", cfg.Device)
	assert.Equal(t, 20, cfg.Sensitivity)
	assert.Equal(t, 2*time.Second, cfg.LookupTimeout)
	assert.Equal(t, 33, cfg.RenderInterval)
	assert.Equal(t, "localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, 1, cfg.MQTT.QoS)

	// untouched keys keep their defaults
	assert.Equal(t, 1000.0, cfg.MinRegionArea)
	assert.True(t, cfg.Smoothing)
	assert.Equal(t, "huecam", cfg.MQTT.TopicPrefix)
	assert.Equal(t, time.Second, cfg.MQTT.RegionPeriod())
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "sensitivity: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "frame_queue_depth: 3\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty device", func(c *Config) { c.Device = "" }},
		{"negative sensitivity", func(c *Config) { c.Sensitivity = -1 }},
		{"sensitivity past hue range", func(c *Config) { c.Sensitivity = 180 }},
		{"zero area", func(c *Config) { c.MinRegionArea = 0 }},
		{"queue depth 2", func(c *Config) { c.FrameQueueDepth = 2 }},
		{"queue depth 0", func(c *Config) { c.FrameQueueDepth = 0 }},
		{"zero lookup timeout", func(c *Config) { c.LookupTimeout = 0 }},
		{"relative lookup url", func(c *Config) { c.LookupURL = "/id" }},
		{"ftp lookup url", func(c *Config) { c.LookupURL = "ftp://example.com/id" }},
		{"render interval 0", func(c *Config) { c.RenderInterval = 0 }},
		{"render interval 1001", func(c *Config) { c.RenderInterval = 1001 }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -5 }},
		{"jpg every 0", func(c *Config) { c.JPGEvery = 0 }},
		{"qos 3", func(c *Config) { c.MQTT.QoS = 3 }},
		{"broker without client id", func(c *Config) {
			c.MQTT.Broker = "localhost:1883"
			c.MQTT.ClientID = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), ErrInvalid)
		})
	}
}

func TestSet(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Set("sensitivity", "25"))
	require.NoError(t, cfg.Set("lookup-timeout", "750ms"))
	require.NoError(t, cfg.Set("smoothing", "false"))
	require.NoError(t, cfg.Set("mqtt-broker", "tcp://broker:1883"))
	require.NoError(t, cfg.Set("mqtt-region-interval-ms", "250"))

	assert.Equal(t, 25, cfg.Sensitivity)
	assert.Equal(t, 750*time.Millisecond, cfg.LookupTimeout)
	assert.False(t, cfg.Smoothing)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
	assert.Equal(t, 250*time.Millisecond, cfg.MQTT.RegionPeriod())

	assert.ErrorIs(t, cfg.Set("sensitivity", "wide"), ErrInvalid)
	assert.ErrorIs(t, cfg.Set("colour", "red"), ErrInvalid)
}
