package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher is a Publisher backed by a paho client
type MQTTPublisher struct {
	broker   string
	clientID string
	Client   mqtt.Client

	mu        sync.RWMutex
	connected bool
}

// NewMQTTPublisher creates a publisher for broker ("host:port" or a full URL)
func NewMQTTPublisher(broker, clientID string) *MQTTPublisher {
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}
	return &MQTTPublisher{broker: broker, clientID: clientID}
}

// Connect establishes connection to MQTT broker
func (p *MQTTPublisher) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(p.broker)
	opts.SetClientID(p.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		p.setConnected(true)
		slog.Info("mqtt connection established", "broker", p.broker, "client_id", p.clientID)
	}
	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		p.setConnected(false)
		slog.Warn("mqtt connection lost, will auto-reconnect", "error", err, "broker", p.broker)
	}

	p.Client = mqtt.NewClient(opts)
	slog.Info("connecting to mqtt broker", "broker", p.broker)

	token := p.Client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	p.setConnected(true)
	return nil
}

// Publish implements Publisher
func (p *MQTTPublisher) Publish(topic string, qos byte, payload []byte) error {
	if !p.isConnected() {
		return fmt.Errorf("mqtt not connected")
	}
	token := p.Client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// Disconnect closes the MQTT connection
func (p *MQTTPublisher) Disconnect() {
	if p.Client != nil && p.Client.IsConnected() {
		p.Client.Disconnect(250)
		slog.Info("mqtt disconnected")
	}
	p.setConnected(false)
}

func (p *MQTTPublisher) setConnected(v bool) {
	p.mu.Lock()
	p.connected = v
	p.mu.Unlock()
}

func (p *MQTTPublisher) isConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected
}
