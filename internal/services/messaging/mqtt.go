package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/config"
)

// Emitter publishes JSON payloads to an MQTT broker
type Emitter struct {
	cfg    *config.Config
	client mqtt.Client

	mu        sync.RWMutex
	connected bool
}

func NewEmitter(cfg *config.Config) *Emitter {
	return &Emitter{cfg: cfg}
}

// Connect dials the broker; paho keeps reconnecting in the background after
// the first success
func (e *Emitter) Connect(ctx context.Context) error {
	broker := e.cfg.MQTTBroker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(e.cfg.MQTTClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(mqtt.Client) {
		e.setConnected(true)
		log.Info().Str("broker", broker).Str("client_id", e.cfg.MQTTClientID).Msg("MQTT connection established")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		e.setConnected(false)
		log.Warn().Err(err).Str("broker", broker).Msg("MQTT connection lost, will auto-reconnect")
	}

	e.client = mqtt.NewClient(opts)

	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	token := e.client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	e.setConnected(true)
	return nil
}

func (e *Emitter) Publish(topic string, data interface{}) error {
	if !e.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	token := e.client.Publish(topic, byte(e.cfg.MQTTQoS), false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}
	return nil
}

func (e *Emitter) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

func (e *Emitter) Shutdown(ctx context.Context) error {
	if e.client != nil && e.client.IsConnected() {
		e.client.Disconnect(250)
		log.Info().Msg("MQTT disconnected")
	}
	e.setConnected(false)
	return nil
}

func (e *Emitter) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}
