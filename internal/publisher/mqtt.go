package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/jgoulah/powerguard/internal/config"
	"github.com/jgoulah/powerguard/internal/events"
)

// Publisher forwards bus events to an MQTT broker
type Publisher struct {
	client      mqtt.Client
	topicPrefix string
	timeout     time.Duration
}

// New connects to the broker described by cfg
func New(cfg *config.Config) (*Publisher, error) {
	mqttCfg := cfg.MQTT
	if !mqttCfg.Enabled {
		return nil, fmt.Errorf("MQTT publishing is not enabled in config")
	}
	if mqttCfg.Broker == "" {
		return nil, fmt.Errorf("MQTT broker address is required when enabled")
	}

	// Configure MQTT client options
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", mqttCfg.Broker))
	opts.SetClientID("powerguard-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	if mqttCfg.Username != "" {
		opts.SetUsername(mqttCfg.Username)
	}
	if mqttCfg.Password != "" {
		opts.SetPassword(mqttCfg.Password)
	}

	// Create and connect client
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker: %w", token.Error())
	}

	return NewWithClient(client, cfg.GetTopicPrefix()), nil
}

// NewWithClient wraps an already connected client
func NewWithClient(client mqtt.Client, topicPrefix string) *Publisher {
	return &Publisher{client: client, topicPrefix: topicPrefix, timeout: 5 * time.Second}
}

// Topic returns the topic an event is published on
func (p *Publisher) Topic(e events.Event) string {
	return fmt.Sprintf("%s/controller/%d/%s", p.topicPrefix, e.Controller(), e.Kind())
}

// Publish sends one event as retained JSON
func (p *Publisher) Publish(e events.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	token := p.client.Publish(p.Topic(e), 1, true, body)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publishing to %s: timed out", p.Topic(e))
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.Topic(e), err)
	}
	return nil
}

// Attach subscribes the publisher to bus. Failures are logged, not returned,
// so a broker outage never blocks a store write.
func (p *Publisher) Attach(bus *events.Bus) (detach func()) {
	return bus.Subscribe(func(e events.Event) {
		if err := p.Publish(e); err != nil {
			log.Printf("Warning: %v", err)
		}
	})
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
