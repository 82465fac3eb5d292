// v1
// internal/feedpub/feedpub.go
// Package feedpub publishes raw sensor samples to an MQTT broker, mirroring how
// field devices would report readings.
package feedpub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"homesim/internal/metrics"
	"homesim/internal/models"
)

const publishTimeout = 2 * time.Second

// Config carries the MQTT options. An empty Broker disables publishing.
type Config struct {
	Broker   string
	Topic    string
	ClientID string
}

// Publisher wraps an MQTT client. Publish is best effort: broker trouble is
// logged and counted, never surfaced to the tick path.
type Publisher struct {
	client  mqtt.Client
	topic   string
	log     *slog.Logger
	enabled bool
}

// New connects to the broker. With no broker configured it returns a disabled
// publisher whose Publish is a no-op.
func New(cfg Config, log *slog.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		log.Info("sensor sample publisher disabled")
		return &Publisher{log: log}, nil
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.WaitTimeout(publishTimeout) && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	log.Info("sensor sample publisher connected", "broker", cfg.Broker, "topic", cfg.Topic)
	return &Publisher{client: client, topic: cfg.Topic, log: log, enabled: true}, nil
}

// Publish sends one sample to the configured topic.
func (p *Publisher) Publish(s models.SensorSample) {
	if !p.enabled {
		return
	}
	payload, err := json.Marshal(s)
	if err != nil {
		metrics.IncFeedPublish("marshal_error")
		p.log.Error("marshal failed", "err", err)
		return
	}
	token := p.client.Publish(p.topic, 0, false, payload)
	if token.WaitTimeout(publishTimeout) && token.Error() != nil {
		metrics.IncFeedPublish("error")
		p.log.Warn("mqtt publish failed", "err", token.Error(), "roomId", s.RoomID)
		return
	}
	metrics.IncFeedPublish("ok")
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.enabled {
		p.client.Disconnect(250)
	}
}
