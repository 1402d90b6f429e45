package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "AGRO_FIELDS",
			Subjects:  []string{"agro.fields.>", "agro.sketch.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "AGRO_MARKET",
			Subjects:  []string{"agro.market.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "AGRO_WEATHER",
			Subjects:  []string{"agro.weather.>"},
			Retention: nats.WorkQueuePolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist — try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishFieldEvent announces a created, updated or deleted field.
func (p *Publisher) PublishFieldEvent(ctx context.Context, kind string, field *domain.Field) error {
	data, err := json.Marshal(field)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("agro.fields."+kind, data)
	return err
}

// PublishSketchUpdate announces recomputed figures for an in-progress sketch.
func (p *Publisher) PublishSketchUpdate(ctx context.Context, sketch *domain.Sketch) error {
	data, err := json.Marshal(sketch)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("agro.sketch.updated", data)
	return err
}

// PublishPriceUpdate announces a new market quote.
func (p *Publisher) PublishPriceUpdate(ctx context.Context, price *domain.MarketPrice) error {
	data, err := json.Marshal(price)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("agro.market.price_updated", data)
	return err
}

// PublishObservation announces a stored weather observation.
func (p *Publisher) PublishObservation(ctx context.Context, rec *domain.ClimateRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("agro.weather.observation", data)
	return err
}

// PublishBroadcast fans out a raw payload to every connected client.
func (p *Publisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return p.conn.Publish("agro.updates.broadcast", data)
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
