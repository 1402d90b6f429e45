package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber sharing a NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
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
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeObservations consumes stored weather observations.
func (s *Subscriber) SubscribeObservations(ctx context.Context, handler func(ctx context.Context, rec *domain.ClimateRecord) error) error {
	sub, err := s.js.Subscribe("agro.weather.>", func(msg *nats.Msg) {
		var rec domain.ClimateRecord
		if err := json.Unmarshal(msg.Data, &rec); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &rec); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("observation-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribePriceUpdates consumes market quote announcements.
func (s *Subscriber) SubscribePriceUpdates(ctx context.Context, handler func(ctx context.Context, price *domain.MarketPrice) error) error {
	sub, err := s.js.Subscribe("agro.market.>", func(msg *nats.Msg) {
		var price domain.MarketPrice
		if err := json.Unmarshal(msg.Data, &price); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &price); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("price-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
