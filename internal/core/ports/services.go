package ports

import (
	"context"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishFieldEvent(ctx context.Context, kind string, field *domain.Field) error
	PublishSketchUpdate(ctx context.Context, sketch *domain.Sketch) error
	PublishPriceUpdate(ctx context.Context, price *domain.MarketPrice) error
	PublishObservation(ctx context.Context, record *domain.ClimateRecord) error
	PublishBroadcast(ctx context.Context, data []byte) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeObservations(ctx context.Context, handler func(ctx context.Context, record *domain.ClimateRecord) error) error
	SubscribePriceUpdates(ctx context.Context, handler func(ctx context.Context, price *domain.MarketPrice) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// WeatherProvider fetches current conditions for a coordinate.
type WeatherProvider interface {
	Current(ctx context.Context, lat, lng float64) (*domain.WeatherSnapshot, error)
}

// PriceFeed quotes current market prices for crops.
type PriceFeed interface {
	Quote(ctx context.Context, crop, region string) (*domain.MarketPrice, error)
}
