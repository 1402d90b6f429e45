package http

import (
	"github.com/nats-io/nats.go"
	"go.temporal.io/sdk/client"

	"github.com/MintRaspberry/AgroPlan2/internal/adapters/postgres"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/valkey"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Fields    *usecases.FieldService
	Sketches  *usecases.SketchService
	Rotation  *usecases.RotationService
	Stats     *usecases.StatsService
	Market    *usecases.MarketService
	Economics *usecases.EconomicsService
	Weather   *usecases.WeatherService
	Planning  *usecases.PlanningService
	NATS      *nats.Conn
	DB        *postgres.DB
	Cache     *valkey.Cache

	// Temporal is optional. Plan creation answers 503 without it.
	Temporal  client.Client
	TaskQueue string
}
