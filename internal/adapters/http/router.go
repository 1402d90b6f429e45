package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/MintRaspberry/AgroPlan2/internal/pkg/metrics"
)

// deprecatedRoutes lists endpoints kept alive for old clients.
var deprecatedRoutes = []DeprecatedRoute{
	{
		// Flat recommendation path from the first release
		Path:        "/v1/recommend/:id",
		SunsetDate:  time.Date(2027, time.March, 1, 0, 0, 0, 0, time.UTC),
		Alternative: "/v1/fields/{id}/recommendations",
	},
}

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Sunset headers on legacy endpoints
	app.Use(DeprecationMiddleware(deprecatedRoutes))

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/healthz", HealthHandler(deps))
	app.Get("/readyz", ReadyHandler(deps))

	// REST API v1 — 15s per-request timeout
	v1 := app.Group("/v1")

	// Field registry
	v1.Post("/fields", timeout.NewWithContext(CreateFieldHandler(deps), 15*time.Second))
	v1.Get("/fields", timeout.NewWithContext(ListFieldsHandler(deps), 15*time.Second))
	v1.Get("/fields/nearby", timeout.NewWithContext(NearbyFieldsHandler(deps), 15*time.Second))
	v1.Get("/fields/search", timeout.NewWithContext(SearchFieldsHandler(deps), 15*time.Second))
	v1.Get("/fields/:id", timeout.NewWithContext(GetFieldHandler(deps), 15*time.Second))
	v1.Put("/fields/:id", timeout.NewWithContext(UpdateFieldHandler(deps), 15*time.Second))
	v1.Delete("/fields/:id", timeout.NewWithContext(DeleteFieldHandler(deps), 15*time.Second))

	// Crop history and statistics
	v1.Get("/fields/:id/history", timeout.NewWithContext(FieldHistoryHandler(deps), 15*time.Second))
	v1.Post("/fields/:id/history", timeout.NewWithContext(AddHistoryRecordHandler(deps), 15*time.Second))
	v1.Delete("/fields/:id/history/:recordId", timeout.NewWithContext(DeleteHistoryRecordHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/stats", timeout.NewWithContext(FieldStatsHandler(deps), 15*time.Second))

	// Agronomy
	v1.Get("/fields/:id/recommendations", timeout.NewWithContext(RecommendationsHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/advice", timeout.NewWithContext(AdviceHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/forecast", timeout.NewWithContext(ForecastHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/profitability", timeout.NewWithContext(ProfitabilityHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/climate", timeout.NewWithContext(FieldClimateHandler(deps), 15*time.Second))
	v1.Get("/fields/:id/plans", timeout.NewWithContext(FieldPlansHandler(deps), 15*time.Second))

	// Map views
	v1.Get("/fields/:id/geojson", timeout.NewWithContext(FieldGeoJSONHandler(deps), 15*time.Second))
	v1.Get("/overview/geojson", timeout.NewWithContext(OverviewGeoJSONHandler(deps), 15*time.Second))
	v1.Get("/overview/stats", timeout.NewWithContext(OverviewStatsHandler(deps), 15*time.Second))

	// Weather
	v1.Get("/weather/current", timeout.NewWithContext(WeatherCurrentHandler(deps), 15*time.Second))

	// Market
	v1.Get("/market/prices/:crop", timeout.NewWithContext(MarketPriceHandler(deps), 15*time.Second))
	v1.Post("/market/prices", timeout.NewWithContext(RecordPriceHandler(deps), 15*time.Second))
	v1.Get("/market/trend/:crop", timeout.NewWithContext(MarketTrendHandler(deps), 15*time.Second))

	// Rotation rules
	v1.Get("/crops", timeout.NewWithContext(ListCropsHandler(deps), 15*time.Second))
	v1.Get("/crops/:crop", timeout.NewWithContext(GetCropHandler(deps), 15*time.Second))

	// Sketching
	v1.Post("/sketch/events", timeout.NewWithContext(SketchEventHandler(deps), 15*time.Second))
	v1.Get("/sketch/:id", timeout.NewWithContext(GetSketchHandler(deps), 15*time.Second))
	v1.Delete("/sketch/:id", timeout.NewWithContext(DiscardSketchHandler(deps), 15*time.Second))

	// Season planning
	v1.Post("/plans", timeout.NewWithContext(StartPlanHandler(deps), 15*time.Second))

	// Deprecated alias, see deprecatedRoutes
	v1.Get("/recommend/:id", timeout.NewWithContext(RecommendationsHandler(deps), 15*time.Second))

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
