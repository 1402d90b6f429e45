package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/MintRaspberry/AgroPlan2/internal/adapters/http"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/marketdata"
	natsadapter "github.com/MintRaspberry/AgroPlan2/internal/adapters/nats"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/openweather"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/postgres"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/valkey"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/config"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/logging"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/metrics"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("agroplan-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("agroplan-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Cache is optional; services skip caching when it is absent.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable, caching disabled", "error", err)
	} else {
		cacheSvc = cache
		defer cache.Close()
	}

	// NATS publisher. Every write path announces itself, so this one is
	// not optional.
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Temporal is optional; without it POST /v1/plans answers 503.
	var temporalClient client.Client
	if tc, err := client.Dial(client.Options{HostPort: cfg.Temporal.HostPort}); err != nil {
		slog.Warn("temporal unavailable, season planning disabled", "error", err)
	} else {
		temporalClient = tc
		defer tc.Close()
	}

	// External providers
	weatherProvider := openweather.New(cfg.Weather.APIKey, cfg.Weather.BaseURL)
	priceFeed := marketdata.NewFeed(cfg.Market.Region)

	// Repos
	fieldRepo := postgres.NewFieldRepo(db)
	historyRepo := postgres.NewCropHistoryRepo(db)
	ruleRepo := postgres.NewCropRuleRepo(db)
	priceRepo := postgres.NewMarketPriceRepo(db)
	climateRepo := postgres.NewClimateRepo(db)
	planRepo := postgres.NewSeasonPlanRepo(db)

	// Use cases
	fieldSvc := usecases.NewFieldService(fieldRepo, cacheSvc, publisher, weatherProvider)
	sketchSvc := usecases.NewSketchService(publisher)
	rotationSvc := usecases.NewRotationService(fieldRepo, historyRepo, ruleRepo, climateRepo, cacheSvc)
	statsSvc := usecases.NewStatsService(fieldRepo, historyRepo, cacheSvc)
	marketSvc := usecases.NewMarketService(priceRepo, priceFeed, cacheSvc, publisher, cfg.Market.Region)
	economicsSvc := usecases.NewEconomicsService(fieldRepo, ruleRepo, rotationSvc, marketSvc)
	weatherSvc := usecases.NewWeatherService(weatherProvider, climateRepo, cacheSvc, publisher)
	planningSvc := usecases.NewPlanningService(planRepo, fieldRepo)

	deps := &http.Dependencies{
		Fields:    fieldSvc,
		Sketches:  sketchSvc,
		Rotation:  rotationSvc,
		Stats:     statsSvc,
		Market:    marketSvc,
		Economics: economicsSvc,
		Weather:   weatherSvc,
		Planning:  planningSvc,
		NATS:      natsConn,
		DB:        db,
		Cache:     cache,
		Temporal:  temporalClient,
		TaskQueue: cfg.Temporal.TaskQueue,
	}

	// DB pool gauges
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateDBPoolMetrics(db.Pool.Stat())
			}
		}
	}()

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "AgroPlan API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.agroplan.farm",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
