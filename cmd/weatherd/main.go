package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/adapters/openweather"
	"github.com/MintRaspberry/AgroPlan2/internal/adapters/postgres"
	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/config"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/metrics"

	natsadapter "github.com/MintRaspberry/AgroPlan2/internal/adapters/nats"
)

const (
	providerLabel = "openweather"

	// Fields whose centroids sit within this distance share one forecast
	// fetch. Keeps a registry of adjacent fields within the API quota.
	reuseRadiusMeters = 1000.0

	fieldPageSize = 500
)

func main() {
	cfg, err := config.Load("agroplan-weatherd")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// NATS (observations are announced to subscribers)
	publisher, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer publisher.Close()

	provider := openweather.New(cfg.Weather.APIKey, cfg.Weather.BaseURL)

	fieldRepo := postgres.NewFieldRepo(db)
	climateRepo := postgres.NewClimateRepo(db)
	weatherSvc := usecases.NewWeatherService(provider, climateRepo, nil, publisher)

	pollInterval := time.Duration(cfg.Weather.PollInterval) * time.Second
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Printf("AgroPlan weather poller — polling every %s", pollInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run once immediately
	pollAll(ctx, fieldRepo, provider, weatherSvc)

	for {
		select {
		case <-ticker.C:
			pollAll(ctx, fieldRepo, provider, weatherSvc)
		case <-ctx.Done():
			return
		case sig := <-quit:
			log.Printf("received signal %v, shutting down weather poller", sig)
			cancel()
			// Give in-flight fetches time to finish
			time.Sleep(2 * time.Second)
			return
		}
	}
}

// cluster groups fields whose centroids are close enough to share a fetch.
type cluster struct {
	center geospatial.Point
	fields []domain.Field
}

// pollAll fetches current conditions for every registered field and stores
// one observation per field. Nearby fields share a single provider call.
func pollAll(ctx context.Context, fields *postgres.FieldRepo, provider *openweather.Client, weather *usecases.WeatherService) {
	start := time.Now()
	defer func() {
		metrics.WeatherPollDuration.WithLabelValues(providerLabel).Observe(time.Since(start).Seconds())
	}()

	all, err := loadAllFields(ctx, fields)
	if err != nil {
		log.Printf("load fields: %v", err)
		metrics.WeatherPollErrors.WithLabelValues(providerLabel).Inc()
		return
	}
	if len(all) == 0 {
		return
	}

	clusters := clusterFields(all)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 8) // max 8 concurrent fetches

	for _, cl := range clusters {
		wg.Add(1)
		go func(cl *cluster) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			snap, err := provider.Current(ctx, cl.center.Lat, cl.center.Lng)
			if err != nil {
				log.Printf("fetch weather %.4f,%.4f: %v", cl.center.Lat, cl.center.Lng, err)
				metrics.WeatherPollErrors.WithLabelValues(providerLabel).Inc()
				return
			}

			for _, f := range cl.fields {
				record := &domain.ClimateRecord{
					FieldID:       f.ID,
					Date:          time.Now(),
					TempAvg:       snap.Temp,
					TempMin:       snap.Temp,
					TempMax:       snap.Temp,
					Precipitation: snap.Precipitation,
					Humidity:      snap.Humidity,
					WindSpeed:     snap.WindSpeed,
				}
				if err := weather.IngestObservation(ctx, record); err != nil {
					log.Printf("[%s] ingest observation: %v", f.Name, err)
					metrics.WeatherPollErrors.WithLabelValues(providerLabel).Inc()
					continue
				}
				metrics.ObservationsIngested.WithLabelValues(providerLabel).Inc()
			}
		}(cl)
	}

	wg.Wait()

	log.Printf("poll complete: %d fields, %d fetches, %s", len(all), len(clusters), time.Since(start).Round(time.Millisecond))
}

// loadAllFields pages through the whole registry.
func loadAllFields(ctx context.Context, fields *postgres.FieldRepo) ([]domain.Field, error) {
	var all []domain.Field
	for offset := 0; ; offset += fieldPageSize {
		page, total, err := fields.List(ctx, offset, fieldPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(all) >= total || len(page) == 0 {
			return all, nil
		}
	}
}

// clusterFields groups fields by centroid proximity. Greedy assignment: the
// first field seen in an area becomes the cluster center.
func clusterFields(all []domain.Field) []*cluster {
	var clusters []*cluster
	for _, f := range all {
		if !f.Centroid.Valid() {
			continue
		}

		var home *cluster
		for _, cl := range clusters {
			d := geospatial.Haversine(cl.center.Lat, cl.center.Lng, f.Centroid.Lat, f.Centroid.Lng)
			if d <= reuseRadiusMeters {
				home = cl
				break
			}
		}
		if home == nil {
			home = &cluster{center: f.Centroid}
			clusters = append(clusters, home)
		}
		home.fields = append(home.fields, f)
	}
	return clusters
}
