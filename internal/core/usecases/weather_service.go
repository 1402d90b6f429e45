package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// WeatherService serves current conditions and ingests field observations.
type WeatherService struct {
	provider  ports.WeatherProvider
	climate   ports.ClimateRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewWeatherService creates a new WeatherService.
func NewWeatherService(
	provider ports.WeatherProvider,
	climate ports.ClimateRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
) *WeatherService {
	return &WeatherService{provider: provider, climate: climate, cache: cache, publisher: publisher}
}

// Current returns the conditions at a coordinate. Responses are shared
// between nearby callers through a coarse-keyed cache.
func (s *WeatherService) Current(ctx context.Context, lat, lng float64) (*domain.WeatherSnapshot, error) {
	if !(geospatial.Point{Lat: lat, Lng: lng}).Valid() {
		return nil, fmt.Errorf("coordinates out of range: %.4f, %.4f", lat, lng)
	}

	// Two decimals ≈ 1 km, close enough for weather.
	cacheKey := fmt.Sprintf("weather:cur:%.2f:%.2f", lat, lng)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var snap domain.WeatherSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := s.provider.Current(ctx, lat, lng)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}

	// Cache for 10 minutes
	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return snap, nil
}

// IngestObservation stores one day of observed weather for a field and
// announces it to subscribers. The record date is truncated to the day so
// repeated polls upsert rather than accumulate.
func (s *WeatherService) IngestObservation(ctx context.Context, record *domain.ClimateRecord) error {
	if record.FieldID == "" {
		return fmt.Errorf("field id must not be empty")
	}
	if record.Date.IsZero() {
		record.Date = time.Now()
	}
	record.Date = record.Date.UTC().Truncate(24 * time.Hour)

	if err := s.climate.Insert(ctx, record); err != nil {
		return fmt.Errorf("insert climate record: %w", err)
	}

	_ = s.publisher.PublishObservation(ctx, record)

	return nil
}

// ClimateRange returns a field's observations between two dates, oldest
// first. Zero times default to the trailing 30 days.
func (s *WeatherService) ClimateRange(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error) {
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if from.After(to) {
		return nil, fmt.Errorf("range start %s after end %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return s.climate.Range(ctx, fieldID, from, to)
}

// Analyze summarizes a field's climate: the trailing season aggregates and
// the zone the current temperature puts it in.
func (s *WeatherService) Analyze(ctx context.Context, field *domain.Field) (*domain.ClimateSummary, string, error) {
	now := time.Now()
	summary, err := s.climate.Summary(ctx, field.ID, now.AddDate(-1, 0, 0), now)
	if err != nil {
		return nil, "", fmt.Errorf("climate summary: %w", err)
	}

	zone := field.ClimateZone
	if snap, err := s.Current(ctx, field.Centroid.Lat, field.Centroid.Lng); err == nil {
		zone = classifyClimateZone(snap.Temp)
	}
	if zone == "" {
		zone = domain.ZoneTemperate
	}

	return summary, zone, nil
}
