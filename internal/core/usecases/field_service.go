package usecases

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// FieldService handles field-registry business logic.
type FieldService struct {
	fields    ports.FieldRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
	weather   ports.WeatherProvider
}

// NewFieldService creates a new FieldService.
func NewFieldService(
	fields ports.FieldRepository,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	weather ports.WeatherProvider,
) *FieldService {
	return &FieldService{fields: fields, cache: cache, publisher: publisher, weather: weather}
}

// Create registers a field. Area, centroid and bounds are derived from the
// polygon when the caller did not supply them.
func (s *FieldService) Create(ctx context.Context, field *domain.Field) error {
	if field.Name == "" {
		return fmt.Errorf("field name must not be empty")
	}
	if err := deriveFigures(field); err != nil {
		return err
	}
	if field.SoilType == "" {
		field.SoilType = "loam"
	}
	if field.ClimateZone == "" {
		field.ClimateZone = s.classifyZone(ctx, field.Centroid)
	}

	if err := s.fields.Create(ctx, field); err != nil {
		return fmt.Errorf("create field: %w", err)
	}

	// Broadcast to map clients
	_ = s.publisher.PublishFieldEvent(ctx, "created", field)

	return nil
}

// GetByID returns a single field.
func (s *FieldService) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	cacheKey := "fields:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var field domain.Field
			if err := json.Unmarshal(data, &field); err == nil {
				return &field, nil
			}
		}
	}

	field, err := s.fields.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(field); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600) // 10 min for single field
		}
	}

	return field, nil
}

// List returns one page of fields plus the total count.
func (s *FieldService) List(ctx context.Context, offset, limit int) ([]domain.Field, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.fields.List(ctx, offset, limit)
}

// Update replaces a field's attributes, recomputing the figures when the
// polygon changed.
func (s *FieldService) Update(ctx context.Context, field *domain.Field) error {
	if field.ID == "" {
		return fmt.Errorf("field id must not be empty")
	}
	if field.Name == "" {
		return fmt.Errorf("field name must not be empty")
	}
	if len(field.Polygon) > 0 {
		// Force rederivation from the new ring.
		field.AreaHa = 0
		if err := deriveFigures(field); err != nil {
			return err
		}
	}

	if err := s.fields.Update(ctx, field); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "fields:id:"+field.ID)
	}
	_ = s.publisher.PublishFieldEvent(ctx, "updated", field)

	return nil
}

// Delete removes a field and its history.
func (s *FieldService) Delete(ctx context.Context, id string) error {
	if err := s.fields.Delete(ctx, id); err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, "fields:id:"+id)
	}
	_ = s.publisher.PublishFieldEvent(ctx, "deleted", &domain.Field{ID: id})

	return nil
}

// FindNearby returns fields whose centroid lies within radiusMeters of the
// given point, nearest first.
func (s *FieldService) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Field, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if radiusMeters <= 0 || radiusMeters > 50000 {
		radiusMeters = 5000
	}

	// Try cache
	cacheKey := fmt.Sprintf("fields:nearby:%.4f:%.4f:%.0f:%d", lat, lng, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var fields []domain.Field
			if err := json.Unmarshal(data, &fields); err == nil {
				return fields, nil
			}
		}
	}

	fields, err := s.fields.FindNearby(ctx, lat, lng, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes (fields don't move)
	if s.cache != nil {
		if data, err := json.Marshal(fields); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return fields, nil
}

// Search performs fuzzy + full-text search on field names.
func (s *FieldService) Search(ctx context.Context, query string, limit int) ([]domain.Field, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	// Try cache
	cacheKey := fmt.Sprintf("fields:search:%s:%d", query, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var fields []domain.Field
			if err := json.Unmarshal(data, &fields); err == nil {
				return fields, nil
			}
		}
	}

	fields, err := s.fields.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(fields); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return fields, nil
}

// classifyZone buckets the field into a coarse climate zone from the current
// temperature at its centroid. Falls back to temperate when no weather
// provider is wired or the lookup fails.
func (s *FieldService) classifyZone(ctx context.Context, at geospatial.Point) string {
	if s.weather == nil {
		return domain.ZoneTemperate
	}
	snap, err := s.weather.Current(ctx, at.Lat, at.Lng)
	if err != nil {
		return domain.ZoneTemperate
	}
	return classifyClimateZone(snap.Temp)
}

// classifyClimateZone maps a temperature to one of the field climate zones.
func classifyClimateZone(tempC float64) string {
	switch {
	case tempC < 5:
		return domain.ZoneCold
	case tempC < 15:
		return domain.ZoneTemperate
	default:
		return domain.ZoneWarm
	}
}

// deriveFigures fills area, centroid and bounds from the polygon. A field
// without a polygon must carry an explicit centroid. The zero point counts
// as unset, not as a field in the Gulf of Guinea.
func deriveFigures(field *domain.Field) error {
	if len(field.Polygon) == 0 {
		if field.Centroid == (geospatial.Point{}) || !field.Centroid.Valid() {
			return fmt.Errorf("field needs a polygon or an explicit centroid")
		}
		return nil
	}

	if field.AreaHa == 0 {
		field.AreaHa = geospatial.PolygonAreaHectares(field.Polygon)
	}
	centroid, err := geospatial.Centroid(field.Polygon)
	if err != nil {
		return fmt.Errorf("centroid: %w", err)
	}
	field.Centroid = centroid

	minLat, minLng, maxLat, maxLng := geospatial.Envelope(field.Polygon)
	field.Bounds = &domain.Bounds{MinLat: minLat, MinLng: minLng, MaxLat: maxLat, MaxLng: maxLng}

	return nil
}
