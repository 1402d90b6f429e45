package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
	"github.com/MintRaspberry/AgroPlan2/internal/pkg/geospatial"
)

// --- Mock FieldRepository ---

type mockFieldRepo struct {
	createFn     func(ctx context.Context, field *domain.Field) error
	updateFn     func(ctx context.Context, field *domain.Field) error
	deleteFn     func(ctx context.Context, id string) error
	getByIDFn    func(ctx context.Context, id string) (*domain.Field, error)
	listFn       func(ctx context.Context, offset, limit int) ([]domain.Field, int, error)
	findNearbyFn func(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.Field, error)
	searchFn     func(ctx context.Context, query string, limit int) ([]domain.Field, error)
}

func (m *mockFieldRepo) Create(ctx context.Context, field *domain.Field) error {
	if m.createFn != nil {
		return m.createFn(ctx, field)
	}
	return nil
}

func (m *mockFieldRepo) Update(ctx context.Context, field *domain.Field) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, field)
	}
	return nil
}

func (m *mockFieldRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockFieldRepo) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Field{ID: id, Name: "Test Field"}, nil
}

func (m *mockFieldRepo) List(ctx context.Context, offset, limit int) ([]domain.Field, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

func (m *mockFieldRepo) FindNearby(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.Field, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lng, radius, limit)
	}
	return nil, nil
}

func (m *mockFieldRepo) Search(ctx context.Context, query string, limit int) ([]domain.Field, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	fieldEventFn  func(ctx context.Context, kind string, field *domain.Field) error
	sketchFn      func(ctx context.Context, sketch *domain.Sketch) error
	priceFn       func(ctx context.Context, price *domain.MarketPrice) error
	observationFn func(ctx context.Context, record *domain.ClimateRecord) error
}

func (m *mockPublisher) PublishFieldEvent(ctx context.Context, kind string, field *domain.Field) error {
	if m.fieldEventFn != nil {
		return m.fieldEventFn(ctx, kind, field)
	}
	return nil
}

func (m *mockPublisher) PublishSketchUpdate(ctx context.Context, sketch *domain.Sketch) error {
	if m.sketchFn != nil {
		return m.sketchFn(ctx, sketch)
	}
	return nil
}

func (m *mockPublisher) PublishPriceUpdate(ctx context.Context, price *domain.MarketPrice) error {
	if m.priceFn != nil {
		return m.priceFn(ctx, price)
	}
	return nil
}

func (m *mockPublisher) PublishObservation(ctx context.Context, record *domain.ClimateRecord) error {
	if m.observationFn != nil {
		return m.observationFn(ctx, record)
	}
	return nil
}

func (m *mockPublisher) PublishBroadcast(ctx context.Context, data []byte) error { return nil }

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	setFn    func(ctx context.Context, key string, value []byte, ttlSeconds int) error
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttlSeconds)
	}
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

// fieldRing is a ~280 ha rectangle near Moscow used across the tests.
var fieldRing = []geospatial.Point{
	{Lat: 55.70, Lng: 37.60},
	{Lat: 55.70, Lng: 37.62},
	{Lat: 55.72, Lng: 37.62},
	{Lat: 55.72, Lng: 37.60},
}

// --- Tests ---

func TestFieldService_Create_DerivesFigures(t *testing.T) {
	var got *domain.Field
	repo := &mockFieldRepo{
		createFn: func(ctx context.Context, field *domain.Field) error {
			got = field
			return nil
		},
	}
	var publishedKind string
	pub := &mockPublisher{
		fieldEventFn: func(ctx context.Context, kind string, field *domain.Field) error {
			publishedKind = kind
			return nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, pub, nil)
	err := svc.Create(context.Background(), &domain.Field{Name: "North 40", Polygon: fieldRing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("repo was not called")
	}
	if math.Abs(got.AreaHa-279.26) > 0.1 {
		t.Errorf("expected area ~279.26 ha, got %f", got.AreaHa)
	}
	if got.Centroid.Lat != 55.71 || got.Centroid.Lng != 37.61 {
		t.Errorf("unexpected centroid: %+v", got.Centroid)
	}
	if got.Bounds == nil || got.Bounds.MinLat != 55.70 || got.Bounds.MaxLng != 37.62 {
		t.Errorf("unexpected bounds: %+v", got.Bounds)
	}
	if got.SoilType != "loam" {
		t.Errorf("expected default soil loam, got %s", got.SoilType)
	}
	if got.ClimateZone != domain.ZoneTemperate {
		t.Errorf("expected default zone temperate, got %s", got.ClimateZone)
	}
	if publishedKind != "created" {
		t.Errorf("expected created event, got %q", publishedKind)
	}
}

func TestFieldService_Create_KeepsCallerArea(t *testing.T) {
	var got *domain.Field
	repo := &mockFieldRepo{
		createFn: func(ctx context.Context, field *domain.Field) error {
			got = field
			return nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, &mockPublisher{}, nil)
	err := svc.Create(context.Background(), &domain.Field{Name: "Surveyed", Polygon: fieldRing, AreaHa: 12.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AreaHa != 12.5 {
		t.Errorf("expected caller-supplied area kept, got %f", got.AreaHa)
	}
}

func TestFieldService_Create_EmptyName(t *testing.T) {
	svc := usecases.NewFieldService(&mockFieldRepo{}, nil, &mockPublisher{}, nil)
	err := svc.Create(context.Background(), &domain.Field{Polygon: fieldRing})
	if err == nil {
		t.Error("expected error for empty name")
	}
}

func TestFieldService_Create_NoPolygonNoCentroid(t *testing.T) {
	svc := usecases.NewFieldService(&mockFieldRepo{}, nil, &mockPublisher{}, nil)
	err := svc.Create(context.Background(), &domain.Field{Name: "Blank"})
	if err == nil {
		t.Error("expected error when neither polygon nor centroid given")
	}
}

func TestFieldService_GetByID_CacheHit(t *testing.T) {
	cached, _ := json.Marshal(domain.Field{ID: "f1", Name: "Cached Field"})
	cache := &mockCache{
		getFn: func(ctx context.Context, key string) ([]byte, error) {
			return cached, nil
		},
	}
	repo := &mockFieldRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Field, error) {
			t.Error("repo should not be hit on cache hit")
			return nil, nil
		},
	}

	svc := usecases.NewFieldService(repo, cache, &mockPublisher{}, nil)
	field, err := svc.GetByID(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if field.Name != "Cached Field" {
		t.Errorf("expected cached field, got %s", field.Name)
	}
}

func TestFieldService_List_ClampsLimit(t *testing.T) {
	called := false
	repo := &mockFieldRepo{
		listFn: func(ctx context.Context, offset, limit int) ([]domain.Field, int, error) {
			called = true
			if limit != 20 {
				t.Errorf("expected limit clamped to 20, got %d", limit)
			}
			if offset != 0 {
				t.Errorf("expected offset clamped to 0, got %d", offset)
			}
			return nil, 0, nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, &mockPublisher{}, nil)
	_, _, _ = svc.List(context.Background(), -5, 999)
	if !called {
		t.Error("repo was not called")
	}
}

func TestFieldService_FindNearby_ClampsRadius(t *testing.T) {
	called := false
	repo := &mockFieldRepo{
		findNearbyFn: func(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.Field, error) {
			called = true
			if radius != 5000 {
				t.Errorf("expected radius clamped to 5000, got %f", radius)
			}
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return nil, nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, &mockPublisher{}, nil)
	_, _ = svc.FindNearby(context.Background(), 55.71, 37.61, 9e9, 9999)
	if !called {
		t.Error("repo was not called")
	}
}

func TestFieldService_Update_RecomputesFigures(t *testing.T) {
	var got *domain.Field
	repo := &mockFieldRepo{
		updateFn: func(ctx context.Context, field *domain.Field) error {
			got = field
			return nil
		},
	}
	var publishedKind string
	pub := &mockPublisher{
		fieldEventFn: func(ctx context.Context, kind string, field *domain.Field) error {
			publishedKind = kind
			return nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, pub, nil)
	field := &domain.Field{ID: "f1", Name: "Resketched", Polygon: fieldRing, AreaHa: 1}
	if err := svc.Update(context.Background(), field); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got.AreaHa-279.26) > 0.1 {
		t.Errorf("expected area recomputed from polygon, got %f", got.AreaHa)
	}
	if publishedKind != "updated" {
		t.Errorf("expected updated event, got %q", publishedKind)
	}
}

func TestFieldService_Delete_Publishes(t *testing.T) {
	var publishedKind, publishedID string
	pub := &mockPublisher{
		fieldEventFn: func(ctx context.Context, kind string, field *domain.Field) error {
			publishedKind = kind
			publishedID = field.ID
			return nil
		},
	}

	svc := usecases.NewFieldService(&mockFieldRepo{}, nil, pub, nil)
	if err := svc.Delete(context.Background(), "f9"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if publishedKind != "deleted" || publishedID != "f9" {
		t.Errorf("expected deleted event for f9, got %s %s", publishedKind, publishedID)
	}
}

func TestFieldService_Search_EmptyQuery(t *testing.T) {
	svc := usecases.NewFieldService(&mockFieldRepo{}, nil, &mockPublisher{}, nil)
	_, err := svc.Search(context.Background(), "", 10)
	if err == nil {
		t.Error("expected error for empty query")
	}
}

func TestFieldService_Create_ClassifiesZoneFromWeather(t *testing.T) {
	var got *domain.Field
	repo := &mockFieldRepo{
		createFn: func(ctx context.Context, field *domain.Field) error {
			got = field
			return nil
		},
	}
	weather := &mockWeatherProvider{
		currentFn: func(ctx context.Context, lat, lng float64) (*domain.WeatherSnapshot, error) {
			return &domain.WeatherSnapshot{Temp: 18.5}, nil
		},
	}

	svc := usecases.NewFieldService(repo, nil, &mockPublisher{}, weather)
	err := svc.Create(context.Background(), &domain.Field{Name: "South Slope", Polygon: fieldRing})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ClimateZone != domain.ZoneWarm {
		t.Errorf("expected warm zone at 18.5°C, got %s", got.ClimateZone)
	}
}
