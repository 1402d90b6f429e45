package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

// --- Mock MarketPriceRepository ---

type mockPriceRepo struct {
	insertFn func(ctx context.Context, price *domain.MarketPrice) error
	latestFn func(ctx context.Context, crop, region string) (*domain.MarketPrice, error)
	seriesFn func(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error)
}

func (m *mockPriceRepo) Insert(ctx context.Context, price *domain.MarketPrice) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, price)
	}
	return nil
}

func (m *mockPriceRepo) InsertBatch(ctx context.Context, prices []domain.MarketPrice) error {
	return nil
}

func (m *mockPriceRepo) Latest(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, crop, region)
	}
	return nil, errors.New("no rows in result set")
}

func (m *mockPriceRepo) Series(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error) {
	if m.seriesFn != nil {
		return m.seriesFn(ctx, crop, region, since)
	}
	return nil, nil
}

// --- Mock PriceFeed ---

type mockPriceFeed struct {
	quoteFn func(ctx context.Context, crop, region string) (*domain.MarketPrice, error)
}

func (m *mockPriceFeed) Quote(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
	if m.quoteFn != nil {
		return m.quoteFn(ctx, crop, region)
	}
	return nil, errors.New("unknown crop")
}

// --- Tests ---

func TestMarketService_Current_FeedWins(t *testing.T) {
	feed := &mockPriceFeed{
		quoteFn: func(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
			return &domain.MarketPrice{Crop: crop, Region: region, Price: 15300}, nil
		},
	}
	repo := &mockPriceRepo{
		latestFn: func(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
			t.Error("repository should not be hit when the feed answers")
			return nil, nil
		},
	}

	svc := usecases.NewMarketService(repo, feed, nil, &mockPublisher{}, "Central district")
	price, err := svc.Current(context.Background(), "winter wheat", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Price != 15300 {
		t.Errorf("expected feed price, got %f", price.Price)
	}
	if price.Region != "Central district" {
		t.Errorf("expected default region, got %s", price.Region)
	}
}

func TestMarketService_Current_RepoFallback(t *testing.T) {
	repo := &mockPriceRepo{
		latestFn: func(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
			return &domain.MarketPrice{Crop: crop, Region: region, Price: 9800}, nil
		},
	}

	svc := usecases.NewMarketService(repo, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	price, err := svc.Current(context.Background(), "lentils", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price.Price != 9800 {
		t.Errorf("expected recorded price, got %f", price.Price)
	}
}

func TestMarketService_Current_NothingKnown(t *testing.T) {
	svc := usecases.NewMarketService(&mockPriceRepo{}, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	_, err := svc.Current(context.Background(), "durian", "")
	if err == nil {
		t.Error("expected error when neither feed nor repository knows the crop")
	}
}

func TestMarketService_Current_EmptyCrop(t *testing.T) {
	svc := usecases.NewMarketService(&mockPriceRepo{}, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	_, err := svc.Current(context.Background(), "", "")
	if err == nil {
		t.Error("expected error for empty crop")
	}
}

func TestMarketService_Trend_FromRecordedSeries(t *testing.T) {
	now := time.Now()
	repo := &mockPriceRepo{
		seriesFn: func(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error) {
			return []domain.MarketPrice{
				{Crop: crop, Price: 100, Date: now.AddDate(0, 0, -20)},
				{Crop: crop, Price: 105, Date: now.AddDate(0, 0, -10)},
				{Crop: crop, Price: 110, Date: now},
			}, nil
		},
	}

	svc := usecases.NewMarketService(repo, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	trend, err := svc.Trend(context.Background(), "soybean", "", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trend.Direction != "up" {
		t.Errorf("expected up, got %s", trend.Direction)
	}
	if !almostEqual(trend.ChangePct, 10, 1e-9) {
		t.Errorf("expected +10%%, got %f", trend.ChangePct)
	}
	if len(trend.Series) != 3 {
		t.Errorf("expected the recorded series back, got %d points", len(trend.Series))
	}
}

func TestMarketService_Trend_SyntheticWhenSparse(t *testing.T) {
	feed := &mockPriceFeed{
		quoteFn: func(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
			return &domain.MarketPrice{Crop: crop, Region: region, Price: 20000}, nil
		},
	}

	svc := usecases.NewMarketService(&mockPriceRepo{}, feed, nil, &mockPublisher{}, "Central district")
	trend, err := svc.Trend(context.Background(), "potato", "", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend.Series) != 30 {
		t.Fatalf("expected 30 synthetic points, got %d", len(trend.Series))
	}
	// Day 0 drifts -3%, day 29 drifts -2%: a small rise.
	if trend.Direction != "up" {
		t.Errorf("expected up from the deterministic drift, got %s", trend.Direction)
	}
	if trend.Series[0].Source != "synthetic" {
		t.Errorf("expected synthetic source, got %s", trend.Series[0].Source)
	}
}

func TestMarketService_Trend_Flat(t *testing.T) {
	now := time.Now()
	repo := &mockPriceRepo{
		seriesFn: func(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error) {
			return []domain.MarketPrice{
				{Crop: crop, Price: 100, Date: now.AddDate(0, 0, -7)},
				{Crop: crop, Price: 100.2, Date: now},
			}, nil
		},
	}

	svc := usecases.NewMarketService(repo, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	trend, err := svc.Trend(context.Background(), "flax", "", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trend.Direction != "flat" {
		t.Errorf("expected flat within ±0.5%%, got %s", trend.Direction)
	}
}

func TestMarketService_Trend_ClampsDays(t *testing.T) {
	var gotSince time.Time
	repo := &mockPriceRepo{
		seriesFn: func(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error) {
			gotSince = since
			return []domain.MarketPrice{{Price: 1}, {Price: 1}}, nil
		},
	}

	svc := usecases.NewMarketService(repo, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	_, err := svc.Trend(context.Background(), "oats", "", 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(gotSince) > 31*24*time.Hour {
		t.Errorf("expected window clamped to 30 days, got since=%s", gotSince)
	}
}

func TestMarketService_RecordPrice(t *testing.T) {
	var inserted *domain.MarketPrice
	repo := &mockPriceRepo{
		insertFn: func(ctx context.Context, price *domain.MarketPrice) error {
			inserted = price
			return nil
		},
	}
	var published *domain.MarketPrice
	pub := &mockPublisher{
		priceFn: func(ctx context.Context, price *domain.MarketPrice) error {
			published = price
			return nil
		},
	}

	svc := usecases.NewMarketService(repo, &mockPriceFeed{}, nil, pub, "Central district")
	err := svc.RecordPrice(context.Background(), &domain.MarketPrice{Crop: "sunflower", Price: 45500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted == nil || inserted.Region != "Central district" {
		t.Errorf("expected region defaulted, got %+v", inserted)
	}
	if inserted.Date.IsZero() {
		t.Error("expected date defaulted")
	}
	if published == nil {
		t.Error("expected price update published")
	}
}

func TestMarketService_RecordPrice_Validates(t *testing.T) {
	svc := usecases.NewMarketService(&mockPriceRepo{}, &mockPriceFeed{}, nil, &mockPublisher{}, "Central district")
	if err := svc.RecordPrice(context.Background(), &domain.MarketPrice{Price: 100}); err == nil {
		t.Error("expected error for empty crop")
	}
	if err := svc.RecordPrice(context.Background(), &domain.MarketPrice{Crop: "oats"}); err == nil {
		t.Error("expected error for zero price")
	}
}
