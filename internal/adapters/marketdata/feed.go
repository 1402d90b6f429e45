package marketdata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// Feed implements ports.PriceFeed with an in-process quote table standing in
// for the ministry and exchange APIs. Quotes drift deterministically by day
// so trend endpoints have movement to show.
type Feed struct {
	region string
}

// NewFeed creates a feed quoting in the given default region.
func NewFeed(region string) *Feed {
	return &Feed{region: region}
}

var basePrices = map[string]float64{
	"winter wheat":  15000,
	"spring wheat":  14000,
	"spring barley": 12000,
	"oats":          11000,
	"peas":          25000,
	"soybean":       35000,
	"sunflower":     45000,
	"spring rapeseed": 28000,
	"flax":          30000,
	"potato":        20000,
	"sugar beet":    18000,
	"corn (grain)":  12000,
	"buckwheat":     32000,
	"alfalfa":       18000,
}

// Quote returns the current quote for a crop. Unknown crops are an error.
func (f *Feed) Quote(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
	base, ok := basePrices[crop]
	if !ok {
		return nil, fmt.Errorf("no quote for crop %q", crop)
	}
	if region == "" {
		region = f.region
	}

	now := time.Now().UTC()
	// Small weekly oscillation, at most a few percent either way.
	drift := float64(now.YearDay()%7-3) * 0.01
	price := math.Round(base * (1 + drift))

	return &domain.MarketPrice{
		Crop:   crop,
		Price:  price,
		Date:   now,
		Region: region,
		Source: "ministry feed",
	}, nil
}

// Crops lists every crop the feed can quote.
func (f *Feed) Crops() []string {
	crops := make([]string, 0, len(basePrices))
	for crop := range basePrices {
		crops = append(crops, crop)
	}
	return crops
}
