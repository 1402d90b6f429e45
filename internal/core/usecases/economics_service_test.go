package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

func economicsFixture(t *testing.T, quote float64) *usecases.EconomicsService {
	t.Helper()

	fields := &mockFieldRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Field, error) {
			return &domain.Field{ID: id, Name: "Test Field", AreaHa: 10}, nil
		},
	}
	rules := &mockRuleRepo{
		getByCropFn: func(ctx context.Context, crop string) (*domain.CropRule, error) {
			return &domain.CropRule{
				Crop:           crop,
				YieldPotential: 4,
				FertilizerN:    100,
				FertilizerP:    50,
				FertilizerK:    40,
				MarketPrice:    12000,
			}, nil
		},
	}
	climate := &mockClimateRepo{
		summaryFn: func(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
			return &domain.ClimateSummary{FieldID: fieldID, Days: 0}, nil
		},
	}
	feed := &mockPriceFeed{}
	if quote > 0 {
		feed.quoteFn = func(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
			return &domain.MarketPrice{Crop: crop, Region: region, Price: quote}, nil
		}
	}

	rotation := usecases.NewRotationService(fields, &mockHistoryRepo{}, rules, climate, nil)
	market := usecases.NewMarketService(&mockPriceRepo{}, feed, nil, &mockPublisher{}, "Central district")
	return usecases.NewEconomicsService(fields, rules, rotation, market)
}

func TestEconomicsService_Profitability(t *testing.T) {
	svc := economicsFixture(t, 15000)

	p, err := svc.Profitability(context.Background(), "f1", "winter wheat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fertilizer: 100·50 + 50·40 + 40·30 = 8200/ha; 15000/ha fixed.
	if !almostEqual(p.FertilizerCost, 8200, 1e-9) {
		t.Errorf("expected fertilizer cost 8200, got %f", p.FertilizerCost)
	}
	if !almostEqual(p.CostsPerHa, 23200, 1e-9) {
		t.Errorf("expected costs 23200/ha, got %f", p.CostsPerHa)
	}
	// 4 t/ha at 15000/t.
	if !almostEqual(p.RevenuePerHa, 60000, 1e-9) {
		t.Errorf("expected revenue 60000/ha, got %f", p.RevenuePerHa)
	}
	if !almostEqual(p.ProfitPerHa, 36800, 1e-9) {
		t.Errorf("expected profit 36800/ha, got %f", p.ProfitPerHa)
	}
	if !almostEqual(p.ProfitabilityPct, 36800.0/23200.0*100, 1e-9) {
		t.Errorf("unexpected profitability: %f", p.ProfitabilityPct)
	}
	if !almostEqual(p.ProfitTotal, 368000, 1e-6) {
		t.Errorf("expected total profit over 10 ha = 368000, got %f", p.ProfitTotal)
	}
}

func TestEconomicsService_Profitability_FallsBackToRulePrice(t *testing.T) {
	svc := economicsFixture(t, 0) // feed knows nothing

	p, err := svc.Profitability(context.Background(), "f1", "buckwheat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PricePerTonne != 12000 {
		t.Errorf("expected rule price fallback 12000, got %f", p.PricePerTonne)
	}
}
