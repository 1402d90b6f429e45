package usecases

import (
	"context"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
)

// Fertilizer prices, currency per kg of active substance, plus the fixed
// per-hectare cost of machinery, seed and labor.
const (
	nitrogenPricePerKg   = 50.0
	phosphorusPricePerKg = 40.0
	potassiumPricePerKg  = 30.0
	fixedCostPerHa       = 15000.0
)

// EconomicsService computes the season economics of growing a crop on a field.
type EconomicsService struct {
	fields   ports.FieldRepository
	rules    ports.CropRuleRepository
	rotation *RotationService
	market   *MarketService
}

// NewEconomicsService creates a new EconomicsService.
func NewEconomicsService(
	fields ports.FieldRepository,
	rules ports.CropRuleRepository,
	rotation *RotationService,
	market *MarketService,
) *EconomicsService {
	return &EconomicsService{fields: fields, rules: rules, rotation: rotation, market: market}
}

// Profitability prices a season of the given crop on the field: expected
// revenue from the climate-adjusted yield against fertilizer and fixed
// costs, per hectare and for the whole field.
func (s *EconomicsService) Profitability(ctx context.Context, fieldID, crop string) (*domain.Profitability, error) {
	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	rule, err := s.rules.GetByCrop(ctx, crop)
	if err != nil {
		return nil, err
	}
	forecast, err := s.rotation.PredictYield(ctx, fieldID, crop)
	if err != nil {
		return nil, err
	}

	pricePerTonne := rule.MarketPrice
	if quote, err := s.market.Current(ctx, crop, ""); err == nil {
		pricePerTonne = quote.Price
	}

	p := &domain.Profitability{
		Crop:           rule.Crop,
		AreaHa:         field.AreaHa,
		ExpectedYield:  forecast.Predicted,
		PricePerTonne:  pricePerTonne,
		FertilizerCost: rule.FertilizerN*nitrogenPricePerKg + rule.FertilizerP*phosphorusPricePerKg + rule.FertilizerK*potassiumPricePerKg,
		FixedCost:      fixedCostPerHa,
	}
	p.RevenuePerHa = p.ExpectedYield * p.PricePerTonne
	p.CostsPerHa = p.FertilizerCost + p.FixedCost
	p.ProfitPerHa = p.RevenuePerHa - p.CostsPerHa
	if p.CostsPerHa > 0 {
		p.ProfitabilityPct = p.ProfitPerHa / p.CostsPerHa * 100
	}
	p.RevenueTotal = p.RevenuePerHa * field.AreaHa
	p.ProfitTotal = p.ProfitPerHa * field.AreaHa

	return p, nil
}
