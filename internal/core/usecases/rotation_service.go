package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
)

// Recommendation scoring. Every candidate starts from the base score and is
// adjusted by what the field's history and soil say about it.
const (
	scoreBase            = 50.0
	scoreBadPredecessor  = -30.0
	scoreGoodPredecessor = 25.0
	scoreRecentRepeat    = -20.0
	scoreSoilMatch       = 10.0

	// A crop counts as "recent" when it was grown within this many years.
	rotationWindowYears = 3
)

// Yield prediction. Ideal growing conditions and how strongly deviation
// from them degrades the potential.
const (
	idealSeasonTempC    = 20.0
	idealSeasonPrecipMM = 500.0
	yieldPenaltyWeight  = 0.1
	yieldFloorFraction  = 0.5
)

// RotationService recommends crops from rotation rules, field history and
// accumulated climate data.
type RotationService struct {
	fields  ports.FieldRepository
	history ports.CropHistoryRepository
	rules   ports.CropRuleRepository
	climate ports.ClimateRepository
	cache   ports.CacheService
}

// NewRotationService creates a new RotationService.
func NewRotationService(
	fields ports.FieldRepository,
	history ports.CropHistoryRepository,
	rules ports.CropRuleRepository,
	climate ports.ClimateRepository,
	cache ports.CacheService,
) *RotationService {
	return &RotationService{fields: fields, history: history, rules: rules, climate: climate, cache: cache}
}

// Recommend scores every known crop against the field's rotation history and
// soil, best candidates first.
func (s *RotationService) Recommend(ctx context.Context, fieldID string) ([]domain.Recommendation, error) {
	cacheKey := "fields:recs:" + fieldID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var recs []domain.Recommendation
			if err := json.Unmarshal(data, &recs); err == nil {
				return recs, nil
			}
		}
	}

	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	records, err := s.history.ListByField(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rotation rules: %w", err)
	}

	// Records come back newest year first.
	lastCrop := ""
	if len(records) > 0 {
		lastCrop = records[0].Crop
	}
	cutoff := time.Now().Year() - rotationWindowYears
	recent := make(map[string]bool)
	for _, r := range records {
		if r.Year >= cutoff {
			recent[r.Crop] = true
		}
	}

	recs := make([]domain.Recommendation, 0, len(rules))
	for _, rule := range rules {
		rec := domain.Recommendation{Crop: rule.Crop, Score: scoreBase}

		if lastCrop != "" {
			switch {
			case containsFold(rule.BadPredecessors, lastCrop):
				rec.Score += scoreBadPredecessor
				rec.Reasons = append(rec.Reasons, fmt.Sprintf("%s is a bad predecessor for %s", lastCrop, rule.Crop))
			case containsFold(rule.GoodPredecessors, lastCrop):
				rec.Score += scoreGoodPredecessor
				rec.Reasons = append(rec.Reasons, fmt.Sprintf("%s is a good predecessor for %s", lastCrop, rule.Crop))
			}
		}
		if recent[rule.Crop] {
			rec.Score += scoreRecentRepeat
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("grown on this field within the last %d years", rotationWindowYears))
		}
		if field.SoilType != "" && containsFold(rule.SoilPreference, field.SoilType) {
			rec.Score += scoreSoilMatch
			rec.Reasons = append(rec.Reasons, fmt.Sprintf("prefers %s soil", field.SoilType))
		}

		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Crop < recs[j].Crop
	})

	// Cache for 5 minutes; history writes invalidate via TTL only.
	if s.cache != nil {
		if data, err := json.Marshal(recs); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return recs, nil
}

// Advise produces human-readable warnings and suggestions for planting the
// given crop on the field. month may be zero for "now".
func (s *RotationService) Advise(ctx context.Context, fieldID, crop string, month int) ([]domain.Advice, error) {
	if crop == "" {
		return nil, fmt.Errorf("crop must not be empty")
	}
	if month <= 0 || month > 12 {
		month = int(time.Now().Month())
	}

	field, err := s.fields.GetByID(ctx, fieldID)
	if err != nil {
		return nil, err
	}
	records, err := s.history.ListByField(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	var advice []domain.Advice

	cutoff := time.Now().Year() - rotationWindowYears
	repeated := false
	for _, r := range records {
		if r.Year >= cutoff && strings.EqualFold(r.Crop, crop) {
			repeated = true
			break
		}
	}
	if repeated {
		advice = append(advice, domain.Advice{
			Level:   "warning",
			Title:   "Repeat planting",
			Message: fmt.Sprintf("%s was already grown on this field within the last %d years. Pick a different crop for the rotation.", crop, rotationWindowYears),
		})
	} else {
		advice = append(advice, domain.Advice{
			Level:   "success",
			Title:   "Good choice",
			Message: fmt.Sprintf("%s fits the rotation on this field.", crop),
		})
	}

	if field.SoilType != "" {
		advice = append(advice, domain.Advice{
			Level:   "info",
			Title:   "Soil type",
			Message: fmt.Sprintf("Soil type: %s. %s", field.SoilType, soilNote(field.SoilType)),
		})
		if rule, err := s.rules.GetByCrop(ctx, crop); err == nil && len(rule.SoilPreference) > 0 {
			if !containsFold(rule.SoilPreference, field.SoilType) {
				advice = append(advice, domain.Advice{
					Level:   "warning",
					Title:   "Soil mismatch",
					Message: fmt.Sprintf("%s prefers %v; this field has %s.", crop, rule.SoilPreference, field.SoilType),
				})
			}
		}
	}

	advice = append(advice, domain.Advice{
		Level:   "info",
		Title:   "Season",
		Message: seasonNote(month),
	})

	if field.AreaHa > 0 {
		advice = append(advice, domain.Advice{
			Level:   "info",
			Title:   "Field area",
			Message: fmt.Sprintf("Area: %.1f ha. %s", field.AreaHa, areaNote(field.AreaHa)),
		})
	}

	return advice, nil
}

// PredictYield estimates the yield of a crop on a field from its potential
// and the last season of climate observations. Without climate rows the
// potential is returned unadjusted.
func (s *RotationService) PredictYield(ctx context.Context, fieldID, crop string) (*domain.YieldForecast, error) {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		return nil, err
	}
	rule, err := s.rules.GetByCrop(ctx, crop)
	if err != nil {
		return nil, err
	}

	forecast := &domain.YieldForecast{
		Crop:         rule.Crop,
		BaseYield:    rule.YieldPotential,
		TempFactor:   1,
		PrecipFactor: 1,
		Predicted:    rule.YieldPotential,
	}

	now := time.Now()
	summary, err := s.climate.Summary(ctx, fieldID, now.AddDate(-1, 0, 0), now)
	if err != nil {
		return nil, fmt.Errorf("climate summary: %w", err)
	}
	if summary.Days == 0 {
		return forecast, nil
	}

	forecast.TempFactor = 1 - math.Abs(summary.AvgTemp-idealSeasonTempC)/idealSeasonTempC*yieldPenaltyWeight
	forecast.PrecipFactor = 1 - math.Abs(summary.TotalPrecipitation-idealSeasonPrecipMM)/idealSeasonPrecipMM*yieldPenaltyWeight

	predicted := forecast.BaseYield * forecast.TempFactor * forecast.PrecipFactor
	forecast.Predicted = math.Max(predicted, forecast.BaseYield*yieldFloorFraction)

	return forecast, nil
}

// Rules returns all rotation rules.
func (s *RotationService) Rules(ctx context.Context) ([]domain.CropRule, error) {
	cacheKey := "crops:rules"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rules []domain.CropRule
			if err := json.Unmarshal(data, &rules); err == nil {
				return rules, nil
			}
		}
	}

	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, err
	}

	// Cache for 10 minutes (rules change on reseed only)
	if s.cache != nil {
		if data, err := json.Marshal(rules); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return rules, nil
}

// Rule returns the rotation rule for one crop.
func (s *RotationService) Rule(ctx context.Context, crop string) (*domain.CropRule, error) {
	return s.rules.GetByCrop(ctx, crop)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func soilNote(soil string) string {
	switch soil {
	case "loam":
		return "Suits most crops."
	case "chernozem":
		return "Excellent for all crops."
	case "sandy":
		return "Needs more irrigation and fertilizer."
	case "clay":
		return "Needs drainage improvement."
	case "peat":
		return "Needs liming."
	default:
		return "Check the crop against the soil type."
	}
}

func seasonNote(month int) string {
	switch {
	case month >= 3 && month <= 5:
		return "Optimal window for spring planting."
	case month >= 6 && month <= 8:
		return "Consider summer sowing or preparing for autumn."
	case month >= 9 && month <= 11:
		return "Suitable time for sowing winter crops."
	default:
		return "Off season. Plan next season's rotation."
	}
}

func areaNote(areaHa float64) string {
	switch {
	case areaHa < 5:
		return "Small field, consider intensive methods."
	case areaHa < 20:
		return "Mid-size field, standard practices fit."
	default:
		return "Large field, mechanized operations pay off."
	}
}
