package usecases_test

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

// --- Mock CropHistoryRepository ---

type mockHistoryRepo struct {
	addFn         func(ctx context.Context, record *domain.CropRecord) error
	listByFieldFn func(ctx context.Context, fieldID string) ([]domain.CropRecord, error)
	yieldStatsFn  func(ctx context.Context, fieldID string) ([]domain.YieldStat, error)
	deleteFn      func(ctx context.Context, id string) error
}

func (m *mockHistoryRepo) Add(ctx context.Context, record *domain.CropRecord) error {
	if m.addFn != nil {
		return m.addFn(ctx, record)
	}
	return nil
}

func (m *mockHistoryRepo) ListByField(ctx context.Context, fieldID string) ([]domain.CropRecord, error) {
	if m.listByFieldFn != nil {
		return m.listByFieldFn(ctx, fieldID)
	}
	return nil, nil
}

func (m *mockHistoryRepo) YieldStats(ctx context.Context, fieldID string) ([]domain.YieldStat, error) {
	if m.yieldStatsFn != nil {
		return m.yieldStatsFn(ctx, fieldID)
	}
	return nil, nil
}

func (m *mockHistoryRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- Mock CropRuleRepository ---

type mockRuleRepo struct {
	getByCropFn func(ctx context.Context, crop string) (*domain.CropRule, error)
	listFn      func(ctx context.Context) ([]domain.CropRule, error)
}

func (m *mockRuleRepo) Upsert(ctx context.Context, rule *domain.CropRule) error        { return nil }
func (m *mockRuleRepo) UpsertBatch(ctx context.Context, rules []domain.CropRule) error { return nil }

func (m *mockRuleRepo) GetByCrop(ctx context.Context, crop string) (*domain.CropRule, error) {
	if m.getByCropFn != nil {
		return m.getByCropFn(ctx, crop)
	}
	return &domain.CropRule{Crop: crop, YieldPotential: 4}, nil
}

func (m *mockRuleRepo) List(ctx context.Context) ([]domain.CropRule, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock ClimateRepository ---

type mockClimateRepo struct {
	insertFn  func(ctx context.Context, record *domain.ClimateRecord) error
	rangeFn   func(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error)
	summaryFn func(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error)
}

func (m *mockClimateRepo) Insert(ctx context.Context, record *domain.ClimateRecord) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, record)
	}
	return nil
}

func (m *mockClimateRepo) Range(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error) {
	if m.rangeFn != nil {
		return m.rangeFn(ctx, fieldID, from, to)
	}
	return nil, nil
}

func (m *mockClimateRepo) Summary(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, fieldID, from, to)
	}
	return &domain.ClimateSummary{FieldID: fieldID}, nil
}

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

// --- Tests ---

func rotationFixture(history []domain.CropRecord, rules []domain.CropRule, soil string) *usecases.RotationService {
	fields := &mockFieldRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Field, error) {
			return &domain.Field{ID: id, Name: "Test Field", SoilType: soil, AreaHa: 12}, nil
		},
	}
	hist := &mockHistoryRepo{
		listByFieldFn: func(ctx context.Context, fieldID string) ([]domain.CropRecord, error) {
			return history, nil
		},
	}
	ruleRepo := &mockRuleRepo{
		listFn: func(ctx context.Context) ([]domain.CropRule, error) {
			return rules, nil
		},
	}
	return usecases.NewRotationService(fields, hist, ruleRepo, &mockClimateRepo{}, nil)
}

func TestRotationService_Recommend_ScoresPredecessors(t *testing.T) {
	year := time.Now().Year()
	history := []domain.CropRecord{
		{Crop: "winter wheat", Year: year - 1},
		{Crop: "potato", Year: year - 5},
	}
	rules := []domain.CropRule{
		{Crop: "peas", GoodPredecessors: []string{"winter wheat", "spring barley"}},
		{Crop: "oats", BadPredecessors: []string{"winter wheat"}},
		{Crop: "winter wheat", SoilPreference: []string{"loam", "chernozem"}},
	}

	svc := rotationFixture(history, rules, "loam")
	recs, err := svc.Recommend(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(recs))
	}

	if recs[0].Crop != "peas" || recs[0].Score != 75 {
		t.Errorf("expected peas at 75 on top, got %s at %f", recs[0].Crop, recs[0].Score)
	}
	if len(recs[0].Reasons) == 0 || !strings.Contains(recs[0].Reasons[0], "good predecessor") {
		t.Errorf("expected good-predecessor reason, got %v", recs[0].Reasons)
	}

	// winter wheat: base 50, repeat -20, soil +10
	if recs[1].Crop != "winter wheat" || recs[1].Score != 40 {
		t.Errorf("expected winter wheat at 40, got %s at %f", recs[1].Crop, recs[1].Score)
	}

	// oats: base 50, bad predecessor -30
	if recs[2].Crop != "oats" || recs[2].Score != 20 {
		t.Errorf("expected oats at 20, got %s at %f", recs[2].Crop, recs[2].Score)
	}
}

func TestRotationService_Recommend_FreshField(t *testing.T) {
	rules := []domain.CropRule{
		{Crop: "oats"},
		{Crop: "peas"},
	}

	svc := rotationFixture(nil, rules, "")
	recs, err := svc.Recommend(context.Background(), "f1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, rec := range recs {
		if rec.Score != 50 {
			t.Errorf("expected base score for %s on a fresh field, got %f", rec.Crop, rec.Score)
		}
	}
	// Ties break alphabetically so the order is stable.
	if recs[0].Crop != "oats" || recs[1].Crop != "peas" {
		t.Errorf("unexpected tie order: %s, %s", recs[0].Crop, recs[1].Crop)
	}
}

func TestRotationService_Advise_RepeatWarning(t *testing.T) {
	year := time.Now().Year()
	history := []domain.CropRecord{{Crop: "potato", Year: year - 2}}

	svc := rotationFixture(history, nil, "loam")
	advice, err := svc.Advise(context.Background(), "f1", "potato", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(advice) == 0 {
		t.Fatal("expected advice")
	}
	if advice[0].Level != "warning" {
		t.Errorf("expected repeat-planting warning first, got %s: %s", advice[0].Level, advice[0].Title)
	}
}

func TestRotationService_Advise_GoodChoice(t *testing.T) {
	year := time.Now().Year()
	history := []domain.CropRecord{{Crop: "potato", Year: year - 5}}

	svc := rotationFixture(history, nil, "loam")
	advice, err := svc.Advise(context.Background(), "f1", "peas", 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advice[0].Level != "success" {
		t.Errorf("expected success first, got %s", advice[0].Level)
	}

	// Soil, season and area notes follow.
	if len(advice) < 4 {
		t.Fatalf("expected soil, season and area notes, got %d entries", len(advice))
	}
	var seasonMsg string
	for _, a := range advice {
		if a.Title == "Season" {
			seasonMsg = a.Message
		}
	}
	if !strings.Contains(seasonMsg, "spring") {
		t.Errorf("expected spring note for April, got %q", seasonMsg)
	}
}

func TestRotationService_Advise_EmptyCrop(t *testing.T) {
	svc := rotationFixture(nil, nil, "")
	_, err := svc.Advise(context.Background(), "f1", "", 4)
	if err == nil {
		t.Error("expected error for empty crop")
	}
}

func TestRotationService_PredictYield_NoClimate(t *testing.T) {
	fields := &mockFieldRepo{}
	rules := &mockRuleRepo{
		getByCropFn: func(ctx context.Context, crop string) (*domain.CropRule, error) {
			return &domain.CropRule{Crop: crop, YieldPotential: 3.5}, nil
		},
	}
	climate := &mockClimateRepo{
		summaryFn: func(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
			return &domain.ClimateSummary{FieldID: fieldID, Days: 0}, nil
		},
	}

	svc := usecases.NewRotationService(fields, &mockHistoryRepo{}, rules, climate, nil)
	forecast, err := svc.PredictYield(context.Background(), "f1", "oats")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forecast.Predicted != 3.5 || forecast.TempFactor != 1 || forecast.PrecipFactor != 1 {
		t.Errorf("expected unadjusted potential without climate rows, got %+v", forecast)
	}
}

func TestRotationService_PredictYield_AdjustsForClimate(t *testing.T) {
	fields := &mockFieldRepo{}
	rules := &mockRuleRepo{
		getByCropFn: func(ctx context.Context, crop string) (*domain.CropRule, error) {
			return &domain.CropRule{Crop: crop, YieldPotential: 4}, nil
		},
	}
	climate := &mockClimateRepo{
		summaryFn: func(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
			return &domain.ClimateSummary{FieldID: fieldID, Days: 120, AvgTemp: 25, TotalPrecipitation: 300}, nil
		},
	}

	svc := usecases.NewRotationService(fields, &mockHistoryRepo{}, rules, climate, nil)
	forecast, err := svc.PredictYield(context.Background(), "f1", "corn (grain)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 25°C against ideal 20 → 0.975; 300mm against ideal 500 → 0.96.
	if !almostEqual(forecast.TempFactor, 0.975, 1e-9) {
		t.Errorf("expected temp factor 0.975, got %f", forecast.TempFactor)
	}
	if !almostEqual(forecast.PrecipFactor, 0.96, 1e-9) {
		t.Errorf("expected precip factor 0.96, got %f", forecast.PrecipFactor)
	}
	if !almostEqual(forecast.Predicted, 4*0.975*0.96, 1e-9) {
		t.Errorf("expected predicted 3.744, got %f", forecast.Predicted)
	}
}

func TestRotationService_PredictYield_FloorsAtHalfPotential(t *testing.T) {
	fields := &mockFieldRepo{}
	rules := &mockRuleRepo{
		getByCropFn: func(ctx context.Context, crop string) (*domain.CropRule, error) {
			return &domain.CropRule{Crop: crop, YieldPotential: 4}, nil
		},
	}
	climate := &mockClimateRepo{
		summaryFn: func(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
			// Hostile season: both factors collapse.
			return &domain.ClimateSummary{FieldID: fieldID, Days: 200, AvgTemp: 120, TotalPrecipitation: 5000}, nil
		},
	}

	svc := usecases.NewRotationService(fields, &mockHistoryRepo{}, rules, climate, nil)
	forecast, err := svc.PredictYield(context.Background(), "f1", "flax")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forecast.Predicted != 2 {
		t.Errorf("expected floor at half potential (2.0), got %f", forecast.Predicted)
	}
}
