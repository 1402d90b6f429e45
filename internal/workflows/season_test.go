package workflows_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
	"github.com/MintRaspberry/AgroPlan2/internal/workflows"
)

// Minimal port fakes backing the real activity implementations.

type fakeFields struct{}

func (f *fakeFields) Create(ctx context.Context, field *domain.Field) error { return nil }
func (f *fakeFields) Update(ctx context.Context, field *domain.Field) error { return nil }
func (f *fakeFields) Delete(ctx context.Context, id string) error           { return nil }
func (f *fakeFields) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	return &domain.Field{ID: id, Name: "Test Field", SoilType: "loam", AreaHa: 10}, nil
}
func (f *fakeFields) List(ctx context.Context, offset, limit int) ([]domain.Field, int, error) {
	return nil, 0, nil
}
func (f *fakeFields) FindNearby(ctx context.Context, lat, lng, radius float64, limit int) ([]domain.Field, error) {
	return nil, nil
}
func (f *fakeFields) Search(ctx context.Context, query string, limit int) ([]domain.Field, error) {
	return nil, nil
}

type fakeHistory struct{}

func (f *fakeHistory) Add(ctx context.Context, record *domain.CropRecord) error { return nil }
func (f *fakeHistory) ListByField(ctx context.Context, fieldID string) ([]domain.CropRecord, error) {
	return nil, nil
}
func (f *fakeHistory) YieldStats(ctx context.Context, fieldID string) ([]domain.YieldStat, error) {
	return nil, nil
}
func (f *fakeHistory) Delete(ctx context.Context, id string) error { return nil }

type fakeRules struct{ rules []domain.CropRule }

func (f *fakeRules) Upsert(ctx context.Context, rule *domain.CropRule) error        { return nil }
func (f *fakeRules) UpsertBatch(ctx context.Context, rules []domain.CropRule) error { return nil }
func (f *fakeRules) GetByCrop(ctx context.Context, crop string) (*domain.CropRule, error) {
	return &domain.CropRule{Crop: crop}, nil
}
func (f *fakeRules) List(ctx context.Context) ([]domain.CropRule, error) { return f.rules, nil }

type fakeClimate struct{}

func (f *fakeClimate) Insert(ctx context.Context, record *domain.ClimateRecord) error { return nil }
func (f *fakeClimate) Range(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error) {
	return nil, nil
}
func (f *fakeClimate) Summary(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
	return &domain.ClimateSummary{FieldID: fieldID, Days: 120, AvgTemp: 16, TotalPrecipitation: 410}, nil
}

type fakePlans struct {
	created []domain.SeasonPlan
	deleted []string
}

func (f *fakePlans) Create(ctx context.Context, plan *domain.SeasonPlan) error {
	plan.ID = "plan-1"
	f.created = append(f.created, *plan)
	return nil
}

func (f *fakePlans) Delete(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePlans) ListByField(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error) {
	return nil, nil
}

type fakePublisher struct{ broadcastErr error }

func (f *fakePublisher) PublishFieldEvent(ctx context.Context, kind string, field *domain.Field) error {
	return nil
}
func (f *fakePublisher) PublishSketchUpdate(ctx context.Context, sketch *domain.Sketch) error {
	return nil
}
func (f *fakePublisher) PublishPriceUpdate(ctx context.Context, price *domain.MarketPrice) error {
	return nil
}
func (f *fakePublisher) PublishObservation(ctx context.Context, record *domain.ClimateRecord) error {
	return nil
}
func (f *fakePublisher) PublishBroadcast(ctx context.Context, data []byte) error {
	return f.broadcastErr
}

func newActivities(plans *fakePlans, pub *fakePublisher) *workflows.SeasonPlanActivities {
	fields := &fakeFields{}
	rules := &fakeRules{rules: []domain.CropRule{{Crop: "peas"}, {Crop: "oats"}}}
	return &workflows.SeasonPlanActivities{
		Planning:  usecases.NewPlanningService(plans, fields),
		Rotation:  usecases.NewRotationService(fields, &fakeHistory{}, rules, &fakeClimate{}, nil),
		Fields:    fields,
		Climate:   &fakeClimate{},
		Publisher: pub,
	}
}

func TestSeasonPlanWorkflow_PlansRecommendedCrop(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	plans := &fakePlans{}
	env.RegisterActivity(newActivities(plans, &fakePublisher{}))

	env.ExecuteWorkflow(workflows.SeasonPlanWorkflow, workflows.SeasonPlanInput{FieldID: "f1", Year: 2027})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected workflow error: %v", err)
	}

	var result workflows.SeasonPlanResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("get result: %v", err)
	}
	// Both candidates score the same on a fresh field; ties break alphabetically.
	if result.Crop != "oats" {
		t.Errorf("expected oats recommended, got %s", result.Crop)
	}
	if result.PlanID != "plan-1" {
		t.Errorf("expected plan-1, got %s", result.PlanID)
	}
	if len(plans.created) != 1 {
		t.Fatalf("expected 1 plan stored, got %d", len(plans.created))
	}
	if plans.created[0].Year != 2027 || plans.created[0].Status != "planned" {
		t.Errorf("unexpected stored plan: %+v", plans.created[0])
	}
	if len(plans.deleted) != 0 {
		t.Errorf("no rollback expected, got deletions: %v", plans.deleted)
	}
}

func TestSeasonPlanWorkflow_KeepsRequestedCrop(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	plans := &fakePlans{}
	env.RegisterActivity(newActivities(plans, &fakePublisher{}))

	env.ExecuteWorkflow(workflows.SeasonPlanWorkflow, workflows.SeasonPlanInput{FieldID: "f1", Crop: "potato"})

	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("unexpected workflow error: %v", err)
	}
	var result workflows.SeasonPlanResult
	if err := env.GetWorkflowResult(&result); err != nil {
		t.Fatalf("get result: %v", err)
	}
	if result.Crop != "potato" {
		t.Errorf("expected requested crop kept, got %s", result.Crop)
	}
}

func TestSeasonPlanWorkflow_RollsBackOnNotifyFailure(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	plans := &fakePlans{}
	env.RegisterActivity(newActivities(plans, &fakePublisher{broadcastErr: errors.New("broker down")}))

	env.ExecuteWorkflow(workflows.SeasonPlanWorkflow, workflows.SeasonPlanInput{FieldID: "f1", Crop: "peas"})

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err == nil {
		t.Fatal("expected workflow error when notification keeps failing")
	}
	if len(plans.created) != 1 {
		t.Fatalf("expected plan stored before rollback, got %d", len(plans.created))
	}
	if len(plans.deleted) != 1 || plans.deleted[0] != "plan-1" {
		t.Errorf("expected plan-1 rolled back, got %v", plans.deleted)
	}
}
