package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

// --- Mock SeasonPlanRepository ---

type mockPlanRepo struct {
	createFn      func(ctx context.Context, plan *domain.SeasonPlan) error
	deleteFn      func(ctx context.Context, id string) error
	listByFieldFn func(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error)
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *domain.SeasonPlan) error {
	if m.createFn != nil {
		return m.createFn(ctx, plan)
	}
	return nil
}

func (m *mockPlanRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockPlanRepo) ListByField(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error) {
	if m.listByFieldFn != nil {
		return m.listByFieldFn(ctx, fieldID)
	}
	return nil, nil
}

// --- Tests ---

func TestPlanningService_PlanSeason_Defaults(t *testing.T) {
	var created *domain.SeasonPlan
	plans := &mockPlanRepo{
		createFn: func(ctx context.Context, plan *domain.SeasonPlan) error {
			created = plan
			return nil
		},
	}

	svc := usecases.NewPlanningService(plans, &mockFieldRepo{})
	err := svc.PlanSeason(context.Background(), &domain.SeasonPlan{FieldID: "f1", Crop: "peas"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Year != time.Now().Year() {
		t.Errorf("expected current year default, got %d", created.Year)
	}
	if created.Status != "planned" {
		t.Errorf("expected planned status default, got %s", created.Status)
	}
}

func TestPlanningService_PlanSeason_Validates(t *testing.T) {
	svc := usecases.NewPlanningService(&mockPlanRepo{}, &mockFieldRepo{})
	if err := svc.PlanSeason(context.Background(), &domain.SeasonPlan{Crop: "peas"}); err == nil {
		t.Error("expected error for missing field")
	}
	if err := svc.PlanSeason(context.Background(), &domain.SeasonPlan{FieldID: "f1"}); err == nil {
		t.Error("expected error for missing crop")
	}
}

func TestPlanningService_PlanSeason_UnknownField(t *testing.T) {
	fields := &mockFieldRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Field, error) {
			return nil, errors.New("no rows in result set")
		},
	}

	svc := usecases.NewPlanningService(&mockPlanRepo{}, fields)
	err := svc.PlanSeason(context.Background(), &domain.SeasonPlan{FieldID: "ghost", Crop: "peas"})
	if err == nil {
		t.Error("expected error for unknown field")
	}
}

func TestPlanningService_CancelPlan(t *testing.T) {
	deleted := ""
	plans := &mockPlanRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	svc := usecases.NewPlanningService(plans, &mockFieldRepo{})
	if err := svc.CancelPlan(context.Background(), "plan-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "plan-7" {
		t.Errorf("expected plan-7 deleted, got %q", deleted)
	}
}
