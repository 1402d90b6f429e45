package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
)

// PlanningService records and lists season plans. The planner workflow calls
// it from its activities; the API reads through it.
type PlanningService struct {
	plans  ports.SeasonPlanRepository
	fields ports.FieldRepository
}

// NewPlanningService creates a new PlanningService.
func NewPlanningService(plans ports.SeasonPlanRepository, fields ports.FieldRepository) *PlanningService {
	return &PlanningService{plans: plans, fields: fields}
}

// PlanSeason persists a planned crop for a field year.
func (s *PlanningService) PlanSeason(ctx context.Context, plan *domain.SeasonPlan) error {
	if plan.FieldID == "" {
		return fmt.Errorf("field id must not be empty")
	}
	if plan.Crop == "" {
		return fmt.Errorf("crop must not be empty")
	}
	if plan.Year == 0 {
		plan.Year = time.Now().Year()
	}
	if plan.Status == "" {
		plan.Status = "planned"
	}
	if _, err := s.fields.GetByID(ctx, plan.FieldID); err != nil {
		return err
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return fmt.Errorf("create season plan: %w", err)
	}
	return nil
}

// CancelPlan removes a plan. The workflow rollback path uses it when
// notification fails after the plan was stored.
func (s *PlanningService) CancelPlan(ctx context.Context, id string) error {
	return s.plans.Delete(ctx, id)
}

// ListByField returns the plans recorded for a field, newest year first.
func (s *PlanningService) ListByField(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error) {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.plans.ListByField(ctx, fieldID)
}
