package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
	"github.com/MintRaspberry/AgroPlan2/internal/core/usecases"
)

// SeasonPlanActivities holds the activity implementations for the season
// planning workflow.
type SeasonPlanActivities struct {
	Planning  *usecases.PlanningService
	Rotation  *usecases.RotationService
	Fields    ports.FieldRepository
	Climate   ports.ClimateRepository
	Publisher ports.EventPublisher
}

// FetchFieldClimate returns the trailing-year climate summary for a field.
func (a *SeasonPlanActivities) FetchFieldClimate(ctx context.Context, fieldID string) (*domain.ClimateSummary, error) {
	if _, err := a.Fields.GetByID(ctx, fieldID); err != nil {
		return nil, fmt.Errorf("get field %s: %w", fieldID, err)
	}
	now := time.Now()
	summary, err := a.Climate.Summary(ctx, fieldID, now.AddDate(-1, 0, 0), now)
	if err != nil {
		return nil, fmt.Errorf("climate summary: %w", err)
	}
	return summary, nil
}

// RecommendCrop returns the best-scored crop for the field.
func (a *SeasonPlanActivities) RecommendCrop(ctx context.Context, fieldID string) (string, error) {
	recs, err := a.Rotation.Recommend(ctx, fieldID)
	if err != nil {
		return "", fmt.Errorf("recommend crop: %w", err)
	}
	if len(recs) == 0 {
		return "", fmt.Errorf("no rotation rules loaded")
	}
	return recs[0].Crop, nil
}

// StoreSeasonPlan persists the plan and returns its ID.
func (a *SeasonPlanActivities) StoreSeasonPlan(ctx context.Context, fieldID, crop string, year int) (string, error) {
	plan := &domain.SeasonPlan{FieldID: fieldID, Crop: crop, Year: year}
	if err := a.Planning.PlanSeason(ctx, plan); err != nil {
		return "", fmt.Errorf("store season plan: %w", err)
	}
	return plan.ID, nil
}

// NotifyGrower announces the stored plan to map clients.
func (a *SeasonPlanActivities) NotifyGrower(ctx context.Context, fieldID, crop, planID string) error {
	if a.Publisher == nil {
		log.Printf("NOTIFY (no publisher) → field=%s crop=%s plan=%s", fieldID, crop, planID)
		return nil
	}
	payload, err := json.Marshal(map[string]string{
		"type":     "season_plan",
		"field_id": fieldID,
		"crop":     crop,
		"plan_id":  planID,
	})
	if err != nil {
		return err
	}
	return a.Publisher.PublishBroadcast(ctx, payload)
}

// DeleteSeasonPlan removes a stored plan (workflow rollback).
func (a *SeasonPlanActivities) DeleteSeasonPlan(ctx context.Context, planID string) error {
	if err := a.Planning.CancelPlan(ctx, planID); err != nil {
		return fmt.Errorf("delete season plan %s: %w", planID, err)
	}
	log.Printf("Season plan %s deleted (rollback)", planID)
	return nil
}
