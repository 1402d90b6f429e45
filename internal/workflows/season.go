package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// SeasonPlanInput is the input for the season planning workflow.
type SeasonPlanInput struct {
	FieldID string
	Crop    string // empty lets the workflow pick the best-scored crop
	Year    int
}

// SeasonPlanResult reports what was planned.
type SeasonPlanResult struct {
	PlanID string
	Crop   string
}

// SeasonPlanWorkflow checks the field's climate, picks a crop when the caller
// left the choice open, stores the season plan and notifies the grower. If the
// notification fails after the plan was stored, the plan is deleted again
// (rollback) and the error is returned.
func SeasonPlanWorkflow(ctx workflow.Context, input SeasonPlanInput) (*SeasonPlanResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting season plan workflow", "fieldID", input.FieldID, "crop", input.Crop)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Climate check
	var summary domain.ClimateSummary
	err := workflow.ExecuteActivity(ctx, "FetchFieldClimate", input.FieldID).Get(ctx, &summary)
	if err != nil {
		return nil, err
	}
	logger.Info("Field climate", "days", summary.Days, "avgTemp", summary.AvgTemp)

	// Step 2: Pick a crop
	crop := input.Crop
	if crop == "" {
		if err := workflow.ExecuteActivity(ctx, "RecommendCrop", input.FieldID).Get(ctx, &crop); err != nil {
			return nil, err
		}
	}

	// Step 3: Store the plan
	var planID string
	if err := workflow.ExecuteActivity(ctx, "StoreSeasonPlan", input.FieldID, crop, input.Year).Get(ctx, &planID); err != nil {
		return nil, err
	}

	// Step 4: Notify the grower
	if err := workflow.ExecuteActivity(ctx, "NotifyGrower", input.FieldID, crop, planID).Get(ctx, nil); err != nil {
		logger.Warn("notification failed, rolling back plan", "error", err)
		// Roll back: delete the stored plan
		_ = workflow.ExecuteActivity(ctx, "DeleteSeasonPlan", planID).Get(ctx, nil)
		return nil, err
	}

	logger.Info("Season planned", "planID", planID, "crop", crop)
	return &SeasonPlanResult{PlanID: planID, Crop: crop}, nil
}
