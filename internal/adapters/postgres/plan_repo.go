package postgres

import (
	"context"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// SeasonPlanRepo implements ports.SeasonPlanRepository.
type SeasonPlanRepo struct {
	db *DB
}

// NewSeasonPlanRepo creates a new SeasonPlanRepo.
func NewSeasonPlanRepo(db *DB) *SeasonPlanRepo {
	return &SeasonPlanRepo{db: db}
}

// Create stores a plan and fills in its generated ID.
func (r *SeasonPlanRepo) Create(ctx context.Context, plan *domain.SeasonPlan) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO season_plans (field_id, crop, year, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, plan.FieldID, plan.Crop, plan.Year, plan.Status).Scan(&plan.ID, &plan.CreatedAt)
}

// Delete removes a plan. Used by the workflow compensation path.
func (r *SeasonPlanRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM season_plans WHERE id = $1`, id)
	return err
}

// ListByField returns the plans for a field, newest first.
func (r *SeasonPlanRepo) ListByField(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, field_id, crop, year, status, created_at
		FROM season_plans
		WHERE field_id = $1
		ORDER BY year DESC, created_at DESC
	`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.SeasonPlan
	for rows.Next() {
		var p domain.SeasonPlan
		if err := rows.Scan(&p.ID, &p.FieldID, &p.Crop, &p.Year, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}
