package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// CropRuleRepo implements ports.CropRuleRepository.
type CropRuleRepo struct {
	db *DB
}

// NewCropRuleRepo creates a new CropRuleRepo.
func NewCropRuleRepo(db *DB) *CropRuleRepo {
	return &CropRuleRepo{db: db}
}

const upsertRuleSQL = `
	INSERT INTO crop_rules (crop, family, good_predecessors, bad_predecessors, successors,
	                        nitrogen_effect, soil_preference, water_need,
	                        temp_min, temp_max, growing_days, ph_min, ph_max,
	                        fertilizer_n, fertilizer_p, fertilizer_k,
	                        market_price, yield_potential)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (crop) DO UPDATE
	SET family = EXCLUDED.family,
	    good_predecessors = EXCLUDED.good_predecessors,
	    bad_predecessors = EXCLUDED.bad_predecessors,
	    successors = EXCLUDED.successors,
	    nitrogen_effect = EXCLUDED.nitrogen_effect,
	    soil_preference = EXCLUDED.soil_preference,
	    water_need = EXCLUDED.water_need,
	    temp_min = EXCLUDED.temp_min, temp_max = EXCLUDED.temp_max,
	    growing_days = EXCLUDED.growing_days,
	    ph_min = EXCLUDED.ph_min, ph_max = EXCLUDED.ph_max,
	    fertilizer_n = EXCLUDED.fertilizer_n,
	    fertilizer_p = EXCLUDED.fertilizer_p,
	    fertilizer_k = EXCLUDED.fertilizer_k,
	    market_price = EXCLUDED.market_price,
	    yield_potential = EXCLUDED.yield_potential
`

func ruleArgs(rule *domain.CropRule) []interface{} {
	return []interface{}{
		rule.Crop, rule.Family, rule.GoodPredecessors, rule.BadPredecessors, rule.Successors,
		rule.NitrogenEffect, rule.SoilPreference, rule.WaterNeed,
		rule.TempMin, rule.TempMax, rule.GrowingDays, rule.PHMin, rule.PHMax,
		rule.FertilizerN, rule.FertilizerP, rule.FertilizerK,
		rule.MarketPrice, rule.YieldPotential,
	}
}

// Upsert inserts or updates a single rotation rule.
func (r *CropRuleRepo) Upsert(ctx context.Context, rule *domain.CropRule) error {
	_, err := r.db.Pool.Exec(ctx, upsertRuleSQL, ruleArgs(rule)...)
	return err
}

// UpsertBatch inserts many rotation rules using pgx.Batch.
func (r *CropRuleRepo) UpsertBatch(ctx context.Context, rules []domain.CropRule) error {
	batch := &pgx.Batch{}
	for i := range rules {
		batch.Queue(upsertRuleSQL, ruleArgs(&rules[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range rules {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByCrop returns the rotation rule for a crop.
func (r *CropRuleRepo) GetByCrop(ctx context.Context, crop string) (*domain.CropRule, error) {
	var rule domain.CropRule
	err := r.db.Pool.QueryRow(ctx, `
		SELECT crop, family, good_predecessors, bad_predecessors, successors,
		       nitrogen_effect, soil_preference, water_need,
		       temp_min, temp_max, growing_days, ph_min, ph_max,
		       fertilizer_n, fertilizer_p, fertilizer_k,
		       market_price, yield_potential
		FROM crop_rules WHERE crop = $1
	`, crop).Scan(
		&rule.Crop, &rule.Family, &rule.GoodPredecessors, &rule.BadPredecessors, &rule.Successors,
		&rule.NitrogenEffect, &rule.SoilPreference, &rule.WaterNeed,
		&rule.TempMin, &rule.TempMax, &rule.GrowingDays, &rule.PHMin, &rule.PHMax,
		&rule.FertilizerN, &rule.FertilizerP, &rule.FertilizerK,
		&rule.MarketPrice, &rule.YieldPotential,
	)
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// List returns all rotation rules ordered by crop name.
func (r *CropRuleRepo) List(ctx context.Context) ([]domain.CropRule, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT crop, family, good_predecessors, bad_predecessors, successors,
		       nitrogen_effect, soil_preference, water_need,
		       temp_min, temp_max, growing_days, ph_min, ph_max,
		       fertilizer_n, fertilizer_p, fertilizer_k,
		       market_price, yield_potential
		FROM crop_rules ORDER BY crop
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.CropRule
	for rows.Next() {
		var rule domain.CropRule
		if err := rows.Scan(
			&rule.Crop, &rule.Family, &rule.GoodPredecessors, &rule.BadPredecessors, &rule.Successors,
			&rule.NitrogenEffect, &rule.SoilPreference, &rule.WaterNeed,
			&rule.TempMin, &rule.TempMax, &rule.GrowingDays, &rule.PHMin, &rule.PHMax,
			&rule.FertilizerN, &rule.FertilizerP, &rule.FertilizerK,
			&rule.MarketPrice, &rule.YieldPotential,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
