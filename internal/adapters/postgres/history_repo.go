package postgres

import (
	"context"
	"database/sql"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// CropHistoryRepo implements ports.CropHistoryRepository.
type CropHistoryRepo struct {
	db *DB
}

// NewCropHistoryRepo creates a new CropHistoryRepo.
func NewCropHistoryRepo(db *DB) *CropHistoryRepo {
	return &CropHistoryRepo{db: db}
}

// Add inserts a history record and fills in its generated ID.
func (r *CropHistoryRepo) Add(ctx context.Context, rec *domain.CropRecord) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO crop_history (field_id, crop, year, season, yield_t_ha, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, rec.FieldID, rec.Crop, rec.Year, nilIfEmpty(rec.Season),
		nilIfZero(rec.YieldTPha), nilIfEmpty(rec.Notes),
	).Scan(&rec.ID, &rec.CreatedAt)
}

// ListByField returns the crop history of a field, newest season first.
func (r *CropHistoryRepo) ListByField(ctx context.Context, fieldID string) ([]domain.CropRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, field_id, crop, year, COALESCE(season, ''),
		       yield_t_ha, COALESCE(notes, ''), created_at
		FROM crop_history
		WHERE field_id = $1
		ORDER BY year DESC, created_at DESC
	`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.CropRecord
	for rows.Next() {
		var rec domain.CropRecord
		var yield sql.NullFloat64
		if err := rows.Scan(
			&rec.ID, &rec.FieldID, &rec.Crop, &rec.Year, &rec.Season,
			&yield, &rec.Notes, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		rec.YieldTPha = yield.Float64
		records = append(records, rec)
	}
	return records, rows.Err()
}

// YieldStats aggregates yields per crop over the field's history. NULL yields
// (seasons recorded without a harvest figure) do not enter the average.
func (r *CropHistoryRepo) YieldStats(ctx context.Context, fieldID string) ([]domain.YieldStat, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT crop, COALESCE(AVG(yield_t_ha), 0) as avg_yield, COUNT(*) as seasons
		FROM crop_history
		WHERE field_id = $1
		GROUP BY crop
		ORDER BY crop
	`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []domain.YieldStat
	for rows.Next() {
		var s domain.YieldStat
		if err := rows.Scan(&s.Crop, &s.AvgYield, &s.Seasons); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// Delete removes a single history record.
func (r *CropHistoryRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM crop_history WHERE id = $1`, id)
	return err
}

func nilIfZero(v float64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
