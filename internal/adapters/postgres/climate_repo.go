package postgres

import (
	"context"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// ClimateRepo implements ports.ClimateRepository.
type ClimateRepo struct {
	db *DB
}

// NewClimateRepo creates a new ClimateRepo.
func NewClimateRepo(db *DB) *ClimateRepo {
	return &ClimateRepo{db: db}
}

// Insert stores one day of observations. The poller runs several times a day,
// so a second write for the same field and date overwrites the first.
func (r *ClimateRepo) Insert(ctx context.Context, rec *domain.ClimateRecord) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO climate_data (field_id, date, temperature_avg, temperature_min, temperature_max,
		                          precipitation, humidity, wind_speed, solar_radiation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (field_id, date) DO UPDATE
		SET temperature_avg = EXCLUDED.temperature_avg,
		    temperature_min = EXCLUDED.temperature_min,
		    temperature_max = EXCLUDED.temperature_max,
		    precipitation = EXCLUDED.precipitation,
		    humidity = EXCLUDED.humidity,
		    wind_speed = EXCLUDED.wind_speed,
		    solar_radiation = EXCLUDED.solar_radiation
	`, rec.FieldID, rec.Date, rec.TempAvg, rec.TempMin, rec.TempMax,
		rec.Precipitation, rec.Humidity, rec.WindSpeed, rec.SolarRadiation)
	return err
}

// Range returns observations for a field between two dates, oldest first.
func (r *ClimateRepo) Range(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, field_id, date, temperature_avg, temperature_min, temperature_max,
		       precipitation, humidity, wind_speed, solar_radiation
		FROM climate_data
		WHERE field_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, fieldID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.ClimateRecord
	for rows.Next() {
		var rec domain.ClimateRecord
		if err := rows.Scan(
			&rec.ID, &rec.FieldID, &rec.Date, &rec.TempAvg, &rec.TempMin, &rec.TempMax,
			&rec.Precipitation, &rec.Humidity, &rec.WindSpeed, &rec.SolarRadiation,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summary aggregates the season between two dates for yield prediction.
func (r *ClimateRepo) Summary(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error) {
	s := &domain.ClimateSummary{FieldID: fieldID}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(temperature_avg), 0),
		       COALESCE(SUM(precipitation), 0)
		FROM climate_data
		WHERE field_id = $1 AND date BETWEEN $2 AND $3
	`, fieldID, from, to).Scan(&s.Days, &s.AvgTemp, &s.TotalPrecipitation)
	if err != nil {
		return nil, err
	}
	return s, nil
}
