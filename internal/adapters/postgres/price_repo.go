package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// MarketPriceRepo implements ports.MarketPriceRepository.
type MarketPriceRepo struct {
	db *DB
}

// NewMarketPriceRepo creates a new MarketPriceRepo.
func NewMarketPriceRepo(db *DB) *MarketPriceRepo {
	return &MarketPriceRepo{db: db}
}

// Insert stores a quote and fills in its generated ID.
func (r *MarketPriceRepo) Insert(ctx context.Context, p *domain.MarketPrice) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO market_prices (crop, price, date, region, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.Crop, p.Price, p.Date, p.Region, nilIfEmpty(p.Source)).Scan(&p.ID)
}

// InsertBatch stores many quotes using pgx.Batch.
func (r *MarketPriceRepo) InsertBatch(ctx context.Context, prices []domain.MarketPrice) error {
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(`
			INSERT INTO market_prices (crop, price, date, region, source)
			VALUES ($1, $2, $3, $4, $5)
		`, p.Crop, p.Price, p.Date, p.Region, nilIfEmpty(p.Source))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range prices {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// Latest returns the most recent quote for a crop in a region.
func (r *MarketPriceRepo) Latest(ctx context.Context, crop, region string) (*domain.MarketPrice, error) {
	var p domain.MarketPrice
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, crop, price, date, region, COALESCE(source, '')
		FROM market_prices
		WHERE crop = $1 AND region = $2
		ORDER BY date DESC
		LIMIT 1
	`, crop, region).Scan(&p.ID, &p.Crop, &p.Price, &p.Date, &p.Region, &p.Source)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Series returns quotes for a crop in a region since the given date, oldest first.
func (r *MarketPriceRepo) Series(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, crop, price, date, region, COALESCE(source, '')
		FROM market_prices
		WHERE crop = $1 AND region = $2 AND date >= $3
		ORDER BY date
	`, crop, region, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []domain.MarketPrice
	for rows.Next() {
		var p domain.MarketPrice
		if err := rows.Scan(&p.ID, &p.Crop, &p.Price, &p.Date, &p.Region, &p.Source); err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
