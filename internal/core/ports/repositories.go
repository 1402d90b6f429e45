package ports

import (
	"context"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
)

// FieldRepository persists fields.
type FieldRepository interface {
	Create(ctx context.Context, field *domain.Field) error
	Update(ctx context.Context, field *domain.Field) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Field, error)
	List(ctx context.Context, offset, limit int) ([]domain.Field, int, error)
	FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Field, error)
	Search(ctx context.Context, query string, limit int) ([]domain.Field, error)
}

// CropHistoryRepository persists per-field crop history.
type CropHistoryRepository interface {
	Add(ctx context.Context, record *domain.CropRecord) error
	ListByField(ctx context.Context, fieldID string) ([]domain.CropRecord, error)
	YieldStats(ctx context.Context, fieldID string) ([]domain.YieldStat, error)
	Delete(ctx context.Context, id string) error
}

// CropRuleRepository persists rotation rules.
type CropRuleRepository interface {
	Upsert(ctx context.Context, rule *domain.CropRule) error
	UpsertBatch(ctx context.Context, rules []domain.CropRule) error
	GetByCrop(ctx context.Context, crop string) (*domain.CropRule, error)
	List(ctx context.Context) ([]domain.CropRule, error)
}

// MarketPriceRepository persists market quotes.
type MarketPriceRepository interface {
	Insert(ctx context.Context, price *domain.MarketPrice) error
	InsertBatch(ctx context.Context, prices []domain.MarketPrice) error
	Latest(ctx context.Context, crop, region string) (*domain.MarketPrice, error)
	Series(ctx context.Context, crop, region string, since time.Time) ([]domain.MarketPrice, error)
}

// ClimateRepository persists per-field weather observations.
type ClimateRepository interface {
	Insert(ctx context.Context, record *domain.ClimateRecord) error
	Range(ctx context.Context, fieldID string, from, to time.Time) ([]domain.ClimateRecord, error)
	Summary(ctx context.Context, fieldID string, from, to time.Time) (*domain.ClimateSummary, error)
}

// SeasonPlanRepository persists season plans produced by the planner.
type SeasonPlanRepository interface {
	Create(ctx context.Context, plan *domain.SeasonPlan) error
	Delete(ctx context.Context, id string) error
	ListByField(ctx context.Context, fieldID string) ([]domain.SeasonPlan, error)
}
