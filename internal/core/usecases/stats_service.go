package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/MintRaspberry/AgroPlan2/internal/core/domain"
	"github.com/MintRaspberry/AgroPlan2/internal/core/ports"
)

// StatsService manages crop history and its per-field aggregates.
type StatsService struct {
	fields  ports.FieldRepository
	history ports.CropHistoryRepository
	cache   ports.CacheService
}

// NewStatsService creates a new StatsService.
func NewStatsService(fields ports.FieldRepository, history ports.CropHistoryRepository, cache ports.CacheService) *StatsService {
	return &StatsService{fields: fields, history: history, cache: cache}
}

// AddRecord appends one season of history to a field.
func (s *StatsService) AddRecord(ctx context.Context, record *domain.CropRecord) error {
	if record.Crop == "" {
		return fmt.Errorf("crop must not be empty")
	}
	year := time.Now().Year()
	if record.Year < 1900 || record.Year > year+1 {
		return fmt.Errorf("year %d out of range", record.Year)
	}
	if record.YieldTPha < 0 {
		return fmt.Errorf("yield must not be negative")
	}
	if _, err := s.fields.GetByID(ctx, record.FieldID); err != nil {
		return err
	}

	if err := s.history.Add(ctx, record); err != nil {
		return fmt.Errorf("add history record: %w", err)
	}

	s.invalidate(ctx, record.FieldID)

	return nil
}

// History returns a field's crop history, newest year first.
func (s *StatsService) History(ctx context.Context, fieldID string) ([]domain.CropRecord, error) {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		return nil, err
	}
	return s.history.ListByField(ctx, fieldID)
}

// YieldStats returns per-crop average yield and season counts for a field.
func (s *StatsService) YieldStats(ctx context.Context, fieldID string) ([]domain.YieldStat, error) {
	if _, err := s.fields.GetByID(ctx, fieldID); err != nil {
		return nil, err
	}

	cacheKey := "fields:stats:" + fieldID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var stats []domain.YieldStat
			if err := json.Unmarshal(data, &stats); err == nil {
				return stats, nil
			}
		}
	}

	stats, err := s.history.YieldStats(ctx, fieldID)
	if err != nil {
		return nil, err
	}

	// Cache for 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return stats, nil
}

// DeleteRecord removes one history record.
func (s *StatsService) DeleteRecord(ctx context.Context, fieldID, recordID string) error {
	if err := s.history.Delete(ctx, recordID); err != nil {
		return err
	}
	s.invalidate(ctx, fieldID)
	return nil
}

func (s *StatsService) invalidate(ctx context.Context, fieldID string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, "fields:stats:"+fieldID)
	_ = s.cache.Delete(ctx, "fields:recs:"+fieldID)
}
