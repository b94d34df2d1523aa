package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	scheduleRepo "agendify/database/repository/schedule"
	"agendify/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const configCachePrefix = "scheduleConfig:"

// Service serves professor schedule configurations and resolves them into
// bookable slots. Reads go through a Redis cache; saves write through and
// invalidate.
type Service struct {
	repo   scheduleRepo.ScheduleRepository
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewService(repo scheduleRepo.ScheduleRepository, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// GetConfig returns the professor's raw entry list. A professor with no
// saved configuration gets an empty list, not an error.
func (s *Service) GetConfig(ctx context.Context, professor string) ([]models.ScheduleConfigEntry, error) {
	if professor == "" {
		return nil, errors.New("professor is required")
	}

	if cached, ok := s.cacheGet(ctx, professor); ok {
		return cached, nil
	}

	entries, err := s.repo.GetByProfessor(ctx, professor)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ScheduleConfigEntry{}
	}
	s.cacheSet(ctx, professor, entries)
	return entries, nil
}

// SaveConfig validates and replaces the professor's whole configuration.
func (s *Service) SaveConfig(ctx context.Context, professor string, entries []models.ScheduleConfigEntry) error {
	if professor == "" {
		return errors.New("professor is required")
	}
	if err := models.ValidateScheduleEntries(entries); err != nil {
		return fmt.Errorf("invalid schedule configuration: %w", err)
	}
	if err := s.repo.Save(ctx, professor, entries); err != nil {
		return err
	}
	s.cacheInvalidate(ctx, professor)
	return nil
}

// AvailableSlots resolves the professor's configuration against one date.
// now anchors the past-slot cutoff; callers pass time.Now().
func (s *Service) AvailableSlots(ctx context.Context, professor string, date time.Time, now time.Time) ([]models.TimeSlot, error) {
	entries, err := s.GetConfig(ctx, professor)
	if err != nil {
		return nil, err
	}
	cfg := models.BuildScheduleConfig(entries)
	return Resolve(date, cfg, now), nil
}

func (s *Service) cacheGet(ctx context.Context, professor string) ([]models.ScheduleConfigEntry, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, configCachePrefix+professor).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		s.logger.Warn("schedule cache read failed", zap.Error(err))
		return nil, false
	}
	var entries []models.ScheduleConfigEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		s.logger.Warn("schedule cache entry corrupt, dropping it", zap.String("professor", professor))
		s.cacheInvalidate(ctx, professor)
		return nil, false
	}
	return entries, true
}

func (s *Service) cacheSet(ctx context.Context, professor string, entries []models.ScheduleConfigEntry) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, configCachePrefix+professor, data, s.ttl).Err(); err != nil {
		s.logger.Warn("schedule cache write failed", zap.Error(err))
	}
}

func (s *Service) cacheInvalidate(ctx context.Context, professor string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, configCachePrefix+professor).Err(); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.Error(err))
	}
}
