package monitor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const cacheTTL = 10 * time.Minute

// Cache is the read-through config cache. Misses and cache errors are never
// fatal, the database stays authoritative.
type Cache interface {
	GetMonitor(ctx context.Context, id string) ([]byte, bool)
	SetMonitor(ctx context.Context, id string, data []byte, ttl time.Duration) error
	DelMonitor(ctx context.Context, id string) error
}

type Service struct {
	monitorRepo *Repository
	cache       Cache
	logger      *zerolog.Logger
}

func NewService(monitorRepo *Repository, cache Cache, logger *zerolog.Logger) *Service {
	return &Service{
		monitorRepo: monitorRepo,
		cache:       cache,
		logger:      logger,
	}
}

// LoadMonitor is the hot path of pipeline step 1: every job re-reads the
// current config so edits between scheduling and firing are honored.
func (s *Service) LoadMonitor(ctx context.Context, monitorID uuid.UUID) (*Monitor, error) {

	if data, ok := s.cache.GetMonitor(ctx, monitorID.String()); ok {
		var m Monitor
		if err := json.Unmarshal(data, &m); err == nil {
			return &m, nil
		}
		// corrupted cache entry, drop it and fall through
		_ = s.cache.DelMonitor(ctx, monitorID.String())
	}

	m, err := s.monitorRepo.GetByID(ctx, monitorID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(m); err == nil {
		if err := s.cache.SetMonitor(ctx, monitorID.String(), data, cacheTTL); err != nil {
			s.logger.Debug().Err(err).Msg("failed to cache monitor config")
		}
	}

	return m, nil
}

// InvalidateCache drops the cached config after a CRUD-side mutation so the
// next firing sees the new definition immediately.
func (s *Service) InvalidateCache(ctx context.Context, monitorID uuid.UUID) {
	if err := s.cache.DelMonitor(ctx, monitorID.String()); err != nil {
		s.logger.Warn().Err(err).Str("monitor_id", monitorID.String()).Msg("failed to invalidate monitor cache")
	}
}
