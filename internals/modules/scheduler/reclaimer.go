package scheduler

import (
	"context"
	"time"
	"watchtower/config"
	"watchtower/pkg/redisstore"

	"github.com/rs/zerolog"
)

// Reclaimer is a background process that moves jobs whose visibility timeout
// expired from inflight back to the schedule set.
type Reclaimer struct {
	// lifecycle
	ctx      context.Context
	interval time.Duration
	limit    int

	// services
	redisSvc *redisstore.Client

	// misc
	logger *zerolog.Logger
}

func NewReclaimer(
	ctx context.Context,
	reclaimerConfig *config.ReclaimerConfig,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Reclaimer {

	return &Reclaimer{
		ctx:      ctx,
		redisSvc: redisSvc,
		interval: reclaimerConfig.Interval,
		limit:    reclaimerConfig.Limit,
		logger:   logger,
	}
}

// Run starts the Reclaimer
func (r *Reclaimer) Run() {
	if r.interval <= 0 {
		panic("reclaim loop interval must be > 0")
	}
	r.logger.Info().Msg("reclaimer started")
	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		r.logger.Info().Msg("reclaimer stopped")
	}()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.doWork()
		}
	}
}

func (r *Reclaimer) doWork() {
	count, err := r.redisSvc.ReclaimJobs(r.ctx, reclaimJobsScript, time.Now(), r.limit)
	if err != nil {
		// transient redis error, log and move on
		r.logger.Error().Err(err).Msg("failed to reclaim inflight jobs")
		return
	}
	if count > 0 {
		r.logger.Info().Msgf("reclaimed %d jobs", count)
	}
}
