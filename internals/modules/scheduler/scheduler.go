package scheduler

import (
	"context"
	"time"
	"watchtower/config"
	"watchtower/pkg/redisstore"

	"github.com/rs/zerolog"
)

// Scheduler is the claim loop: every tick it atomically moves due jobs from
// the schedule set to the inflight set and hands them to the executor over
// jobChan. It never executes checks itself.
type Scheduler struct {
	ctx               context.Context
	jobChan           chan JobPayload
	redisSvc          *redisstore.Client
	interval          time.Duration
	batchSize         int
	visibilityTimeout time.Duration
	logger            *zerolog.Logger
}

func NewScheduler(
	ctx context.Context,
	schedulerConfig *config.SchedulerConfig,
	jobChan chan JobPayload,
	redisSvc *redisstore.Client,
	logger *zerolog.Logger,
) *Scheduler {

	return &Scheduler{
		ctx:               ctx,
		jobChan:           jobChan,
		redisSvc:          redisSvc,
		interval:          schedulerConfig.Interval,
		batchSize:         schedulerConfig.BatchSize,
		visibilityTimeout: schedulerConfig.VisibilityTimeout,
		logger:            logger,
	}
}

func (sc *Scheduler) StartScheduler() {
	ticker := time.NewTicker(sc.interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-sc.ctx.Done():
				sc.logger.Info().Msg("scheduler stopped")
				return

			case <-ticker.C:
				sc.doWork()
			}
		}
	}()
}

func (sc *Scheduler) doWork() {
	jobs, err := sc.redisSvc.ClaimDue(sc.ctx, claimDueJobsScript, time.Now(), sc.batchSize, sc.visibilityTimeout)
	if err != nil {
		// transient redis error, log and wait for the next tick
		sc.logger.Error().Err(err).Msg("failed to claim due jobs")
		return
	}

	for _, item := range jobs {
		id, oneOff, err := ParseMember(item.Member)
		if err != nil {
			// corrupted member, drop it from inflight so it is not replayed
			sc.logger.Warn().Str("member", item.Member).Msg("dropping unparseable schedule member")
			_ = sc.redisSvc.AckJob(sc.ctx, item.Member)
			continue
		}

		job := JobPayload{
			MonitorID: id,
			DueAt:     item.DueAt,
			OneOff:    oneOff,
			Member:    item.Member,
		}

		select {
		case sc.jobChan <- job:

		case <-sc.ctx.Done():
			return

		default:
			// jobChan full, put the job back so it is not lost and let the
			// inflight entry go
			sc.logger.Warn().Str("member", item.Member).Msg("job channel full, re-scheduling job")
			_ = sc.redisSvc.Schedule(sc.ctx, item.Member, item.DueAt)
			_ = sc.redisSvc.AckJob(sc.ctx, item.Member)
		}
	}
}
