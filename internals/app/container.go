package app

import (
	"context"
	"watchtower/config"
	"watchtower/internals/modules/agentclient"
	"watchtower/internals/modules/event"
	"watchtower/internals/modules/executor"
	"watchtower/internals/modules/monitor"
	"watchtower/internals/modules/probe"
	"watchtower/internals/modules/region"
	"watchtower/internals/modules/scheduler"
	"watchtower/internals/modules/status"
	"watchtower/internals/modules/uptime"
	"watchtower/pkg/httpclient"
	"watchtower/pkg/redisstore"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type Container struct {
	DB          *pgxpool.Pool
	RedisClient *redisstore.Client
	Logger      *zerolog.Logger
	Config      *config.Config

	UptimeSvc     *uptime.Service
	uptimeHandler *uptime.Handler

	Scheduler     *scheduler.Scheduler
	Reclaimer     *scheduler.Reclaimer
	Executor      *executor.Executor
	HealthChecker *region.HealthChecker
}

func NewContainer(ctx context.Context, db *pgxpool.Pool, cfg *config.Config, logger *zerolog.Logger) (*Container, error) {

	redisClient, err := redisstore.New(cfg.Redis)
	if err != nil {
		return nil, err
	}

	jobChan := make(chan scheduler.JobPayload, cfg.Executor.JobChannelSize)

	monitorRepo := monitor.NewRepository(db, logger)
	regionRepo := region.NewRepository(db, logger)
	eventRepo := event.NewRepository(db, logger)
	statusRepo := status.NewRepository(db, logger)

	monitorSvc := monitor.NewService(monitorRepo, redisClient, logger)
	schedulerSvc := scheduler.NewService(redisClient)

	httpClient := httpclient.NewHttpClient()
	probeEngine := probe.NewEngine()
	agentClient := agentclient.New(httpClient, cfg.Agent.SharedKey, logger)

	sch := scheduler.NewScheduler(ctx, cfg.Scheduler, jobChan, redisClient, logger)
	reclaimer := scheduler.NewReclaimer(ctx, cfg.Reclaimer, redisClient, logger)
	exec := executor.NewExecutor(
		ctx,
		cfg.Executor,
		jobChan,
		monitorSvc,
		regionRepo,
		schedulerSvc,
		eventRepo,
		statusRepo,
		agentClient,
		probeEngine,
		logger,
	)
	healthChecker := region.NewHealthChecker(ctx, cfg.RegionHealth, regionRepo, httpClient, logger)

	uptimeSvc := uptime.NewService(monitorSvc, monitorRepo, schedulerSvc, logger)
	uptimeHandler := uptime.NewHandler(uptimeSvc)

	return &Container{
		DB:            db,
		RedisClient:   redisClient,
		Logger:        logger,
		Config:        cfg,
		UptimeSvc:     uptimeSvc,
		uptimeHandler: uptimeHandler,
		Scheduler:     sch,
		Reclaimer:     reclaimer,
		Executor:      exec,
		HealthChecker: healthChecker,
	}, nil
}

// Shutdown stops accepting work and releases infra handles. The workers
// exit on the cancelled root context; anything they left unfinished stays
// inflight in Redis for the reclaimer.
func (c *Container) Shutdown() error {
	c.UptimeSvc.Shutdown()
	c.Executor.Wait()

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Error().Err(err).Msg("failed to close redis client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
