package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"watchtower/config"
	"watchtower/internals/app"
	"watchtower/internals/server"
	"watchtower/pkg/db"
	"watchtower/pkg/logger"
)

func main() {
	// Load envs
	cfg, err := config.LoadConfig("env.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}

	// Get Context with signals attached -> whenever a signal occurs, the Done channel of ctx gets closed
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Base/global logger
	log := logger.Init(cfg)
	log.Info().Msg("logger initialized")

	// Initialize DB Pool
	dbPool, err := db.ConnectToDB(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize db pool")
	}
	log.Info().Msg("database pool initialized")

	// Inject Dependencies
	container, err := app.NewContainer(ctx, dbPool, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize dependencies")
	}
	log.Info().Msg("dependencies initialized")

	// Reconcile the schedule queue with the database before anything fires
	if err := container.UptimeSvc.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize uptime core")
	}

	// start background loops
	go container.Reclaimer.Run()
	go container.HealthChecker.Run()
	container.Scheduler.StartScheduler()
	container.Executor.StartWorkers()

	log.Info().Msg("uptime core running")

	// Register Routes
	router := app.RegisterRoutes(container)

	// Start HTTP Server -> runs in a separate goroutine and receives hook calls
	srv := server.New(fmt.Sprintf(":%d", cfg.Port), router, log)
	srv.Start()

	// main goroutine waits for graceful shutdown
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// 1. Stop HTTP server (stop accepting hook calls)
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	// 2. Shutdown background workers & infra
	if err := container.Shutdown(); err != nil {
		log.Error().Err(err).Msg("dependencies shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
