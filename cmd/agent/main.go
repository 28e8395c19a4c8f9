package main

import (
	"context"
	"fmt"
	stdlog "log"
	"os/signal"
	"syscall"
	"watchtower/config"
	"watchtower/internals/agent"
	"watchtower/internals/modules/probe"
	"watchtower/internals/server"
	"watchtower/pkg/logger"
)

func main() {
	cfg, err := config.LoadAgentConfig("agent.yaml")
	if err != nil {
		stdlog.Fatalf("failed to load config: %v", err)
	}
	if cfg.Agent.RegionCode == "" || cfg.Agent.SharedKey == "" {
		stdlog.Fatal("agent.region_code and agent.shared_key must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.InitAgent(cfg)
	log.Info().Str("region", cfg.Agent.RegionCode).Msg("agent starting")

	handler := agent.NewHandler(probe.NewEngine(), cfg.Agent.RegionCode, cfg.Agent.Timeout, log)
	router := agent.Routes(handler, cfg.Agent.SharedKey, log)

	srv := server.New(fmt.Sprintf(":%d", cfg.Agent.Port), router, log)
	srv.Start()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	if err := srv.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	log.Info().Msg("graceful shutdown complete")
}
