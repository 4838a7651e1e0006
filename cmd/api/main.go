package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"genexpr/adapters/stats/engine"
	"genexpr/internal"
	"genexpr/internal/api"
	"genexpr/internal/config"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := internal.NewLogger(cfg.LogLevel)

	corrector := engine.NewMultiTestCorrector(engine.Options{
		Variance:       cfg.Analysis.Variance,
		ReferenceGroup: cfg.Analysis.ReferenceGroup,
		Workers:        cfg.Analysis.Workers,
	}, logger)

	registry := prometheus.NewRegistry()
	server := api.NewServer(corrector, cfg.Analysis, registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Server.Addr()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
