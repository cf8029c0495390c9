package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"gocausal/adapters/api"
	"gocausal/adapters/postgres"
	"gocausal/internal"
	"gocausal/internal/config"
	"gocausal/ports"
)

func main() {
	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}

	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		cancel()
		if err != nil {
			logger.Error("failed to connect to database: %v", err)
			os.Exit(1)
		}
		defer db.Close()
		repo = postgres.NewResultRepository(db)
		logger.Info("result persistence enabled")
	} else {
		logger.Warn("DATABASE_URL not set; results will not be persisted")
	}

	server := api.NewServer(cfg.Sampler, repo, logger)

	addr := ":" + cfg.Server.Port
	logger.Info("starting API server on %s", addr)
	if err := http.ListenAndServe(addr, server.Router()); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
}
