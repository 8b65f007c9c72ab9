package main

import (
	"context"
	"log/slog"
	"os"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/seed"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "seed")
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := seed.Apply(ctx, pool, logger); err != nil {
		logger.Error("seed apply", "err", err)
		os.Exit(1)
	}

	logger.Info("seed applied")
}
