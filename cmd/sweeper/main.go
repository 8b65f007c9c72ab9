package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/config"
	"storefront/internal/db"
	cartrepo "storefront/internal/repository/cart"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/sweeper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "storefront-sweeper")
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	carts := cartsvc.New(cartrepo.NewPostgres(pool), logger)
	logger.Info("starting sweeper", "interval", cfg.SweepInterval)
	if err := sweeper.New(carts, cfg.SweepInterval, logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sweeper stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("sweeper stopped")
}
