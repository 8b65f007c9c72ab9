package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"storefront/internal/config"
	"storefront/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "migrate")
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if *down {
		if err := migrate.Down(ctx, cfg.DBConnString); err != nil {
			logger.Error("roll back migrations", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations rolled back")
		return
	}

	if err := migrate.Apply(ctx, cfg.DBConnString); err != nil {
		logger.Error("apply migrations", "err", err)
		os.Exit(1)
	}
	logger.Info("migrations applied")
}
