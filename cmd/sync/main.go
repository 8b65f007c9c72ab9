package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/catalogsync"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/erp/haravan"
	productrepo "storefront/internal/repository/product"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("cmd", "sync")
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

	erp, err := haravan.New(haravan.Config{BaseURL: cfg.Haravan.BaseURL, Token: cfg.Haravan.Token, PageSize: cfg.Haravan.PageSize}, nil, logger)
	if err != nil {
		logger.Error("haravan client", "err", err)
		os.Exit(1)
	}

	res, err := catalogsync.New(erp, productrepo.NewPostgres(pool, logger), logger).Run(ctx)
	if err != nil {
		logger.Error("sync failed", "err", err, "products_written", res.Products)
		os.Exit(1)
	}
	fmt.Println(res.Message())
}
