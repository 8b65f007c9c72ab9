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
	"storefront/internal/erp/haravan"
	"storefront/internal/messaging"
	"storefront/internal/ordersync"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/telemetry"
)

const serviceName = "storefront-worker"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
		if err != nil {
			logger.Error("init tracing", "err", err)
			os.Exit(1)
		}
		defer func() { _ = shutdown(context.Background()) }()
	} else {
		telemetry.InstallPropagators()
	}

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Error("connect db", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	erp, err := haravan.New(haravan.Config{BaseURL: cfg.Haravan.BaseURL, Token: cfg.Haravan.Token}, nil, logger)
	if err != nil {
		logger.Error("haravan client", "err", err)
		os.Exit(1)
	}

	consumer := messaging.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID)
	defer func() { _ = consumer.Close() }()

	handler := ordersync.NewHandler(orderrepo.NewPostgres(pool), erp, logger)

	logger.Info("starting order sync worker", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.OrderTopic)
	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "err", err)
		os.Exit(1)
	}
}
