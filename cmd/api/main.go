package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"storefront/internal/catalogsync"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/erp/haravan"
	"storefront/internal/httpserver"
	"storefront/internal/messaging"
	"storefront/internal/payment/vnpay"
	cartrepo "storefront/internal/repository/cart"
	customerrepo "storefront/internal/repository/customer"
	orderrepo "storefront/internal/repository/order"
	productrepo "storefront/internal/repository/product"
	tokenrepo "storefront/internal/repository/token"
	anonymoussvc "storefront/internal/service/anonymous"
	cartsvc "storefront/internal/service/cart"
	catalogsvc "storefront/internal/service/catalog"
	checkoutsvc "storefront/internal/service/checkout"
	customersvc "storefront/internal/service/customer"
	"storefront/internal/telemetry"
)

const serviceName = "storefront-api"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", serviceName)
	if err := run(logger); err != nil {
		logger.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()

	if cfg.OTelEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	} else {
		telemetry.InstallPropagators()
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), logger)
	customerService := customersvc.New(customerrepo.NewPostgres(dbpool, logger), tokenrepo.NewPostgres(dbpool))

	var events messaging.Publisher = messaging.LogPublisher{Logger: logger, Topic: cfg.Kafka.OrderTopic}
	if len(cfg.Kafka.Brokers) > 0 {
		events = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
	}
	defer func() { _ = events.Close() }()

	var payments checkoutsvc.Payments
	if cfg.VNPay.TmnCode != "" {
		client, err := vnpay.New(vnpay.Config{PaymentURL: cfg.VNPay.URL, TmnCode: cfg.VNPay.TmnCode, HashSecret: cfg.VNPay.HashSecret})
		if err != nil {
			return err
		}
		payments = client
	} else {
		logger.Warn("VNPAY_TMN_CODE not set, vnpay checkout disabled")
	}
	checkoutService := checkoutsvc.New(cartService, orderrepo.NewPostgres(dbpool), payments, events, cfg.StorefrontURL, logger)

	erp, err := haravan.New(haravan.Config{BaseURL: cfg.Haravan.BaseURL, Token: cfg.Haravan.Token, PageSize: cfg.Haravan.PageSize}, nil, logger)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Catalog:     catalogsvc.New(productRepo),
		Cart:        cartService,
		Customers:   customerService,
		Sessions:    anonymoussvc.New(),
		Checkout:    checkoutService,
		Sync:        catalogsync.New(erp, productRepo, logger),
		DB:          dbpool,
		Metrics:     metricsHandler,
		SyncSecret:  cfg.SyncSecret,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
