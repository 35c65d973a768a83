package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"orderdesk/internal/auth"
	"orderdesk/internal/config"
	"orderdesk/internal/handler"
	"orderdesk/internal/messaging"
	"orderdesk/internal/notify"
	"orderdesk/internal/repository"
	"orderdesk/internal/service"
	"orderdesk/internal/telemetry"
)

const (
	serviceName    = "orderdesk"
	serviceVersion = "1.0.0"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Telemetry
	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to init tracer provider", "error", err)
		os.Exit(1)
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, serviceVersion)
	if err != nil {
		logger.Error("failed to init meter provider", "error", err)
		os.Exit(1)
	}

	// Database
	dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Repositories
	store := repository.NewStore(dbPool)
	users := repository.NewUserStore(store)
	clients := repository.NewClientStore(store)
	products := repository.NewProductStore(store)
	orders := repository.NewOrderStore(store)

	// Notifications (both channels optional)
	var channels []notify.Channel
	var producer *messaging.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer = messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() { _ = producer.Close() }()
		channels = append(channels, notify.NewKafkaChannel(producer))
	}
	if cfg.Webhook.URL != "" {
		channels = append(channels, notify.NewWebhookChannel(cfg.Webhook.URL, cfg.Webhook.Token))
	}
	var notifier service.OrderNotifier
	if len(channels) > 0 {
		notifier = notify.NewService(logger, channels...)
	}

	// Services
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	authSvc := service.NewAuthService(users, tokens)
	userSvc := service.NewUserService(users)
	clientSvc := service.NewClientService(clients)
	productSvc := service.NewProductService(products)
	orderSvc := service.NewOrderService(clients, products, orders, store, notifier)

	h := handler.New(logger, authSvc, userSvc, clientSvc, productSvc, orderSvc, metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelhttp.NewHandler(h, "http.server"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 2)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := shutdownMeter(shutdownCtx); err != nil {
		logger.Error("meter provider shutdown failed", "error", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("tracer provider shutdown failed", "error", err)
	}

	logger.Info("server exiting")
}
