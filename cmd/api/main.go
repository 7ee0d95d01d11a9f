package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/api/router"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/booking"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/catalog"
	appconfig "github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/config"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/conversation"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/http/handlers"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/observability/metrics"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/schedule"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

func main() {
	// Load .env in development; in production config comes from the environment.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting salon booking API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		logger.Error("invalid DEFAULT_TIMEZONE", "timezone", cfg.DefaultTimezone, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOptions)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis not available", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	flowMetrics := metrics.NewBookingFlowMetrics(nil)

	catalogStore := catalog.NewPGStore(pool)
	scheduleStore := schedule.NewPGStore(pool)
	bookingRepo := booking.NewRepository(pool, loc)

	resolver := schedule.NewResolver(scheduleStore, bookingRepo, cfg.SlotStepMinutes, flowMetrics, logger.Component("schedule"))

	guard := booking.NewGuard(resolver, bookingRepo, flowMetrics, logger.Component("booking"))

	sessions := conversation.NewRedisSessionStore(redisClient, cfg.SessionTTL)

	engine := conversation.NewEngine(conversation.EngineConfig{
		Sessions:     sessions,
		Offerings:    catalogStore,
		Availability: resolver,
		Committer:    guard,
		Metrics:      flowMetrics,
		Logger:       logger.Component("conversation"),
		Location:     loc,
		SessionTTL:   cfg.SessionTTL,
		WindowDays:   cfg.BookingWindowDays,
	})

	r := router.New(&router.Config{
		Logger:          logger,
		WhatsAppWebhook: handlers.NewWhatsAppWebhookHandler(engine, logger.Component("webhook")),
		Health:          handlers.NewHealthHandler(),
		MetricsHandler:  promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
