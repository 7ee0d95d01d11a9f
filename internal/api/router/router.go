package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/http/handlers"
	httpmiddleware "github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/http/middleware"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	WhatsAppWebhook *handlers.WhatsAppWebhookHandler
	Health          *handlers.HealthHandler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Check)
	}
	if cfg.WhatsAppWebhook != nil {
		r.Post("/webhooks/whatsapp", cfg.WhatsAppWebhook.HandleMessage)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
