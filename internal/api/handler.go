package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/climate"
	"wheel-rotation-backend/internal/store"
	"wheel-rotation-backend/internal/wheel"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	wheels  *wheel.Service
	store   store.Store
	webpush *webpush.Options
	climate *climate.Analyzer
	horizon time.Duration
	log     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(wheels *wheel.Service, s store.Store, cfg *config.Config, log *zap.Logger) *Handler {
	return &Handler{
		wheels:  wheels,
		store:   s,
		webpush: WebPushOptions(cfg.Push),
		climate: climate.NewAnalyzer(cfg.Climate),
		horizon: cfg.Reminder.Horizon,
		log:     log,
	}
}

// WebPushOptions builds push options from config, or nil when no VAPID keys
// are configured.
func WebPushOptions(cfg config.PushConfig) *webpush.Options {
	if !cfg.Configured() {
		return nil
	}
	return &webpush.Options{
		VAPIDPublicKey:  cfg.PublicKey,
		VAPIDPrivateKey: cfg.PrivateKey,
		Subscriber:      cfg.Subject,
		TTL:             cfg.TTL,
	}
}
