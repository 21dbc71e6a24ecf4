// Package reminder periodically scans for wheels coming due and queues
// push reminders for them.
package reminder

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/model"
)

// DueLister returns active wheels due at or before t.
type DueLister interface {
	WheelsDueBefore(ctx context.Context, t time.Time) ([]model.WheelRotation, error)
}

// Dispatcher queues a reminder for one wheel.
type Dispatcher interface {
	Dispatch(ctx context.Context, wheel model.WheelRotation) error
}

// Service runs the due-date scan loop.
type Service struct {
	cfg        config.ReminderConfig
	wheels     DueLister
	dispatcher Dispatcher
	log        *zap.Logger
	now        func() time.Time

	// sent remembers wheel/due-date pairs already dispatched. It has no
	// janitor goroutine; ScanOnce purges expired keys.
	sent *cache.Cache
}

// NewService creates a reminder scanner.
func NewService(cfg config.ReminderConfig, wheels DueLister, dispatcher Dispatcher, log *zap.Logger) *Service {
	ttl := cfg.Horizon + cfg.Interval
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{
		cfg:        cfg,
		wheels:     wheels,
		dispatcher: dispatcher,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		sent:       cache.New(ttl, 0),
	}
}

// Run scans once immediately and then every interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.log.Info("reminder scanner is disabled")
		return
	}
	s.log.Info("starting reminder scanner",
		zap.Duration("interval", s.cfg.Interval), zap.Duration("horizon", s.cfg.Horizon))

	s.ScanOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("reminder scanner shutting down")
			return
		case <-timer.C:
			s.ScanOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// ScanOnce dispatches every wheel due within the horizon that has not
// already been reminded for its current due date. It returns the number of
// reminders dispatched.
func (s *Service) ScanOnce(ctx context.Context) int {
	s.sent.DeleteExpired()

	until := s.now().Add(s.cfg.Horizon)
	wheels, err := s.wheels.WheelsDueBefore(ctx, until)
	if err != nil {
		s.log.Error("failed to scan for due wheels", zap.Error(err))
		return 0
	}

	dispatched := 0
	for _, w := range wheels {
		key := w.ID + "@" + w.NextRotationDue.UTC().Format(time.RFC3339)
		if _, seen := s.sent.Get(key); seen {
			continue
		}
		if err := s.dispatcher.Dispatch(ctx, w); err != nil {
			s.log.Warn("failed to dispatch reminder", zap.String("wheel_id", w.ID), zap.Error(err))
			return dispatched
		}
		s.sent.SetDefault(key, struct{}{})
		dispatched++
	}

	if dispatched > 0 {
		s.log.Info("dispatched rotation reminders", zap.Int("count", dispatched))
	}
	return dispatched
}
