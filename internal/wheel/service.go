// Package wheel implements the wheel rotation commands on top of the store.
package wheel

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"wheel-rotation-backend/internal/events"
	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/parse"
	"wheel-rotation-backend/internal/schedule"
	"wheel-rotation-backend/internal/store"
)

const (
	// MaxPosition is the exclusive upper bound of a wheel position in degrees.
	MaxPosition = 360

	maxRotateAttempts = 3
)

// CreateCommand registers a new wheel.
type CreateCommand struct {
	ArrivalDate       string
	Station           string
	Airline           string
	WheelPartNumber   string
	WheelSerialNumber string
	RotationFrequency string
	Notes             string
}

// RotateCommand records a new position for a wheel.
type RotateCommand struct {
	WheelID     string
	NewPosition int
	Notes       string
	PerformedBy string
}

// Service validates and applies wheel commands.
type Service struct {
	store     store.WheelStore
	publisher events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the wall clock used for rotation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets where rotation events are sent after commit.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// NewService creates a wheel service on top of a wheel store.
func NewService(st store.WheelStore, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: events.Nop{},
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// Create validates cmd and stores a fresh, unrotated wheel.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*model.WheelRotation, error) {
	verr := &ValidationError{}

	var arrival time.Time
	if cmd.ArrivalDate == "" {
		verr.Add("arrivalDate", "is required")
	} else if t, err := parse.Date(cmd.ArrivalDate); err != nil {
		verr.Add("arrivalDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	} else {
		arrival = t
	}

	station := parse.Text(cmd.Station)
	airline := parse.Text(cmd.Airline)
	partNumber := parse.PartNumber(cmd.WheelPartNumber)
	serialNumber := parse.PartNumber(cmd.WheelSerialNumber)
	for _, f := range []struct{ name, value string }{
		{"station", station},
		{"airline", airline},
		{"wheelPartNumber", partNumber},
		{"wheelSerialNumber", serialNumber},
	} {
		if f.value == "" {
			verr.Add(f.name, "is required")
		}
	}

	freq, err := schedule.ParseFrequency(cmd.RotationFrequency)
	if err != nil {
		verr.Add("rotationFrequency", "must be one of weekly, monthly, quarterly, biannually, annually")
	}

	if err := verr.errOrNil(); err != nil {
		return nil, err
	}

	wheel := &model.WheelRotation{
		ArrivalDate:       arrival,
		Station:           station,
		Airline:           airline,
		WheelPartNumber:   partNumber,
		WheelSerialNumber: serialNumber,
		CurrentPosition:   0,
		RotationFrequency: freq,
		IsActive:          true,
		Notes:             cmd.Notes,
	}
	if err := s.store.CreateWheel(ctx, wheel); err != nil {
		return nil, err
	}

	s.log.Info("wheel registered",
		zap.String("wheel_id", wheel.ID),
		zap.String("serial_number", wheel.WheelSerialNumber),
		zap.String("frequency", string(wheel.RotationFrequency)))
	return wheel, nil
}

// Get returns a wheel with its rotation history.
func (s *Service) Get(ctx context.Context, id string) (*model.WheelRotation, error) {
	return s.store.GetWheel(ctx, id, true)
}

// List returns wheels without history.
func (s *Service) List(ctx context.Context, filter store.WheelFilter) ([]model.WheelRotation, error) {
	return s.store.ListWheels(ctx, filter)
}

// History returns a wheel's rotations oldest first.
func (s *Service) History(ctx context.Context, id string) ([]model.RotationHistory, error) {
	return s.store.ListHistory(ctx, id)
}

// Delete removes a wheel and all of its history.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteWheel(ctx, id); err != nil {
		return err
	}
	s.log.Info("wheel deleted", zap.String("wheel_id", id))
	return nil
}

// Rotate applies cmd atomically and returns the updated wheel. Inactive
// wheels can be rotated.
func (s *Service) Rotate(ctx context.Context, cmd RotateCommand) (*model.WheelRotation, error) {
	if cmd.NewPosition < 0 || cmd.NewPosition >= MaxPosition {
		verr := &ValidationError{}
		verr.Add("newPosition", "position out of range")
		return nil, verr
	}

	var (
		wheel *model.WheelRotation
		entry *model.RotationHistory
		err   error
	)
	for attempt := 1; attempt <= maxRotateAttempts; attempt++ {
		wheel, entry, err = s.store.RotateWheel(ctx, store.RotateParams{
			WheelID:     cmd.WheelID,
			NewPosition: cmd.NewPosition,
			Notes:       cmd.Notes,
			PerformedBy: cmd.PerformedBy,
			At:          s.now(),
		})
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		s.log.Debug("rotation conflict, retrying",
			zap.String("wheel_id", cmd.WheelID), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("wheel rotated",
		zap.String("wheel_id", wheel.ID),
		zap.Int("previous_position", entry.PreviousPosition),
		zap.Int("new_position", entry.NewPosition),
		zap.Timep("next_rotation_due", wheel.NextRotationDue))

	ev := events.RotationEvent{
		WheelID:           wheel.ID,
		WheelSerialNumber: wheel.WheelSerialNumber,
		Station:           wheel.Station,
		Sequence:          entry.Sequence,
		PreviousPosition:  entry.PreviousPosition,
		NewPosition:       entry.NewPosition,
		RotationDate:      entry.RotationDate,
		NextRotationDue:   wheel.NextRotationDue,
		PerformedBy:       entry.PerformedBy,
	}
	if err := s.publisher.PublishRotation(ctx, ev); err != nil {
		s.log.Warn("failed to publish rotation event", zap.String("wheel_id", wheel.ID), zap.Error(err))
	}
	return wheel, nil
}
