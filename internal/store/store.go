package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"wheel-rotation-backend/internal/model"
)

// WheelStore holds wheel records and their rotation history.
type WheelStore interface {
	CreateWheel(ctx context.Context, wheel *model.WheelRotation) error
	GetWheel(ctx context.Context, id string, withHistory bool) (*model.WheelRotation, error)
	ListWheels(ctx context.Context, filter WheelFilter) ([]model.WheelRotation, error)
	DeleteWheel(ctx context.Context, id string) error
	RotateWheel(ctx context.Context, p RotateParams) (*model.WheelRotation, *model.RotationHistory, error)
	ListHistory(ctx context.Context, wheelID string) ([]model.RotationHistory, error)
	WheelsDueBefore(ctx context.Context, t time.Time) ([]model.WheelRotation, error)
}

// SubscriptionStore holds browser push subscriptions for due reminders.
type SubscriptionStore interface {
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	PutSubscription(ctx context.Context, sub *model.PushSubscription, wheelIDs []string) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForWheel(ctx context.Context, wheelID string) ([]model.PushSubscription, error)
}

// PermissionStore holds per-user capability flags.
type PermissionStore interface {
	GetPermissions(ctx context.Context, userID string) (map[string]bool, error)
	SetPermissions(ctx context.Context, userID string, caps map[string]bool) error
}

// ClimateStore holds temperature/humidity samples.
type ClimateStore interface {
	AddClimateReading(ctx context.Context, r *model.ClimateReading) error
	ClimateReadings(ctx context.Context, location string, since time.Time, limit int) ([]model.ClimateReading, error)
}

// Store defines the interface for all database operations.
type Store interface {
	WheelStore
	SubscriptionStore
	PermissionStore
	ClimateStore
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}
