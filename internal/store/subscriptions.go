package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wheel-rotation-backend/internal/model"
)

// GetSubscription loads a subscription with the wheels it follows.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var subscription model.PushSubscription
	if err := s.db.WithContext(ctx).Preload("Wheels").
		First(&subscription, "endpoint = ?", endpoint).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &subscription, nil
}

// PutSubscription creates or replaces a subscription and its wheel list.
// Unknown wheel IDs are ignored.
func (s *gormStore) PutSubscription(ctx context.Context, sub *model.PushSubscription, wheelIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
		}).Omit("Wheels").Create(sub).Error; err != nil {
			return fmt.Errorf("failed to upsert subscription: %w", err)
		}

		wheels := []model.WheelRotation{}
		if len(wheelIDs) > 0 {
			if err := tx.Where("id IN ?", wheelIDs).Find(&wheels).Error; err != nil {
				return fmt.Errorf("failed to load subscribed wheels: %w", err)
			}
		}

		if err := tx.Model(sub).Association("Wheels").Replace(&wheels); err != nil {
			return fmt.Errorf("failed to replace subscribed wheels: %w", err)
		}
		return nil
	})
}

// DeleteSubscription removes a subscription and its wheel mappings.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_wheel_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return fmt.Errorf("failed to delete subscription mappings: %w", err)
		}
		if err := tx.Where("endpoint = ?", endpoint).Delete(&model.PushSubscription{}).Error; err != nil {
			return fmt.Errorf("failed to delete subscription: %w", err)
		}
		return nil
	})
}

// SubscriptionsForWheel returns every subscription following wheelID.
func (s *gormStore) SubscriptionsForWheel(ctx context.Context, wheelID string) ([]model.PushSubscription, error) {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_wheel_mapping swm ON swm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("swm.wheel_rotation_id = ?", wheelID).
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subscriptions for wheel %s: %w", wheelID, err)
	}
	return subscriptions, nil
}
