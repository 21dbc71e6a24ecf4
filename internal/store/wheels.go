package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wheel-rotation-backend/internal/model"
	"wheel-rotation-backend/internal/schedule"
)

// CreateWheel inserts a new wheel record.
func (s *gormStore) CreateWheel(ctx context.Context, wheel *model.WheelRotation) error {
	if err := s.db.WithContext(ctx).Create(wheel).Error; err != nil {
		return fmt.Errorf("failed to create wheel %s: %w", wheel.WheelSerialNumber, err)
	}
	return nil
}

// GetWheel loads a wheel, optionally with its history oldest first.
func (s *gormStore) GetWheel(ctx context.Context, id string, withHistory bool) (*model.WheelRotation, error) {
	q := s.db.WithContext(ctx)
	if withHistory {
		q = q.Preload("RotationHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence ASC")
		})
	}

	var wheel model.WheelRotation
	if err := q.Where("id = ?", id).First(&wheel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load wheel %s: %w", id, err)
	}
	if withHistory && wheel.RotationHistory == nil {
		wheel.RotationHistory = []model.RotationHistory{}
	}
	return &wheel, nil
}

// ListWheels returns wheels without history, soonest due first and
// never-rotated wheels last.
func (s *gormStore) ListWheels(ctx context.Context, filter WheelFilter) ([]model.WheelRotation, error) {
	q := s.db.WithContext(ctx).Model(&model.WheelRotation{})
	if filter.Station != "" {
		q = q.Where("station = ?", filter.Station)
	}
	if filter.Airline != "" {
		q = q.Where("airline = ?", filter.Airline)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	wheels := []model.WheelRotation{}
	if err := q.Order("next_rotation_due IS NULL, next_rotation_due ASC, created_at ASC").
		Find(&wheels).Error; err != nil {
		return nil, fmt.Errorf("failed to list wheels: %w", err)
	}
	return wheels, nil
}

// DeleteWheel removes a wheel together with its history and reminder mappings.
func (s *gormStore) DeleteWheel(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wheel_id = ?", id).Delete(&model.RotationHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete history for wheel %s: %w", id, err)
		}
		if err := tx.Exec("DELETE FROM subscription_wheel_mapping WHERE wheel_rotation_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions for wheel %s: %w", id, err)
		}

		res := tx.Where("id = ?", id).Delete(&model.WheelRotation{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete wheel %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// RotateWheel applies a rotation and appends its history entry in one
// transaction. The row is locked where the dialect supports it and the
// update is guarded by the version read, so a concurrent writer yields
// ErrConflict instead of a lost update.
func (s *gormStore) RotateWheel(ctx context.Context, p RotateParams) (*model.WheelRotation, *model.RotationHistory, error) {
	var wheel model.WheelRotation
	var entry model.RotationHistory

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", p.WheelID).
			First(&wheel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load wheel %s: %w", p.WheelID, err)
		}

		nextDue, err := schedule.NextDue(p.At, wheel.RotationFrequency)
		if err != nil {
			return err
		}

		previous := wheel.CurrentPosition
		version := wheel.Version + 1
		res := tx.Model(&model.WheelRotation{}).
			Where("id = ? AND version = ?", wheel.ID, wheel.Version).
			Updates(map[string]any{
				"current_position":   p.NewPosition,
				"last_rotation_date": p.At,
				"next_rotation_due":  nextDue,
				"version":            version,
				"updated_at":         p.At,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update wheel %s: %w", wheel.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		entry = model.RotationHistory{
			WheelID:          wheel.ID,
			Sequence:         version,
			RotationDate:     p.At,
			PreviousPosition: previous,
			NewPosition:      p.NewPosition,
			PerformedBy:      p.PerformedBy,
			Notes:            p.Notes,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to append history for wheel %s: %w", wheel.ID, err)
		}

		rotatedAt := p.At
		wheel.CurrentPosition = p.NewPosition
		wheel.LastRotationDate = &rotatedAt
		wheel.NextRotationDue = &nextDue
		wheel.Version = version
		wheel.UpdatedAt = p.At
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &wheel, &entry, nil
}

// ListHistory returns a wheel's rotations oldest first.
func (s *gormStore) ListHistory(ctx context.Context, wheelID string) ([]model.RotationHistory, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.WheelRotation{}).
		Where("id = ?", wheelID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to look up wheel %s: %w", wheelID, err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	entries := []model.RotationHistory{}
	if err := s.db.WithContext(ctx).Where("wheel_id = ?", wheelID).
		Order("sequence ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list history for wheel %s: %w", wheelID, err)
	}
	return entries, nil
}

// WheelsDueBefore returns active wheels whose next rotation is due at or before t.
func (s *gormStore) WheelsDueBefore(ctx context.Context, t time.Time) ([]model.WheelRotation, error) {
	var wheels []model.WheelRotation
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND next_rotation_due IS NOT NULL AND next_rotation_due <= ?", true, t).
		Order("next_rotation_due ASC").
		Find(&wheels).Error; err != nil {
		return nil, fmt.Errorf("failed to query due wheels: %w", err)
	}
	return wheels, nil
}
