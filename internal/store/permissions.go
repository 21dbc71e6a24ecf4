package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wheel-rotation-backend/internal/model"
)

// GetPermissions returns the stored capability flags of a user. A user
// without rows gets an empty map.
func (s *gormStore) GetPermissions(ctx context.Context, userID string) (map[string]bool, error) {
	var rows []model.UserPermission
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load permissions for %s: %w", userID, err)
	}
	caps := make(map[string]bool, len(rows))
	for _, r := range rows {
		caps[r.Capability] = r.Allowed
	}
	return caps, nil
}

// SetPermissions upserts the given flags; capabilities not named are left alone.
func (s *gormStore) SetPermissions(ctx context.Context, userID string, caps map[string]bool) error {
	if len(caps) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]model.UserPermission, 0, len(caps))
	for name, allowed := range caps {
		rows = append(rows, model.UserPermission{
			UserID:     userID,
			Capability: name,
			Allowed:    allowed,
			UpdatedAt:  now,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "capability"}},
			DoUpdates: clause.AssignmentColumns([]string{"allowed", "updated_at"}),
		}).Create(&rows).Error
	})
}
