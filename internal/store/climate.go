package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"wheel-rotation-backend/internal/model"
)

// AddClimateReading stores one sample.
func (s *gormStore) AddClimateReading(ctx context.Context, r *model.ClimateReading) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to store climate reading for %s: %w", r.Location, err)
	}
	return nil
}

// ClimateReadings returns samples for a location recorded at or after since,
// oldest first. With a positive limit only the newest limit samples are kept.
func (s *gormStore) ClimateReadings(ctx context.Context, location string, since time.Time, limit int) ([]model.ClimateReading, error) {
	q := s.db.WithContext(ctx).
		Where("location = ? AND recorded_at >= ?", location, since).
		Order("recorded_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	readings := []model.ClimateReading{}
	if err := q.Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to load climate readings for %s: %w", location, err)
	}
	slices.Reverse(readings)
	return readings, nil
}
