package store

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a wheel changed between read and write.
	ErrConflict = errors.New("wheel was modified concurrently")
)

// WheelFilter narrows ListWheels. Zero values match everything.
type WheelFilter struct {
	Station    string
	Airline    string
	ActiveOnly bool
}

// RotateParams describes one rotation to apply.
type RotateParams struct {
	WheelID     string
	NewPosition int
	Notes       string
	PerformedBy string
	At          time.Time
}
