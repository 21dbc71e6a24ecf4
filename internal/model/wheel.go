package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wheel-rotation-backend/internal/schedule"
)

// WheelRotation is one tracked wheel and its current rotation state.
type WheelRotation struct {
	ID                string             `gorm:"primaryKey;size:36" json:"id"`
	ArrivalDate       time.Time          `gorm:"not null" json:"arrivalDate"`
	Station           string             `gorm:"size:64;not null;index" json:"station"`
	Airline           string             `gorm:"size:64;not null;index" json:"airline"`
	WheelPartNumber   string             `gorm:"size:64;not null" json:"wheelPartNumber"`
	WheelSerialNumber string             `gorm:"size:64;not null;index" json:"wheelSerialNumber"`
	CurrentPosition   int                `gorm:"not null;check:chk_wheel_position,current_position >= 0 AND current_position < 360" json:"currentPosition"`
	RotationFrequency schedule.Frequency `gorm:"size:16;not null" json:"rotationFrequency"`
	LastRotationDate  *time.Time         `json:"lastRotationDate"`
	NextRotationDue   *time.Time         `gorm:"index" json:"nextRotationDue"`
	IsActive          bool               `gorm:"not null" json:"isActive"`
	Notes             string             `gorm:"type:text" json:"notes"`
	Version           int64              `gorm:"not null" json:"version"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`

	// Associations
	RotationHistory []RotationHistory `gorm:"foreignKey:WheelID;constraint:OnDelete:CASCADE" json:"rotationHistory,omitempty"`
}

// BeforeCreate assigns a UUID to new wheels.
func (w *WheelRotation) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// RotationHistory is an immutable record of one rotation. Sequence is the
// wheel version the rotation produced, so it orders a wheel's history.
type RotationHistory struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	WheelID          string    `gorm:"size:36;not null;uniqueIndex:idx_history_wheel_seq,priority:1" json:"wheelId"`
	Sequence         int64     `gorm:"not null;uniqueIndex:idx_history_wheel_seq,priority:2" json:"sequence"`
	RotationDate     time.Time `gorm:"not null" json:"rotationDate"`
	PreviousPosition int       `gorm:"not null" json:"previousPosition"`
	NewPosition      int       `gorm:"not null" json:"newPosition"`
	PerformedBy      string    `gorm:"size:128" json:"performedBy,omitempty"`
	Notes            string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt        time.Time `gorm:"not null" json:"createdAt"`
}

// BeforeCreate assigns a UUID to new history entries.
func (h *RotationHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
