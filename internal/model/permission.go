package model

import "time"

// UserPermission stores one capability flag for one user.
type UserPermission struct {
	UserID     string    `gorm:"primaryKey;size:128"`
	Capability string    `gorm:"primaryKey;size:64"`
	Allowed    bool      `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}
