package model

import "time"

// ClimateReading is a single temperature/humidity sample from a storage location.
type ClimateReading struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Location    string    `gorm:"size:64;not null;index:idx_climate_location_recorded,priority:1" json:"location"`
	RecordedAt  time.Time `gorm:"not null;index:idx_climate_location_recorded,priority:2" json:"recordedAt"`
	Temperature float64   `gorm:"not null" json:"temperature"`
	Humidity    float64   `gorm:"not null" json:"humidity"`
	CreatedAt   time.Time `json:"createdAt"`
}
