package models

import "time"

// Place caches geocoded coordinates per address. Lng/Lat stay null until a
// lookup succeeds; UpdatedAt is refreshed on every write, re-lookups included.
type Place struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"      json:"id"`
	Address   string    `gorm:"size:100;not null;uniqueIndex" json:"address"`
	Lng       *float64  `gorm:"type:decimal(9,2)"             json:"lng"`
	Lat       *float64  `gorm:"type:decimal(9,2)"             json:"lat"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"          json:"updated_at"`
}
