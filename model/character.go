package model

import (
	"time"

	"gorm.io/datatypes"
)

// Character is one stored build. State holds the JSON-encoded build;
// PartVersions records, per state part, the version that last changed it.
type Character struct {
	ID           int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID    int64          `gorm:"uniqueIndex:idx_account_name;not null" json:"account_id"`
	Name         string         `gorm:"uniqueIndex:idx_account_name;size:64;not null" json:"name"`
	Preset       string         `gorm:"size:64" json:"preset,omitempty"`
	State        datatypes.JSON `gorm:"not null" json:"state"`
	Version      int64          `gorm:"not null;default:1" json:"version"`
	PartVersions datatypes.JSON `json:"-"`
	Saved        bool           `gorm:"default:false" json:"saved"`
	SavedAt      *time.Time     `json:"saved_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
