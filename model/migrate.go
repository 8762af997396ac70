package model

import (
	"fmt"

	"gorm.io/gorm"
)

// tables are migrated in order; characters reference accounts.
var tables = []any{
	&Account{},
	&Character{},
	&AuditLog{},
}

// AutoMigrate creates or updates every table. It is safe to run on each start.
func AutoMigrate(db *gorm.DB) error {
	for _, m := range tables {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("model: migrate %T: %w", m, err)
		}
	}
	return nil
}
