package db

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kasuganosora/chargen/config"
	dbmysql "github.com/kasuganosora/chargen/db/mysql"
	dbsqlite "github.com/kasuganosora/chargen/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
	// ModeMemory is a private in-memory SQLite database, gone when the process exits.
	ModeMemory = "memory"
)

// Open returns a *gorm.DB for the configured database mode and checks that it
// answers.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Mode {
	case ModeSQLite:
		db, err = dbsqlite.Open(cfg.SQLitePath)
	case ModeMemory:
		db, err = dbsqlite.OpenMemory(uuid.NewString())
	case ModeMySQL:
		db, err = dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("db: open %s: %w", cfg.Mode, err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		return nil, fmt.Errorf("db: ping %s: %w", cfg.Mode, err)
	}
	return db, nil
}
