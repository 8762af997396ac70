package db_test

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/chargen/config"
	dbadapter "github.com/kasuganosora/chargen/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_MemoryIsPrivate(t *testing.T) {
	a, err := dbadapter.Open(config.DatabaseConfig{Mode: dbadapter.ModeMemory})
	require.NoError(t, err)
	b, err := dbadapter.Open(config.DatabaseConfig{Mode: dbadapter.ModeMemory})
	require.NoError(t, err)

	require.NoError(t, a.Exec("CREATE TABLE scratch (id INTEGER)").Error)
	assert.True(t, a.Migrator().HasTable("scratch"))
	assert.False(t, b.Migrator().HasTable("scratch"))
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "chargen.db")
	db, err := dbadapter.Open(config.DatabaseConfig{Mode: dbadapter.ModeSQLite, SQLitePath: path})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.FileExists(t, path)
}

func TestOpen_UnknownMode(t *testing.T) {
	_, err := dbadapter.Open(config.DatabaseConfig{Mode: "postgres"})
	assert.ErrorContains(t, err, "unknown mode")
}
