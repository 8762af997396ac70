package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, time.Hour, cfg.Database.MySQLMaxLife)
	assert.Equal(t, 30*time.Second, cfg.Cache.LocalGCInterval)
	assert.Equal(t, 72*time.Hour, cfg.Security.JWTTTLH)
	assert.Equal(t, 168*time.Hour, cfg.Drafts.TTL)
	assert.Equal(t, 6.0, cfg.Rules.BaseEssence)
	assert.Equal(t, []string{"biocompatibility"}, cfg.Rules.BiocompatibilityQualities)
	assert.Equal(t, []string{"mage", "mystic_adept"}, cfg.Rules.TraditionRequired)
	assert.Equal(t, 128, cfg.Catalog.ViewCacheSize)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
  debug: true
database:
  mode: memory
rules:
  essence_warning: 0.5
  biocompatibility_expr: '"biocompatibility" in qualities'
drafts:
  ttl: 48h
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.Debug)
	assert.Equal(t, "memory", cfg.Database.Mode)
	assert.Equal(t, 0.5, cfg.Rules.EssenceWarning)
	assert.Equal(t, `"biocompatibility" in qualities`, cfg.Rules.BiocompatibilityExpr)
	assert.Equal(t, 48*time.Hour, cfg.Drafts.TTL)
	assert.Equal(t, 5000, int(cfg.Rules.UnspentNuyen), "unset keys keep defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CHARGEN_DATABASE_MODE", "mysql")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Database.Mode)
}
