package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Drafts   DraftsConfig   `mapstructure:"drafts"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// LogFile, when set, also writes JSON logs to a rotated file.
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql | memory
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the SSE origins that are permitted.
	// An empty slice allows all origins (useful for local development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type CatalogConfig struct {
	// DataPath is a directory of catalog YAML files. Empty uses the built-in catalog.
	DataPath      string `mapstructure:"data_path"`
	ViewCacheSize int    `mapstructure:"view_cache_size"`
}

// RulesConfig mirrors the engine's rule table. Biocompatibility triggers on
// any listed quality or augment unless BiocompatibilityExpr, a CEL
// expression, is set.
type RulesConfig struct {
	Version                   string   `mapstructure:"version"`
	BaseEssence               float64  `mapstructure:"base_essence"`
	EssenceWarning            float64  `mapstructure:"essence_warning"`
	UnspentNuyen              int64    `mapstructure:"unspent_nuyen"`
	BiocompatibilityFactor    float64  `mapstructure:"biocompatibility_factor"`
	BiocompatibilityQualities []string `mapstructure:"biocompatibility_qualities"`
	BiocompatibilityAugments  []string `mapstructure:"biocompatibility_augments"`
	BiocompatibilityExpr      string   `mapstructure:"biocompatibility_expr"`
	TraditionRequired         []string `mapstructure:"tradition_required"`
	MaxSkillRating            int      `mapstructure:"max_skill_rating"`
	SpellsPerMagic            int      `mapstructure:"spells_per_magic"`
	FormsPerResonance         int      `mapstructure:"forms_per_resonance"`
	KnowledgePerPoint         int      `mapstructure:"knowledge_per_point"`
}

type DraftsConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.log_max_size_mb", 100)
	v.SetDefault("server.log_max_backups", 5)
	v.SetDefault("server.log_max_age_days", 28)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/chargen.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("catalog.view_cache_size", 128)
	v.SetDefault("rules.version", "sr5-core")
	v.SetDefault("rules.base_essence", 6.0)
	v.SetDefault("rules.essence_warning", 1.0)
	v.SetDefault("rules.unspent_nuyen", 5000)
	v.SetDefault("rules.biocompatibility_factor", 0.9)
	v.SetDefault("rules.biocompatibility_qualities", []string{"biocompatibility"})
	v.SetDefault("rules.tradition_required", []string{"mage", "mystic_adept"})
	v.SetDefault("rules.max_skill_rating", 6)
	v.SetDefault("rules.spells_per_magic", 2)
	v.SetDefault("rules.forms_per_resonance", 2)
	v.SetDefault("rules.knowledge_per_point", 2)
	v.SetDefault("drafts.ttl", "168h")
	v.SetDefault("drafts.prune_interval", "1h")
}

// New returns a viper instance with every default set and CHARGEN_* environment
// overrides enabled (CHARGEN_DATABASE_MODE overrides database.mode).
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("chargen")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads config from the given YAML file path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	return FromViper(v)
}

// FromViper decodes an already populated viper instance, e.g. one with CLI
// flags bound to it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
