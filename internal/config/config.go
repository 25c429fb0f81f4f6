// Package config loads settings from flags, a .env file and GRIDTIP_ environment variables.
// Precedence: flag set on the command line, then environment, then .env, then defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "GRIDTIP"

// MaxCutoffMinutes is the largest allowed tip cutoff (7 days)
const MaxCutoffMinutes = 7 * 24 * 60

// Config holds all application configuration.
type Config struct {
	Port     int
	DBPath   string
	LogLevel string

	// Admin login. Empty disables the admin API.
	AdminPassword string
	JWTSecret     string

	// Redis is optional; without an address the in-memory cache is used.
	RedisAddr string
	RedisDB   int

	F1APIURL             string
	DefaultCutoffMinutes int
	Season               int
	CacheTTL             time.Duration
	SyncInterval         time.Duration
}

// RegisterFlags adds the command-line flags understood by Load
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("port", 8080, "HTTP port")
	fs.String("db", "gridtip.db", "SQLite database path")
	fs.String("loglevel", "info", "log level: debug, info, warn, error")
	fs.String("adminpw", "", "admin password")
	fs.String("redis", "", "redis address (host:port); empty uses the in-memory cache")
}

// Load reads configuration. fs may be nil when no flags are in play.
func Load(fs *pflag.FlagSet) (*Config, error) {
	// Missing .env is fine; production uses real env vars.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "gridtip.db")
	v.SetDefault("log_level", "info")
	v.SetDefault("admin_password", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("f1api_url", "https://api.jolpi.ca/ergast/f1")
	v.SetDefault("default_cutoff_minutes", 180)
	v.SetDefault("season", time.Now().Year())
	v.SetDefault("cache_ttl", 10*time.Minute)
	v.SetDefault("sync_interval", time.Hour)

	if fs != nil {
		bindings := map[string]string{
			"port":           "port",
			"db_path":        "db",
			"log_level":      "loglevel",
			"admin_password": "adminpw",
			"redis_addr":     "redis",
		}
		for key, flag := range bindings {
			f := fs.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	cfg := &Config{
		Port:                 v.GetInt("port"),
		DBPath:               v.GetString("db_path"),
		LogLevel:             v.GetString("log_level"),
		AdminPassword:        v.GetString("admin_password"),
		JWTSecret:            v.GetString("jwt_secret"),
		RedisAddr:            v.GetString("redis_addr"),
		RedisDB:              v.GetInt("redis_db"),
		F1APIURL:             strings.TrimRight(v.GetString("f1api_url"), "/"),
		DefaultCutoffMinutes: v.GetInt("default_cutoff_minutes"),
		Season:               v.GetInt("season"),
		CacheTTL:             v.GetDuration("cache_ttl"),
		SyncInterval:         v.GetDuration("sync_interval"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required combinations
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("config: db path must be set")
	}
	if c.DefaultCutoffMinutes < 0 || c.DefaultCutoffMinutes > MaxCutoffMinutes {
		return fmt.Errorf("config: default cutoff must be between 0 and %d minutes, got %d", MaxCutoffMinutes, c.DefaultCutoffMinutes)
	}
	if c.AdminPassword != "" && c.JWTSecret == "" {
		return fmt.Errorf("config: %s_JWT_SECRET must be set when an admin password is configured", envPrefix)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("config: cache ttl must not be negative")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// UseRedis reports whether a redis cache is configured
func (c *Config) UseRedis() bool {
	return c.RedisAddr != ""
}
