package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Port)
	}
	if cfg.DBPath != "gridtip.db" {
		t.Errorf("expected db path gridtip.db, got %s", cfg.DBPath)
	}
	if cfg.DefaultCutoffMinutes != 180 {
		t.Errorf("expected default cutoff 180, got %d", cfg.DefaultCutoffMinutes)
	}
	if cfg.F1APIURL != "https://api.jolpi.ca/ergast/f1" {
		t.Errorf("unexpected api url %s", cfg.F1APIURL)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("expected cache ttl 10m, got %v", cfg.CacheTTL)
	}
	if cfg.UseRedis() {
		t.Error("expected redis to be disabled by default")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("GRIDTIP_PORT", "9090")
	t.Setenv("GRIDTIP_DB_PATH", "/tmp/tips.db")
	t.Setenv("GRIDTIP_DEFAULT_CUTOFF_MINUTES", "60")
	t.Setenv("GRIDTIP_REDIS_ADDR", "localhost:6379")
	t.Setenv("GRIDTIP_F1API_URL", "http://localhost:9999/f1/")
	t.Setenv("GRIDTIP_CACHE_TTL", "30s")
	t.Setenv("GRIDTIP_SEASON", "2025")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.DBPath != "/tmp/tips.db" {
		t.Errorf("expected db path from env, got %s", cfg.DBPath)
	}
	if cfg.DefaultCutoffMinutes != 60 {
		t.Errorf("expected cutoff 60, got %d", cfg.DefaultCutoffMinutes)
	}
	if !cfg.UseRedis() || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr from env, got %q", cfg.RedisAddr)
	}
	if cfg.F1APIURL != "http://localhost:9999/f1" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.F1APIURL)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.CacheTTL)
	}
	if cfg.Season != 2025 {
		t.Errorf("expected season 2025, got %d", cfg.Season)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("GRIDTIP_PORT", "9090")
	t.Setenv("GRIDTIP_LOG_LEVEL", "warn")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse([]string{"--port", "7070", "--db", "flag.db"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != 7070 {
		t.Errorf("expected flag port 7070, got %d", cfg.Port)
	}
	if cfg.DBPath != "flag.db" {
		t.Errorf("expected flag db path, got %s", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("expected unset flag to fall through to env, got %s", cfg.LogLevel)
	}
}

func TestLoad_AdminPasswordRequiresSecret(t *testing.T) {
	t.Setenv("GRIDTIP_ADMIN_PASSWORD", "hunter2")

	_, err := Load(nil)
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected jwt secret error, got %v", err)
	}

	t.Setenv("GRIDTIP_JWT_SECRET", "s3cret")
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.AdminPassword != "hunter2" {
		t.Errorf("expected admin password from env, got %q", cfg.AdminPassword)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Port: 8080, DBPath: "x.db", DefaultCutoffMinutes: 180}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"empty db", func(c *Config) { c.DBPath = "" }, true},
		{"negative cutoff", func(c *Config) { c.DefaultCutoffMinutes = -1 }, true},
		{"cutoff seven days", func(c *Config) { c.DefaultCutoffMinutes = MaxCutoffMinutes }, false},
		{"cutoff over seven days", func(c *Config) { c.DefaultCutoffMinutes = MaxCutoffMinutes + 1 }, true},
		{"negative ttl", func(c *Config) { c.CacheTTL = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	c := Config{Port: 8123}
	if c.Addr() != ":8123" {
		t.Errorf("expected :8123, got %s", c.Addr())
	}
}
