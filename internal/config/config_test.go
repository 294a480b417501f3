package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"real-estate-cms/internal/config"
)

func TestLoadConfig_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Server.Port != "8085" {
		t.Fatalf("default port wrong: %s", cfg.Server.Port)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RequestsPerMinute != 10 {
		t.Fatalf("default rate limit wrong: %+v", cfg.RateLimit)
	}
	if cfg.Scheduler.SnapshotTime != "01:00" || cfg.Scheduler.CleanupWeekday != "SUN" {
		t.Fatalf("default scheduler config wrong: %+v", cfg.Scheduler)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
database:
  type: mysql
  mysql:
    host: db.internal
    port: 3307
redis:
  addr: redis.internal:6379
  stats_ttl_seconds: 120
auth:
  admin_email: admin@example.com
  session_ttl_hours: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("port not overridden: %s", cfg.Server.Port)
	}
	if cfg.Database.MySQL.Host != "db.internal" || cfg.Database.MySQL.Port != 3307 {
		t.Fatalf("mysql config wrong: %+v", cfg.Database.MySQL)
	}
	// Values absent from the file keep their defaults
	if cfg.RateLimit.RequestsPerMinute != 10 {
		t.Fatalf("unset values should keep defaults: %+v", cfg.RateLimit)
	}
	if cfg.Auth.SessionTTL() != 8*time.Hour {
		t.Fatalf("session TTL wrong: %v", cfg.Auth.SessionTTL())
	}
	if cfg.Redis.StatsTTL() != 2*time.Minute {
		t.Fatalf("stats TTL wrong: %v", cfg.Redis.StatsTTL())
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not: valid"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.LoadConfig(path); err == nil {
		t.Fatalf("malformed YAML must fail loudly, not fall back silently")
	}
}

func TestLocation(t *testing.T) {
	cfg := config.Config{}
	if cfg.Location() != time.UTC {
		t.Fatalf("unset timezone should resolve to UTC, got %v", cfg.Location())
	}

	cfg.Timezone = "Not/AZone"
	if cfg.Location() != time.UTC {
		t.Fatalf("unknown timezone should fall back to UTC, got %v", cfg.Location())
	}

	cfg.Timezone = "Europe/Madrid"
	if cfg.Location().String() != "Europe/Madrid" {
		t.Fatalf("timezone not loaded: %v", cfg.Location())
	}
}

func TestDurationFallbacks(t *testing.T) {
	auth := config.AuthConfig{}
	if auth.SessionTTL() != 24*time.Hour {
		t.Fatalf("zero TTL should fall back to 24h, got %v", auth.SessionTTL())
	}
	redis := config.RedisConfig{}
	if redis.StatsTTL() != time.Minute {
		t.Fatalf("zero stats TTL should fall back to 60s, got %v", redis.StatsTTL())
	}
}
