package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
}

// RedisConfig contains cache/changefeed settings
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	StatsTTLSecs int    `yaml:"stats_ttl_seconds"`
}

// StorageConfig contains S3-compatible object storage settings
type StorageConfig struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"` // optional, for DO Spaces / R2 / MinIO
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

// AuthConfig contains admin session settings
type AuthConfig struct {
	AdminEmail      string `yaml:"admin_email"`
	AdminPassword   string `yaml:"admin_password"`
	SessionSecret   string `yaml:"session_secret"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`
	CookieName      string `yaml:"cookie_name"`
	CookieSecure    bool   `yaml:"cookie_secure"`
}

// RateLimitConfig contains rate limiting settings for public write endpoints
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// SchedulerConfig contains background job settings
type SchedulerConfig struct {
	Enabled              bool   `yaml:"enabled"`
	SnapshotTime         string `yaml:"snapshot_time"` // HH:MM
	ReindexTime          string `yaml:"reindex_time"`  // HH:MM
	CleanupWeekday       string `yaml:"cleanup_weekday"`
	CleanupRetentionDays int    `yaml:"cleanup_retention_days"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8085",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			StatsTTLSecs: 60,
		},
		Auth: AuthConfig{
			SessionTTLHours: 24,
			CookieName:      "admin_session",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 10,
			RequestsPerHour:   60,
		},
		Scheduler: SchedulerConfig{
			Enabled:              true,
			SnapshotTime:         "01:00",
			ReindexTime:          "03:00",
			CleanupWeekday:       "SUN",
			CleanupRetentionDays: 365,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Location returns the configured timezone for scheduled jobs and snapshot
// dating. Unset or unknown names fall back to UTC.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SessionTTL returns the admin session lifetime as a duration
func (c *AuthConfig) SessionTTL() time.Duration {
	hours := c.SessionTTLHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// StatsTTL returns the dashboard cache TTL as a duration
func (c *RedisConfig) StatsTTL() time.Duration {
	secs := c.StatsTTLSecs
	if secs <= 0 {
		secs = 60
	}
	return time.Duration(secs) * time.Second
}
