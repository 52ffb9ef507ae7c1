package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	Timezone string

	// Rules API
	APIURL      string
	APIToken    string
	APITimeout  time.Duration
	Platform    string
	RunOnceMode bool

	// Circuit breaker around the rules API
	BreakerFailures int
	BreakerTimeout  time.Duration

	// Redis group cache (optional)
	RedisURL      string
	GroupCacheTTL time.Duration

	// Development API server
	DevAPIAddr       string
	DevAPIDriver     string
	DevAPISQLitePath string
	DatabaseURL      string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("AIRA_TIMEZONE", ""),

		APIURL:      getEnv("AIRA_API_URL", "http://localhost:8090"),
		APIToken:    getEnv("AIRA_API_TOKEN", ""),
		APITimeout:  getDurationEnv("AIRA_API_TIMEOUT", 30*time.Second),
		Platform:    getEnv("AIRA_PLATFORM", "web"),
		RunOnceMode: getBoolEnv("AIRA_RUN_ONCE", true),

		BreakerFailures: getIntEnv("AIRA_BREAKER_FAILURES", 5),
		BreakerTimeout:  getDurationEnv("AIRA_BREAKER_TIMEOUT", 30*time.Second),

		RedisURL:      getEnv("REDIS_URL", ""),
		GroupCacheTTL: getDurationEnv("AIRA_GROUP_CACHE_TTL", time.Minute),

		DevAPIAddr:       getEnv("DEVAPI_ADDR", "127.0.0.1:8090"),
		DevAPIDriver:     getEnv("DEVAPI_DRIVER", "sqlite"),
		DevAPISQLitePath: getEnv("DEVAPI_SQLITE_PATH", defaultSQLitePath()),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid AIRA_TIMEZONE %q: %w", c.Timezone, err)
		}
	}
	switch c.DevAPIDriver {
	case "sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DEVAPI_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DEVAPI_DRIVER %q", c.DevAPIDriver)
	}
	if c.BreakerFailures < 1 {
		return fmt.Errorf("AIRA_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

// Location returns the configured time zone, or the local zone when unset.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "aira-devapi.db"
	}
	return home + "/.aira/devapi.db"
}
