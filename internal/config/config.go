// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPConfig struct {
	Address string
	// BehindProxy makes the client address come from X-Forwarded-For and
	// X-Real-IP. Leave it off unless a proxy sets those headers.
	BehindProxy bool
}

type StorageConfig struct {
	DBPath   string
	SeedPath string
}

type UpstreamConfig struct {
	HotelsURL string
	City      string
	Timeout   time.Duration
	PageSize  int
	MaxPages  int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is the full service configuration.
type Config struct {
	HTTP              HTTPConfig
	Storage           StorageConfig
	Upstream          UpstreamConfig
	RateLimit         RateLimitConfig
	Log               LogConfig
	QueryDefaultsPath string
}

// Load reads an optional .env file (envPath[0] when given) and then the
// process environment. A missing .env file is not an error.
func Load(envPath ...string) (*Config, error) {
	var err error
	if len(envPath) > 0 && envPath[0] != "" {
		err = godotenv.Load(envPath[0])
	} else {
		err = godotenv.Load()
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Address:     getEnv("API_ADDRESS", ":8080"),
			BehindProxy: getEnvAsBool("API_BEHIND_PROXY", false),
		},
		Storage: StorageConfig{
			DBPath:   getEnv("DB_PATH", "data/catalog.db"),
			SeedPath: getEnv("SEED_PATH", ""),
		},
		Upstream: UpstreamConfig{
			HotelsURL: getEnv("UPSTREAM_HOTELS_URL", ""),
			City:      getEnv("UPSTREAM_CITY", "Goa"),
			Timeout:   getEnvAsDuration("UPSTREAM_TIMEOUT", 5*time.Second),
			PageSize:  getEnvAsInt("UPSTREAM_PAGE_SIZE", 50),
			MaxPages:  getEnvAsInt("UPSTREAM_MAX_PAGES", 20),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		QueryDefaultsPath: getEnv("QUERY_DEFAULTS_PATH", ""),
	}

	if cfg.Storage.DBPath == "" {
		return nil, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0 {
		return nil, fmt.Errorf("rate limit must be positive (rps=%v burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid int in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func getEnvAsBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid bool in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func getEnvAsFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func getEnvAsDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
