package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings read from the environment.
type Config struct {
	Port             string
	DatabaseURL      string
	RedisURL         string
	DistanceProvider string
	ORSAPIKey        string
	ORSRatePerMinute int
	DistanceCache    string
	DistanceCacheTTL time.Duration
	MaxExactOrders   int
	ExactOrderLimit  int
	SeedPath         string
	LogLevel         string
}

// LoadDotEnv loads a .env file if present. It reports whether one was found.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

// Load reads the environment into a Config and validates enumerated values.
// Call LoadDotEnv first to pick up a local .env file.
func Load() (Config, error) {
	cfg := Config{
		Port:             Get("PORT", "8080"),
		DatabaseURL:      Get("DATABASE_URL", ""),
		RedisURL:         Get("REDIS_URL", ""),
		DistanceProvider: strings.ToLower(Get("DISTANCE_PROVIDER", "haversine")),
		ORSAPIKey:        Get("ORS_API_KEY", ""),
		DistanceCache:    strings.ToLower(Get("DISTANCE_CACHE", "none")),
		SeedPath:         Get("SEED_PATH", "data/seeds/orders.json"),
		LogLevel:         Get("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.ORSRatePerMinute, err = GetInt("ORS_RATE_PER_MINUTE", 40); err != nil {
		return Config{}, err
	}
	if cfg.MaxExactOrders, err = GetInt("MAX_EXACT_ORDERS", 8); err != nil {
		return Config{}, err
	}
	if cfg.ExactOrderLimit, err = GetInt("EXACT_ORDER_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.DistanceCacheTTL, err = GetDuration("DISTANCE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	switch cfg.DistanceProvider {
	case "haversine":
	case "ors":
		if cfg.ORSAPIKey == "" {
			return Config{}, fmt.Errorf("config: ORS_API_KEY is required when DISTANCE_PROVIDER=ors")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown DISTANCE_PROVIDER %q", cfg.DistanceProvider)
	}

	switch cfg.DistanceCache {
	case "none":
	case "sql":
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("config: DATABASE_URL is required when DISTANCE_CACHE=sql")
		}
	case "redis":
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("config: REDIS_URL is required when DISTANCE_CACHE=redis")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown DISTANCE_CACHE %q", cfg.DistanceCache)
	}

	if cfg.MaxExactOrders < 0 {
		return Config{}, fmt.Errorf("config: MAX_EXACT_ORDERS must be non-negative, got %d", cfg.MaxExactOrders)
	}

	if cfg.ExactOrderLimit < 1 {
		return Config{}, fmt.Errorf("config: EXACT_ORDER_LIMIT must be positive, got %d", cfg.ExactOrderLimit)
	}

	return cfg, nil
}
