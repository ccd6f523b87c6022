package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API     APIConfig
	Capture CaptureConfig
	Cache   CacheConfig
	Stub    StubConfig
	App     AppConfig
}

// APIConfig points at the remote business-operations API.
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CaptureConfig tunes the geofence admission flow.
type CaptureConfig struct {
	RadiusM    float64
	MaxFixAge  time.Duration
	LocatorCmd string
	StaticLat  *float64
	StaticLon  *float64
}

type CacheConfig struct {
	Dir string
}

// StubConfig configures the local dev stub server.
type StubConfig struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// AppConfig holds application configuration
type AppConfig struct {
	Env      string
	LogLevel string
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	config := &Config{}

	apiTimeout, err := time.ParseDuration(getEnv("PUNCH_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_API_TIMEOUT: %w", err)
	}
	config.API = APIConfig{
		BaseURL: getEnv("PUNCH_API_BASE_URL", "http://localhost:8091"),
		Token:   getEnv("PUNCH_API_TOKEN", ""),
		Timeout: apiTimeout,
	}

	radiusM, err := strconv.ParseFloat(getEnv("PUNCH_GEOFENCE_RADIUS_M", "100"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_GEOFENCE_RADIUS_M: %w", err)
	}
	maxFixAge, err := time.ParseDuration(getEnv("PUNCH_MAX_FIX_AGE", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_MAX_FIX_AGE: %w", err)
	}
	config.Capture = CaptureConfig{
		RadiusM:    radiusM,
		MaxFixAge:  maxFixAge,
		LocatorCmd: getEnv("PUNCH_LOCATOR_CMD", ""),
		StaticLat:  getEnvFloat("PUNCH_STATIC_LAT"),
		StaticLon:  getEnvFloat("PUNCH_STATIC_LON"),
	}

	config.Cache = CacheConfig{
		Dir: getEnv("PUNCH_CACHE_DIR", ".punchkit"),
	}

	stubPort, err := strconv.Atoi(getEnv("STUB_PORT", "8091"))
	if err != nil {
		return nil, fmt.Errorf("invalid STUB_PORT: %w", err)
	}
	config.Stub = StubConfig{
		Port:      stubPort,
		DBPath:    getEnv("STUB_DB_PATH", "punchstub.db"),
		JWTSecret: getEnv("STUB_JWT_SECRET", "dev-only-secret"),
	}

	config.App = AppConfig{
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("PUNCH_API_BASE_URL is required")
	}
	if c.Capture.RadiusM <= 0 {
		return fmt.Errorf("PUNCH_GEOFENCE_RADIUS_M must be positive")
	}
	if (c.Capture.StaticLat == nil) != (c.Capture.StaticLon == nil) {
		return fmt.Errorf("PUNCH_STATIC_LAT and PUNCH_STATIC_LON must be set together")
	}
	return nil
}

// RadiusKm returns the geofence radius in kilometers, the unit the
// distance calculator works in.
func (c *Config) RadiusKm() float64 {
	return c.Capture.RadiusM / 1000.0
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvFloat(key string) *float64 {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
