package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted by CONTENT_BACKEND
const (
	BackendAPI       = "api"
	BackendTypesense = "typesense"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	ContentAPI ContentAPIConfig
	Explore    ExploreConfig
	Redis      RedisConfig
	Typesense  TypesenseConfig
	OTEL       OTELConfig
}

// AppConfig holds process-level settings
type AppConfig struct {
	Env      string
	LogLevel string
	Backend  string
}

// ContentAPIConfig holds the content REST API configuration
type ContentAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ExploreConfig holds list controller tuning
type ExploreConfig struct {
	DebounceWindow  time.Duration
	PageSize        int
	FiltersFile     string
	FiltersCacheTTL time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			Backend:  getEnv("CONTENT_BACKEND", BackendAPI),
		},
		ContentAPI: ContentAPIConfig{
			BaseURL: getEnv("CONTENT_API_URL", "http://localhost:8080/api/v1"),
			Timeout: getEnvAsDuration("CONTENT_API_TIMEOUT", 10*time.Second),
		},
		Explore: ExploreConfig{
			DebounceWindow:  time.Duration(getEnvAsInt("EXPLORE_DEBOUNCE_MS", 500)) * time.Millisecond,
			PageSize:        getEnvAsInt("EXPLORE_PAGE_SIZE", 20),
			FiltersFile:     getEnv("FILTERS_FILE", ""),
			FiltersCacheTTL: getEnvAsDuration("FILTERS_CACHE_TTL", 5*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		Typesense: TypesenseConfig{
			URL:        getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:     getEnv("TYPESENSE_API_KEY", "xyz"),
			Collection: getEnv("TYPESENSE_COLLECTION", "content"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "content-explore"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted silently
func (c *Config) Validate() error {
	switch c.App.Backend {
	case BackendAPI, BackendTypesense:
	default:
		return fmt.Errorf("unsupported CONTENT_BACKEND %q (want %q or %q)", c.App.Backend, BackendAPI, BackendTypesense)
	}
	if c.Explore.DebounceWindow < 0 {
		return fmt.Errorf("EXPLORE_DEBOUNCE_MS must not be negative")
	}
	if c.Explore.PageSize < 0 {
		return fmt.Errorf("EXPLORE_PAGE_SIZE must not be negative")
	}
	return nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
