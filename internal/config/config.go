// internal/config/config.go

package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Warehouse   WarehouseConfig
	Trends      TrendsConfig
	Cache       CacheConfig
	NATS        NATSConfig
	Logging     LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
	RateLimit       int
	RateLimitWindow time.Duration
}

// WarehouseConfig holds the prediction warehouse connection and table layout
type WarehouseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MinIdleConns     int
	MaxLifetime      time.Duration
	PredictionSchema string
	FeatureSchema    string
	FeatureTable     string
	SnapshotPrefix   string
	LatestTable      string
}

// TrendsConfig holds trend API client configuration
type TrendsConfig struct {
	BaseURL           string
	Language          string
	TZOffset          int
	Geo               string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryDelay        time.Duration
}

// CacheConfig holds memoization lifetimes per operation family
type CacheConfig struct {
	TrendsTTL           time.Duration
	PredictionsTTL      time.Duration
	TitleLookupTTL      time.Duration
	ModelPerformanceTTL time.Duration
	// WarmInterval is how often the headline panel is rebuilt; 0 disables
	WarmInterval        time.Duration
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled        bool
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	Subject        string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from an optional .env file and environment variables
func Load() (Config, error) {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
			RateLimit:       getEnvAsInt("SERVER_RATE_LIMIT", 120),
			RateLimitWindow: getEnvAsDuration("SERVER_RATE_LIMIT_WINDOW", time.Minute),
		},
		Warehouse: WarehouseConfig{
			Host:             getEnv("WAREHOUSE_HOST", "localhost"),
			Port:             getEnvAsInt("WAREHOUSE_PORT", 5432),
			User:             getEnv("WAREHOUSE_USER", "postgres"),
			Password:         getEnv("WAREHOUSE_PASSWORD", "postgres"),
			Database:         getEnv("WAREHOUSE_DATABASE", "data_model_final_project"),
			SSLMode:          getEnv("WAREHOUSE_SSL_MODE", "disable"),
			MaxOpenConns:     getEnvAsInt("WAREHOUSE_MAX_OPEN_CONNS", 10),
			MinIdleConns:     getEnvAsInt("WAREHOUSE_MIN_IDLE_CONNS", 1),
			MaxLifetime:      getEnvAsDuration("WAREHOUSE_MAX_LIFETIME", 5*time.Minute),
			PredictionSchema: getEnv("WAREHOUSE_PREDICTION_SCHEMA", "predictions"),
			FeatureSchema:    getEnv("WAREHOUSE_FEATURE_SCHEMA", "netflix_final"),
			FeatureTable:     getEnv("WAREHOUSE_FEATURE_TABLE", "final_dataset_ready"),
			SnapshotPrefix:   getEnv("WAREHOUSE_SNAPSHOT_PREFIX", "prediction"),
			LatestTable:      getEnv("WAREHOUSE_LATEST_TABLE", "prediction_latest"),
		},
		Trends: TrendsConfig{
			BaseURL:           getEnv("TRENDS_BASE_URL", "https://trends.google.com"),
			Language:          getEnv("TRENDS_LANGUAGE", "en-US"),
			TZOffset:          getEnvAsInt("TRENDS_TZ_OFFSET", 360),
			Geo:               getEnv("TRENDS_GEO", ""),
			RequestTimeout:    getEnvAsDuration("TRENDS_REQUEST_TIMEOUT", 30*time.Second),
			RequestsPerSecond: getEnvAsFloat("TRENDS_REQUESTS_PER_SECOND", 1.0),
			Burst:             getEnvAsInt("TRENDS_BURST", 1),
			MaxRetries:        getEnvAsInt("TRENDS_MAX_RETRIES", 2),
			RetryDelay:        getEnvAsDuration("TRENDS_RETRY_DELAY", time.Second),
		},
		Cache: CacheConfig{
			TrendsTTL:           getEnvAsDuration("CACHE_TRENDS_TTL", time.Hour),
			PredictionsTTL:      getEnvAsDuration("CACHE_PREDICTIONS_TTL", time.Hour),
			TitleLookupTTL:      getEnvAsDuration("CACHE_TITLE_LOOKUP_TTL", 30*time.Minute),
			ModelPerformanceTTL: getEnvAsDuration("CACHE_MODEL_PERFORMANCE_TTL", 24*time.Hour),
			WarmInterval:        getEnvAsDuration("CACHE_WARM_INTERVAL", 15*time.Minute),
		},
		NATS: NATSConfig{
			Enabled:        getEnvAsBool("NATS_ENABLED", false),
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			Subject:        getEnv("NATS_SUBJECT", "dashboard.trends"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, validate(config)
}

// ConnString returns the warehouse connection string in URL form
func (c WarehouseConfig) ConnString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Warehouse.SnapshotPrefix == "" {
		return fmt.Errorf("snapshot prefix cannot be empty")
	}

	if config.Warehouse.LatestTable == "" {
		return fmt.Errorf("latest table cannot be empty")
	}

	ttls := map[string]time.Duration{
		"CACHE_TRENDS_TTL":            config.Cache.TrendsTTL,
		"CACHE_PREDICTIONS_TTL":       config.Cache.PredictionsTTL,
		"CACHE_TITLE_LOOKUP_TTL":      config.Cache.TitleLookupTTL,
		"CACHE_MODEL_PERFORMANCE_TTL": config.Cache.ModelPerformanceTTL,
	}
	for name, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if config.Cache.WarmInterval < 0 {
		return fmt.Errorf("CACHE_WARM_INTERVAL cannot be negative")
	}

	if config.Trends.RequestsPerSecond <= 0 {
		return fmt.Errorf("trends requests per second must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
