package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/warden/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Access cache configuration
	Cache CacheConfig

	// Replication consumer configuration
	Consumer ConsumerConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

// CacheConfig holds access-check cache settings
type CacheConfig struct {
	Enabled bool
	Size    int
	TTL     time.Duration
}

// ConsumerConfig holds replication consumer settings
type ConsumerConfig struct {
	Enabled       bool
	Stream        string
	Group         string
	ConsumerName  string
	BlockInterval time.Duration
	ClaimMinIdle  time.Duration
	BatchSize     int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Redis:         loadRedisConfig(),
		Cache:         loadCacheConfig(),
		Consumer:      loadConsumerConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("WARDEN_HOST", "0.0.0.0"),
		Port:            getEnv("WARDEN_PORT", "8080"),
		ReadTimeout:     getEnvDuration("WARDEN_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("WARDEN_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("WARDEN_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("WARDEN_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("WARDEN_HEALTH_PORT", "9090"),
	}
}

// loadDatabaseConfig loads PostgreSQL configuration from environment
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:          getEnv("WARDEN_POSTGRES_URL", "postgres://localhost:5432/warden?sslmode=disable"),
		MaxOpenConns: getEnvInt("WARDEN_POSTGRES_MAX_CONNS", 25),
		MaxIdleConns: getEnvInt("WARDEN_POSTGRES_IDLE_CONNS", 5),
		ConnLifetime: getEnvDuration("WARDEN_POSTGRES_CONN_LIFETIME", 5*time.Minute),
	}
}

// loadRedisConfig loads Redis configuration from environment
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:      getEnv("WARDEN_REDIS_URL", ""),
		Password: getEnv("WARDEN_REDIS_PASSWORD", ""),
		DB:       getEnvInt("WARDEN_REDIS_DB", 0),
		PoolSize: getEnvInt("WARDEN_REDIS_POOL_SIZE", 10),
	}
}

// loadCacheConfig loads access cache configuration from environment
func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: getEnvBool("WARDEN_CACHE_ENABLED", true),
		Size:    getEnvInt("WARDEN_CACHE_SIZE", 4096),
		TTL:     getEnvDuration("WARDEN_CACHE_TTL", 5*time.Minute),
	}
}

// loadConsumerConfig loads replication consumer configuration from
// environment
func loadConsumerConfig() ConsumerConfig {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "warden"
	}
	return ConsumerConfig{
		Enabled:       getEnvBool("WARDEN_CONSUMER_ENABLED", true),
		Stream:        getEnv("WARDEN_CONSUMER_STREAM", "warden:db-events"),
		Group:         getEnv("WARDEN_CONSUMER_GROUP", "warden"),
		ConsumerName:  getEnv("WARDEN_CONSUMER_NAME", hostname),
		BlockInterval: getEnvDuration("WARDEN_CONSUMER_BLOCK_INTERVAL", 5*time.Second),
		ClaimMinIdle:  getEnvDuration("WARDEN_CONSUMER_CLAIM_MIN_IDLE", time.Minute),
		BatchSize:     getEnvInt("WARDEN_CONSUMER_BATCH_SIZE", 16),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("WARDEN_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("WARDEN_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("WARDEN_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("WARDEN_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("WARDEN_OTEL_SERVICE_NAME", "warden"),
		OTelServiceVersion: getEnv("WARDEN_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("WARDEN_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	// The cache and the consumer both ride on Redis.
	if c.Cache.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when the access cache is enabled")
	}
	if c.Consumer.Enabled {
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required when the consumer is enabled")
		}
		if c.Consumer.Stream == "" || c.Consumer.Group == "" {
			return fmt.Errorf("consumer stream and group are required when the consumer is enabled")
		}
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
