// Package config provides application configuration management from environment variables.
//
// # Overview
//
// This package loads and validates configuration from environment variables with
// sensible defaults for all settings.
//
// # Configuration Structure
//
// Server settings:
//
//	WARDEN_HOST="0.0.0.0"
//	WARDEN_PORT="8080"
//	WARDEN_HEALTH_PORT="9090"
//	WARDEN_READ_TIMEOUT="15s"
//	WARDEN_WRITE_TIMEOUT="15s"
//
// Database settings:
//
//	WARDEN_POSTGRES_URL="postgres://localhost:5432/warden?sslmode=disable"
//	WARDEN_POSTGRES_MAX_CONNS="25"
//	WARDEN_POSTGRES_IDLE_CONNS="5"
//
// Redis, cache, and consumer settings:
//
//	WARDEN_REDIS_URL="redis://localhost:6379"
//	WARDEN_CACHE_ENABLED="true"
//	WARDEN_CACHE_SIZE="4096"
//	WARDEN_CACHE_TTL="5m"
//	WARDEN_CONSUMER_ENABLED="true"
//	WARDEN_CONSUMER_STREAM="warden:db-events"
//	WARDEN_CONSUMER_GROUP="warden"
//
// Observability settings:
//
//	WARDEN_LOG_LEVEL="info"  # debug, info, warn, error
//	WARDEN_METRICS_ENABLED="true"
//	WARDEN_OTEL_ENABLED="false"
//	WARDEN_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
// Load configuration:
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//	fmt.Printf("Stream: %s\n", cfg.Consumer.Stream)
//
// # Related Packages
//
//   - pkg/sharing: Uses cache configuration
//   - pkg/events: Uses consumer configuration
//   - pkg/observability: Uses observability configuration
package config
