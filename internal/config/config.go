package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL is the Postgres connection string for the incidence store.
	DatabaseURL     string
	DBMaxConns      int
	DBMinConns      int
	DBConnLifetime  time.Duration

	// Kafka publishing of per-state allocations (optional sink).
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// BoundaryStateProperty is the GeoJSON feature property holding the state key.
	BoundaryStateProperty string

	// StrictMerge fails the run when a boundary state is missing from the
	// population or environment tables. When false, missing values default to
	// zero and are reported in the run log.
	StrictMerge bool

	// DashboardCacheSize bounds the LRU cache of computed dashboard views.
	DashboardCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	connLifetime, err := parseDuration("DB_CONN_LIFETIME", "30m")
	if err != nil {
		return nil, err
	}

	kafkaEnabled := envOrDefault("KAFKA_ENABLED", "false") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     parseInt("DB_MAX_CONNS", 10),
		DBMinConns:     parseInt("DB_MIN_CONNS", 2),
		DBConnLifetime: connLifetime,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "state-allocations"),

		BoundaryStateProperty: envOrDefault("BOUNDARY_STATE_PROPERTY", "state_name"),
		StrictMerge:           envOrDefault("STRICT_MERGE", "true") == "true",
		DashboardCacheSize:    parseInt("DASHBOARD_CACHE_SIZE", 256),
	}

	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.DBMaxConns < cfg.DBMinConns {
		return nil, errors.New("DB_MAX_CONNS must be >= DB_MIN_CONNS")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
