package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Dataset backends
const (
	SourceCSV        = "csv"
	SourcePostgres   = "postgres"
	SourceMySQL      = "mysql"
	SourceClickHouse = "clickhouse"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Datasets
	RosterSource  string
	CombatSource  string
	RosterCSV     string
	CombatsCSV    string
	PostgresURL   string
	ClickHouseURL string
	MySQLDSN      string
	RedisURL      string

	// Model
	ModelSeed           int64
	ModelTestFraction   float64
	ModelMaxDepth       int
	ModelMinSamplesLeaf int
	PredictionCacheTTL  time.Duration
	BundleCacheTTL      time.Duration
	ModelBuildTimeout   time.Duration
	ModelRefreshDelay   time.Duration

	// Worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Rate limiting
	RateLimitPerSecond int
	RateLimitBurst     int

	// Auth
	AdminToken string
}

// Load loads configuration from environment variables.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		RosterSource: strings.ToLower(getEnv("ROSTER_SOURCE", SourceCSV)),
		CombatSource: strings.ToLower(getEnv("COMBAT_SOURCE", SourceCSV)),
		RosterCSV:    getEnv("ROSTER_CSV", "data/pokemon.csv"),
		CombatsCSV:   getEnv("COMBATS_CSV", "data/combats.csv"),
		RedisURL:     os.Getenv("REDIS_URL"),

		ModelSeed:           getEnvInt64("MODEL_SEED", 2345),
		ModelTestFraction:   getEnvFloat("MODEL_TEST_FRACTION", 0.25),
		ModelMaxDepth:       getEnvInt("MODEL_MAX_DEPTH", 0),
		ModelMinSamplesLeaf: getEnvInt("MODEL_MIN_SAMPLES_LEAF", 1),
		PredictionCacheTTL:  getEnvDuration("PREDICTION_CACHE_TTL", time.Hour),
		BundleCacheTTL:      getEnvDuration("BUNDLE_CACHE_TTL", 7*24*time.Hour),
		ModelBuildTimeout:   getEnvDuration("MODEL_BUILD_TIMEOUT", 10*time.Minute),
		ModelRefreshDelay:   getEnvDuration("MODEL_REFRESH_DELAY", 30*time.Second),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 100),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 200),

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	switch cfg.RosterSource {
	case SourceCSV, SourcePostgres, SourceMySQL:
	default:
		return nil, fmt.Errorf("invalid ROSTER_SOURCE %q: want csv, postgres or mysql", cfg.RosterSource)
	}
	switch cfg.CombatSource {
	case SourceCSV, SourcePostgres, SourceClickHouse:
	default:
		return nil, fmt.Errorf("invalid COMBAT_SOURCE %q: want csv, postgres or clickhouse", cfg.CombatSource)
	}

	if cfg.ModelTestFraction < 0 || cfg.ModelTestFraction >= 1 {
		return nil, fmt.Errorf("MODEL_TEST_FRACTION must be in [0, 1), got %v", cfg.ModelTestFraction)
	}
	if cfg.ModelMaxDepth < 0 || cfg.ModelMinSamplesLeaf < 1 {
		return nil, fmt.Errorf("MODEL_MAX_DEPTH must be >= 0 and MODEL_MIN_SAMPLES_LEAF >= 1")
	}

	// Connection strings are only required for the selected backends
	var err error
	if cfg.Uses(SourcePostgres) {
		if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
			return nil, err
		}
	}
	if cfg.Uses(SourceClickHouse) {
		if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
			return nil, err
		}
	}
	if cfg.Uses(SourceMySQL) {
		if cfg.MySQLDSN, err = getEnvRequired("MYSQL_DSN"); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Uses reports whether either dataset is read from the given backend
func (c *Config) Uses(source string) bool {
	return c.RosterSource == source || c.CombatSource == source
}

// IngestEnabled reports whether combats can be written back. Ingested
// records are only useful when training reads them from the same store.
func (c *Config) IngestEnabled() bool {
	return c.CombatSource == SourceClickHouse
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
