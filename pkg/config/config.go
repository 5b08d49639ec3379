// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	// Database connections
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig // nil when no warehouse source is configured

	Ingestion IngestionConfig
	HTTP      HTTPConfig
	Kafka     KafkaConfig

	// Read cache capacity (filter signatures)
	CacheEntries int

	// Logging
	LogLevel  string
	LogFormat string
}

// IngestionConfig controls how spreadsheet exports are loaded
type IngestionConfig struct {
	RawDataDir      string
	SheetMapPath    string
	HeaderRow       int // Zero-based row holding the column names
	WindowDays      int // Trailing window of activity dates kept; 0 keeps everything
	CutoffHour      int // Local hour from which the second preview is shown
	Timezone        string
	Workers         int // Parallel source reads
	InsertBatchSize int
}

// HTTPConfig holds the read API listener settings
type HTTPConfig struct {
	Address         string
	ShutdownTimeout time.Duration
}

// KafkaConfig holds the data-updated notifier settings
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Enabled reports whether notifications should be published
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// LoadConfig loads configuration from the environment, reading a .env file
// first when one is present
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		Ingestion: IngestionConfig{
			RawDataDir:      getEnv("RAW_DATA_DIR", "data/raw"),
			SheetMapPath:    getEnv("SHEET_MAP_PATH", "config/mapeamento_abas.json"),
			HeaderRow:       getEnvAsInt("HEADER_ROW", 4),
			WindowDays:      getEnvAsInt("WINDOW_DAYS", 31),
			CutoffHour:      getEnvAsInt("CUTOFF_HOUR", 12),
			Timezone:        getEnv("TIMEZONE", "America/Sao_Paulo"),
			Workers:         getEnvAsInt("INGEST_WORKERS", 4),
			InsertBatchSize: getEnvAsInt("INSERT_BATCH_SIZE", 500),
		},
		HTTP: HTTPConfig{
			Address:         getEnv("HTTP_ADDRESS", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsStringSlice("KAFKA_BROKERS", nil),
			Topic:   getEnv("KAFKA_TOPIC", "statusdiario.data-updated"),
		},
		CacheEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 256),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load PostgreSQL configuration: %w", err)
	}
	cfg.Postgres = pgConfig

	snowConfig, err := LoadSnowflakeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load Snowflake configuration: %w", err)
	}
	cfg.Snowflake = snowConfig

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.Ingestion.HeaderRow < 0 {
		return errors.New("header row cannot be negative")
	}

	if c.Ingestion.WindowDays < 0 {
		return errors.New("window days cannot be negative")
	}

	if c.Ingestion.CutoffHour < 0 || c.Ingestion.CutoffHour > 23 {
		return errors.New("cutoff hour must be between 0 and 23")
	}

	if _, err := time.LoadLocation(c.Ingestion.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Ingestion.Timezone, err)
	}

	if c.Ingestion.Workers <= 0 {
		return errors.New("ingest workers must be positive")
	}

	if c.Ingestion.InsertBatchSize <= 0 {
		return errors.New("insert batch size must be positive")
	}

	if c.CacheEntries <= 0 {
		return errors.New("cache entries must be positive")
	}

	if c.Postgres.ReadTimeout <= 0 || c.Postgres.WriteTimeout <= 0 {
		return errors.New("database read and write timeouts must be positive")
	}

	return nil
}

// Location returns the zone spreadsheet dates are interpreted in
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Ingestion.Timezone)
	if err != nil {
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsStringSlice parses a comma-separated list, dropping blanks
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
