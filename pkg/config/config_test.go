package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/pcm?sslmode=disable")
	t.Setenv("SNOWFLAKE_ACCOUNT", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@localhost:5432/pcm?sslmode=disable", cfg.Postgres.ConnectionString())
	assert.Nil(t, cfg.Snowflake)
	assert.Equal(t, 4, cfg.Ingestion.HeaderRow)
	assert.Equal(t, 31, cfg.Ingestion.WindowDays)
	assert.Equal(t, 12, cfg.Ingestion.CutoffHour)
	assert.Equal(t, 10*time.Second, cfg.Postgres.ReadTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Postgres.WriteTimeout)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "America/Sao_Paulo", cfg.Location().String())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "pcm")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_DB", "painel")
	t.Setenv("POSTGRES_PORT", "6543")
	t.Setenv("WINDOW_DAYS", "7")
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("HTTP_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CACHE_MAX_ENTRIES", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "host=localhost port=6543 user=pcm password=secret dbname=painel sslmode=disable", cfg.Postgres.ConnectionString())
	assert.Equal(t, 7, cfg.Ingestion.WindowDays)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 3*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, 256, cfg.CacheEntries)
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadSnowflakeConfig(t *testing.T) {
	t.Setenv("SNOWFLAKE_ACCOUNT", "acme-xy123")
	t.Setenv("SNOWFLAKE_USER", "loader")
	t.Setenv("SNOWFLAKE_WAREHOUSE", "WH")
	t.Setenv("SNOWFLAKE_SCHEMA", "PROGRAMACAO")
	t.Setenv("SNOWFLAKE_TABLES", "DIARIO_SUL,DIARIO_NORTE")

	cfg, err := LoadSnowflakeConfig()
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, []string{"DIARIO_SUL", "DIARIO_NORTE"}, cfg.Tables)

	t.Setenv("SNOWFLAKE_SCHEMA", "")
	_, err = LoadSnowflakeConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/pcm")

	cases := map[string]string{
		"CUTOFF_HOUR":       "24",
		"WINDOW_DAYS":       "-1",
		"TIMEZONE":          "Mars/Olympus",
		"INGEST_WORKERS":    "0",
		"INSERT_BATCH_SIZE": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "console"}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}
