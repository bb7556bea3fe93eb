package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "fern-api", cfg.AppName)
	assert.Equal(t, 1, cfg.RepeatSetConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.MergeServiceTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "%:Name%_%action%_%templatename%_%timestamp[MM-dd-yyyy]%_%vx%", cfg.DefaultFileNameFormat)
}

func TestLoadFromEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("REPEAT_SET_CONCURRENCY=4\nKAFKA_BROKERS=a:9092,b:9092\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("REPEAT_SET_CONCURRENCY")
		os.Unsetenv("KAFKA_BROKERS")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.RepeatSetConcurrency)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
}

func TestLoadBindsEnvironment(t *testing.T) {
	t.Setenv("MERGE_SERVICE_URL", "http://merge.internal/api/merge")
	t.Setenv("MERGE_SERVICE_TIMEOUT", "30s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "http://merge.internal/api/merge", cfg.MergeServiceURL)
	assert.Equal(t, 30*time.Second, cfg.MergeServiceTimeout)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6380", cfg.RedisAddr())
	// unset keys keep their defaults
	assert.Equal(t, "fern:schema", cfg.SchemaCacheKeyspace)
}

func TestValidate(t *testing.T) {
	t.Setenv("REPEAT_SET_CONCURRENCY", "0")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "REPEAT_SET_CONCURRENCY")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{DatabaseDriver: "postgres", DatabaseHost: "db", DatabasePort: "5432", DatabaseUserName: "fern", DatabasePassword: "secret", DatabaseName: "fern", DatabaseSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=fern password=secret dbname=fern sslmode=disable", cfg.DatabaseDSN())

	cfg.DatabaseDriver = "sqlite3"
	cfg.DatabaseName = "file::memory:"
	assert.Equal(t, "file::memory:", cfg.DatabaseDSN())
}
