package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RejectsShortJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("PORT", "")
	t.Setenv("REFRESH_CONCURRENCY", "")
	t.Setenv("WEIGHT_LEETCODE", "")
	t.Setenv("SCHEDULER_INTERVAL", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3333", cfg.Port)
	assert.Equal(t, 3, cfg.RefreshConcurrency)
	assert.Equal(t, 1.0, cfg.Weights.LeetCode)
	assert.Equal(t, 6*time.Hour, cfg.SchedulerInterval)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/campus")
	t.Setenv("JWT_SECRET", "a-very-long-test-secret")
	t.Setenv("APP_URL", "https://rank.example.edu/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("WEIGHT_GFG", "0.5")
	t.Setenv("REFRESH_CONCURRENCY", "0")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://rank.example.edu", cfg.AppURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 0.5, cfg.Weights.GFG)
	assert.Equal(t, 1, cfg.RefreshConcurrency)
	assert.True(t, cfg.IsProduction())
}
