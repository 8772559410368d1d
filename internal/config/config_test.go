// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "channel", cfg.ReminderBus)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, float64(50), cfg.RatePerSecond)
	assert.Equal(t, 100, cfg.RateBurst)
	assert.Empty(t, cfg.OTLPEndpoint)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("REMINDER_BUS", "redis")
	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("RATE_PER_SECOND", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "redis", cfg.ReminderBus)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, float64(5), cfg.RatePerSecond)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("RATE_BURST", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}
