package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.Engine.ShutdownTimeout)
	assert.Equal(t, time.Second, cfg.Engine.BroadcastInterval)
	assert.Equal(t, 65536, cfg.Engine.QueueCapacity)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, 10, cfg.OrderBook.DefaultDepth)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"AAPL", "GOOGL", "MSFT", "TSLA", "AMZN"}, cfg.Simulation.Symbols)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("ENGINE_BROADCAST_INTERVAL", "250ms")
	t.Setenv("ENGINE_QUEUE_CAPACITY", "128")
	t.Setenv("RATE_LIMIT_DISABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SIMULATION_SYMBOLS", "X,Y")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.True(t, cfg.RateLimit.Disabled)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, []string{"X", "Y"}, cfg.Simulation.Symbols)

	options := cfg.Engine.Options()
	assert.Equal(t, 250*time.Millisecond, options.BroadcastInterval)
	assert.Equal(t, 128, options.QueueCapacity)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("ENGINE_QUEUE_CAPACITY", "lots")

	_, err := Load()
	assert.Error(t, err)
}
