package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rec_front_1979_01.v26.nc", cfg.InputPath)
	assert.Equal(t, "out.nc", cfg.OutputPath)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "front-grid-steps", cfg.KafkaTopic)
	assert.False(t, cfg.NotifyEnabled())
	assert.False(t, cfg.StatusEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INPUT_PATH", "/data/rec_front_1980_07.v26.nc")
	t.Setenv("OUTPUT_PATH", "/data/grid_1980_07.nc")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-steps")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/rec_front_1980_07.v26.nc", cfg.InputPath)
	assert.Equal(t, "/data/grid_1980_07.nc", cfg.OutputPath)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-steps", cfg.KafkaTopic)
	assert.True(t, cfg.NotifyEnabled())
	assert.True(t, cfg.StatusEnabled())
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoad_SamePaths(t *testing.T) {
	t.Setenv("INPUT_PATH", "fronts.nc")
	t.Setenv("OUTPUT_PATH", "./fronts.nc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OUTPUT_PATH")
}

func TestValidate_TopicRequiredWithBrokers(t *testing.T) {
	cfg := &Config{
		InputPath:    "in.nc",
		OutputPath:   "out.nc",
		LogFormat:    "json",
		KafkaBrokers: []string{"localhost:9092"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_TOPIC")

	cfg.KafkaBrokers = nil
	require.NoError(t, cfg.Validate())
}

func TestApplyArgs(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.NoError(t, cfg.ApplyArgs([]string{"jan.nc"}))
	assert.Equal(t, "jan.nc", cfg.InputPath)
	assert.Equal(t, "out.nc", cfg.OutputPath)

	require.NoError(t, cfg.ApplyArgs([]string{"feb.nc", "feb_grid.nc"}))
	assert.Equal(t, "feb.nc", cfg.InputPath)
	assert.Equal(t, "feb_grid.nc", cfg.OutputPath)

	require.Error(t, cfg.ApplyArgs([]string{"a.nc", "b.nc", "c.nc"}))
	require.Error(t, cfg.ApplyArgs([]string{"same.nc", "same.nc"}))
}
