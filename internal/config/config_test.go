package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "uav-gcs", cfg.App.Name)
	assert.Equal(t, "tcp", cfg.Link.Transport)
	assert.Equal(t, "127.0.0.1:5760", cfg.Link.Addr)
	assert.Equal(t, uint8(255), cfg.Link.SystemID)
	assert.Equal(t, uint8(190), cfg.Link.ComponentID)
	assert.Equal(t, time.Second, cfg.Link.HeartbeatPeriod)
	assert.Equal(t, 100*time.Millisecond, cfg.Link.ReceiveTimeout)
	assert.Equal(t, 10, cfg.Command.RatePerSec)
	assert.Equal(t, 20, cfg.Command.Burst)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enable)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../../configs/example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "tcp", cfg.Link.Transport)
	assert.NotEmpty(t, cfg.Link.Addr)
	assert.NotZero(t, cfg.Link.SystemID)
	assert.Positive(t, cfg.Link.HeartbeatPeriod)
	assert.Positive(t, cfg.Command.RatePerSec)
	assert.NotEmpty(t, cfg.Logging.File.Filename)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("GCS_LINK_ADDR", "10.0.0.9:5770")
	t.Setenv("GCS_LINK_SYSTEMID", "254")
	t.Setenv("GCS_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9:5770", cfg.Link.Addr)
	assert.Equal(t, uint8(254), cfg.Link.SystemID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_MissingExplicitFileIsError(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
