package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, "127.0.0.1:8080", cfg.AppAddr)
	assert.False(t, cfg.SequenceReuseFreed)
	assert.True(t, cfg.CacheEnabled)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.StorageDriver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_DRIVER")
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "chatty"
	assert.ErrorContains(t, cfg.Validate(), "LOG_LEVEL")
}

func TestTestModeOverride(t *testing.T) {
	SetTestMode(true)
	t.Cleanup(func() { SetTestMode(false) })
	assert.True(t, InTestMode())
}
