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
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "arkive.db", cfg.DBPath)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, "https://web.archive.org", cfg.WaybackEndpoint)
	assert.Equal(t, 120*time.Second, cfg.ProviderTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, 5*time.Minute, cfg.LockTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARKIVE_DB_PATH", "/tmp/arkive-test.db")
	t.Setenv("ARKIVE_PORT", "8081")
	t.Setenv("ARKIVE_PROVIDER_TIMEOUT", "45s")
	t.Setenv("ARKIVE_REDIS_ADDR", "localhost:6379")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/arkive-test.db", cfg.DBPath)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, 45*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arkive.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\nuser_agent: custom-agent\n"), 0644))
	t.Setenv("ARKIVE_PORT", "5000")

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port, "environment overrides the file")
	assert.Equal(t, "custom-agent", cfg.UserAgent)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadValidates(t *testing.T) {
	t.Setenv("ARKIVE_PORT", "70000")
	_, err := Load(New(), "")
	assert.Error(t, err)
}
