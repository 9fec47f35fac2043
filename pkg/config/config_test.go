package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Hub.PingInterval)
	assert.False(t, cfg.Settlement.AllowSelfJoin)
	assert.Equal(t, 50, cfg.Chat.HistoryLimit)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "no-such-file.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoadYAMLFile(t *testing.T) {
	content := `
server:
  address: ":9999"
settlement:
  allow_self_join: true
chat:
  history_limit: 10
auth:
  jwt_secret: "file-secret"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Address)
	assert.True(t, cfg.Settlement.AllowSelfJoin)
	assert.Equal(t, 10, cfg.Chat.HistoryLimit)
	assert.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	// Unspecified values keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Hub.PingInterval)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	content := `
chat:
  history_limit: -5
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.history_limit")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STREAMSHARE_SERVER_ADDRESS", ":7777")
	t.Setenv("STREAMSHARE_JWT_SECRET", "env-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Address)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
}

func TestValidateRedisRequirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.address")
}

func TestValidateTracingRequirements(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing.Enabled = true
	cfg.Tracing.SampleRate = 2.0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tracing.sample_rate")
}
