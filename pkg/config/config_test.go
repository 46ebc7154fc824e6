package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CHATARCH_TOKEN", "CHATARCH_API_BASE_URL", "CHATARCH_USER_AGENT",
		"CHATARCH_TARGET_DIR", "CHATARCH_EMOTICON_DIR",
		"CHATARCH_REQUESTS_PER_MINUTE", "CHATARCH_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "./archive", cfg.Archive.TargetDir)
	assert.Equal(t, 50, cfg.Archive.PageSize)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Retry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATARCH_TOKEN", "env-token")
	t.Setenv("CHATARCH_TARGET_DIR", "/tmp/chats")
	t.Setenv("CHATARCH_REQUESTS_PER_MINUTE", "30")
	t.Setenv("CHATARCH_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.API.Token)
	assert.Equal(t, "/tmp/chats", cfg.Archive.TargetDir)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidRate(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATARCH_REQUESTS_PER_MINUTE", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://graph.example.com/v1.0
  timeout: 10s
archive:
  target_dir: ./standup
  page_size: 25
rate_limit:
  requests_per_minute: 45
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://graph.example.com/v1.0", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "./standup", cfg.Archive.TargetDir)
	assert.Equal(t, 25, cfg.Archive.PageSize)
	assert.Equal(t, 45, cfg.RateLimit.RequestsPerMinute)

	// Values the file doesn't mention keep their defaults
	assert.Equal(t, "./archive/emoticons", cfg.Emoticons.Dir)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHATARCH_TOKEN", "env-token")

	cfg, err := Load("", map[string]interface{}{
		"token":      "flag-token",
		"rate-limit": 15,
	})
	require.NoError(t, err)

	assert.Equal(t, "flag-token", cfg.API.Token)
	assert.Equal(t, 15, cfg.RateLimit.RequestsPerMinute)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Token = "tok"
	assert.NoError(t, cfg.Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.BaseURL = ""
	cfg.RateLimit.RequestsPerMinute = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base URL")
	assert.Contains(t, err.Error(), "bearer token")
	assert.Contains(t, err.Error(), "requests per minute")
}
