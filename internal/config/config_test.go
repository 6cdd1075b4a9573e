// ABOUTME: Tests for configuration loading
// ABOUTME: Covers env expansion, duration parsing, defaults, and validation

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":9090"
database:
  path: /tmp/cyborg-test.db
auth:
  jwt_secret: test-secret
provider:
  base_url: http://localhost:11434/v1
  api_key: sk-test
  model: test-model
  request_timeout: 30s
limits:
  sweep_interval: 10s
  categories:
    chat:
      window: 60s
      max_requests: 20
    auth:
      window: 5m
      max_requests: 10
  global:
    window: 60s
    max_requests: 500
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/cyborg-test.db", cfg.Database.Path)
	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "test-model", cfg.Provider.Model)
	assert.Equal(t, 30*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Limits.SweepInterval)
	assert.Equal(t, time.Minute, cfg.Limits.Categories["chat"].Window)
	assert.Equal(t, 20, cfg.Limits.Categories["chat"].MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.Limits.Categories["auth"].Window)
	assert.Equal(t, 500, cfg.Limits.Global.MaxRequests)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("CYBORG_TEST_SECRET", "expanded-secret")
	t.Setenv("CYBORG_TEST_KEY", "sk-expanded")

	path := writeConfig(t, `
auth:
  jwt_secret: ${CYBORG_TEST_SECRET}
provider:
  api_key: ${CYBORG_TEST_KEY}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "expanded-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "sk-expanded", cfg.Provider.APIKey)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: s
provider:
  api_key: k
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.Model)
	assert.Equal(t, 60*time.Second, cfg.Provider.RequestTimeout)
	assert.Equal(t, 60*time.Second, cfg.Limits.SweepInterval)

	// chat category and global ceiling exist even when unconfigured
	chat, ok := cfg.Limits.Categories["chat"]
	require.True(t, ok)
	assert.Equal(t, 20, chat.MaxRequests)
	assert.Equal(t, time.Minute, chat.Window)
	assert.Equal(t, 200, cfg.Limits.Global.MaxRequests)
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
provider:
  api_key: k
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
auth:
  jwt_secret: s
provider:
  api_key: k
limits:
  categories:
    chat:
      window: not-a-duration
      max_requests: 5
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat.window")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
