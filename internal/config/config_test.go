package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultUpstreamBaseURL, cfg.UpstreamBaseURL)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultOfficePhone, cfg.OfficePhone)
	assert.Empty(t, cfg.UpstreamAPIKey)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingUpstreamKey)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		"OPENROUTER_API_KEY": "  sk-test ",
		"LISTEN_ADDR":        ":9000",
		"ALLOWED_ORIGINS":    "https://a.example, ,https://b.example",
		"REDIS_ADDR":         "localhost:6379",
	}))

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "sk-test", cfg.UpstreamAPIKey)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestCORSOrigin(t *testing.T) {
	open := Config{}
	assert.Equal(t, "*", open.CORSOrigin("https://anything.example"))

	restricted := Config{AllowedOrigins: []string{"https://drgregpedro.com"}}
	assert.Equal(t, "https://drgregpedro.com", restricted.CORSOrigin("https://drgregpedro.com"))
	assert.Empty(t, restricted.CORSOrigin("https://evil.example"))
}

func TestLoadMissingDotEnv(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DENTALCHAT_TEST_MODEL=anthropic/claude-3-haiku\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("DENTALCHAT_TEST_MODEL") })

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-3-haiku", os.Getenv("DENTALCHAT_TEST_MODEL"))
}
