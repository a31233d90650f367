package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"PATTERNS_PROVIDER", "OPENAI_MODEL", "OPENAI_API_BASE", "OPENAI_API_KEY",
		"GOOGLE_API_KEY", "PATTERNS_TEMPERATURE", "PATTERNS_TIMEOUT",
		"PATTERNS_LOG_LEVEL", "PATTERNS_TRACING", "PATTERNS_FETCH_URL",
		"PATTERNS_CHECKPOINT", "PATTERNS_CHECKPOINT_DSN", "REDIS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "memory", cfg.Checkpoint.Backend)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai-native
model: gpt-4-turbo
temperature: 0.7
checkpoint:
  backend: sqlite
  path: state.db
`), 0o644))

	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PATTERNS_TIMEOUT", "5s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAINative, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	assert.Equal(t, "sqlite", cfg.Checkpoint.Backend)
	assert.Equal(t, "state.db", cfg.Checkpoint.Path)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PATTERNS_TEMPERATURE=0.3\n"), 0o644))
	// godotenv does not override variables that are already set, even empty ones.
	require.NoError(t, os.Unsetenv("PATTERNS_TEMPERATURE"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, cfg.Temperature, 1e-9)
	os.Unsetenv("PATTERNS_TEMPERATURE")
}

func TestLoad_BadValues(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	t.Setenv("PATTERNS_TEMPERATURE", "warm")
	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("PATTERNS_TEMPERATURE", "")
	t.Setenv("PATTERNS_TIMEOUT", "soon")
	_, err = Load("")
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	assert.True(t, errors.Is(err, ErrMissingAPIKey))

	cfg.Provider = ProviderGoogleAI
	err = cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")

	cfg.APIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Provider = "mystery"
	assert.Error(t, cfg.Validate())

	cfg.Provider = ProviderOpenAI
	cfg.Temperature = 3
	assert.Error(t, cfg.Validate())
}

func TestWithTemperature(t *testing.T) {
	cfg := Default()
	hot := cfg.WithTemperature(0.7)
	assert.InDelta(t, 0.7, hot.Temperature, 1e-9)
	assert.Zero(t, cfg.Temperature)
}

func TestLoad_TemperatureSet(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.TemperatureSet)

	path := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: 0\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.TemperatureSet)
	assert.Zero(t, cfg.Temperature)

	path = filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-test\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.TemperatureSet)

	t.Setenv("PATTERNS_TEMPERATURE", "0.3")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.TemperatureSet)
	assert.InDelta(t, 0.3, cfg.Temperature, 1e-9)
}
