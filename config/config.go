// Package config loads the settings shared by every workflow: which model
// provider to call, with which parameters, and where checkpoints live.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when the selected provider has no credential.
var ErrMissingAPIKey = errors.New("api key not set")

const (
	ProviderOpenAI       = "openai"
	ProviderOpenAINative = "openai-native"
	ProviderGoogleAI     = "googleai"
)

// Config holds everything a workflow needs to build its model client and runtime.
type Config struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	Temperature    float64       `yaml:"temperature"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`

	LogLevel string `yaml:"log_level"`
	Tracing  string `yaml:"tracing"`

	Checkpoint CheckpointConfig `yaml:"checkpoint"`

	// FetchURL is the page requested by the fetch_page tool when none is given.
	FetchURL string `yaml:"fetch_url"`

	// TemperatureSet reports whether the file or the environment chose
	// Temperature, as opposed to the default.
	TemperatureSet bool `yaml:"-"`
}

// CheckpointConfig selects the checkpoint backend used by threaded workflows.
type CheckpointConfig struct {
	Backend   string `yaml:"backend"`
	DSN       string `yaml:"dsn"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redis_addr"`
	TableName string `yaml:"table_name"`
}

// Default returns the configuration used when no file or environment overrides it.
func Default() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		Model:          "gpt-4o-mini",
		Temperature:    0,
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        60 * time.Second,
		LogLevel:       "info",
		Tracing:        "none",
		Checkpoint: CheckpointConfig{
			Backend: "memory",
			Path:    "checkpoints",
		},
		FetchURL: "https://example.com",
	}
}

// Load builds a Config from defaults, an optional YAML file, an optional .env
// file and the process environment, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		var explicit struct {
			Temperature *float64 `yaml:"temperature"`
		}
		if err := yaml.Unmarshal(data, &explicit); err == nil && explicit.Temperature != nil {
			cfg.TemperatureSet = true
		}
	}

	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Provider, "PATTERNS_PROVIDER")
	setString(&c.Model, "OPENAI_MODEL")
	setString(&c.BaseURL, "OPENAI_API_BASE")
	setString(&c.LogLevel, "PATTERNS_LOG_LEVEL")
	setString(&c.Tracing, "PATTERNS_TRACING")
	setString(&c.FetchURL, "PATTERNS_FETCH_URL")
	setString(&c.Checkpoint.Backend, "PATTERNS_CHECKPOINT")
	setString(&c.Checkpoint.DSN, "PATTERNS_CHECKPOINT_DSN")
	setString(&c.Checkpoint.RedisAddr, "REDIS_ADDR")

	if c.APIKey == "" {
		switch c.Provider {
		case ProviderGoogleAI:
			c.APIKey = os.Getenv("GOOGLE_API_KEY")
		default:
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}

	if v := os.Getenv("PATTERNS_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("PATTERNS_TEMPERATURE: %w", err)
		}
		c.Temperature = t
		c.TemperatureSet = true
	}
	if v := os.Getenv("PATTERNS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PATTERNS_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

func setString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

// Validate checks that the selected provider can be reached.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderOpenAINative, ProviderGoogleAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.APIKey == "" {
		if c.Provider == ProviderGoogleAI {
			return fmt.Errorf("%w: set GOOGLE_API_KEY in the environment or .env file", ErrMissingAPIKey)
		}
		return fmt.Errorf("%w: set OPENAI_API_KEY in the environment or .env file", ErrMissingAPIKey)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	return nil
}

// WithTemperature returns a copy of c using temperature t. Workflows that need
// a creative model (planning, memory chat) use it on top of the shared config.
func (c *Config) WithTemperature(t float64) *Config {
	cp := *c
	cp.Temperature = t
	return &cp
}
