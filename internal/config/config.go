// Package config builds the application configuration from three layers:
// config file, environment variables, and command-line flags. Later
// layers win. Load applies the file over built-in defaults and lets
// env.Parse overwrite from the environment; cmd then overwrites fields
// whose flags were explicitly set before calling Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"

	"github.com/quocvuong92/sgpt/internal/constants"
)

// Errors
var (
	ErrAPIKeyNotFound = errors.New("OpenAI API key not found. Set OPENAI_API_KEY or add api_key to the config file (sgpt --init-config)")
)

// validate is the shared validator instance used across the package.
var validate = validator.New()

// Config holds the application configuration
type Config struct {
	// OpenAI settings
	APIKey  string `env:"OPENAI_API_KEY" validate:"required"`
	APIHost string `env:"OPENAI_API_HOST" validate:"url"`
	Model   string `env:"DEFAULT_MODEL" validate:"required"`

	// Sampling knobs. Flag-only, mirroring the CLI surface; the config
	// file and environment never set these.
	Temperature    float64 `validate:"gte=0,lte=1"`
	TopProbability float64 `validate:"gte=0.1,lte=1"`

	// Completion cache settings
	CacheLength int    `env:"CACHE_LENGTH" validate:"gt=0"`
	CachePath   string `env:"CACHE_PATH" validate:"required"`

	// Chat storage settings
	ChatCachePath string `env:"CHAT_CACHE_PATH" validate:"required"`

	// RequestTimeoutSecs bounds a single completion exchange, in seconds.
	RequestTimeoutSecs int `env:"REQUEST_TIMEOUT" validate:"gt=0"`

	// Flags with no env or file counterpart
	Stream  bool
	Render  bool
	Verbose bool
}

// Load builds a Config from defaults, the config file, and the
// environment, in that order. Flag overrides are applied afterwards by
// the caller, so the result here is still pre-validation.
func Load() (*Config, error) {
	cfg := defaults()

	if fileConfig, err := LoadConfigFile(); err == nil {
		cfg.ApplyFileConfig(fileConfig)
	}
	// A missing or malformed config file is not fatal - env vars and
	// flags can still provide everything.

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config populated with built-in defaults.
func defaults() *Config {
	return &Config{
		APIHost:            constants.DefaultAPIHost,
		Model:              constants.DefaultModel,
		Temperature:        constants.DefaultTemperature,
		TopProbability:     constants.DefaultTopProbability,
		CacheLength:        constants.DefaultCacheLength,
		CachePath:          filepath.Join(baseCacheDir(), "cache"),
		ChatCachePath:      filepath.Join(baseCacheDir(), "chats"),
		RequestTimeoutSecs: int(constants.DefaultRequestTimeout / time.Second),
	}
}

// baseCacheDir returns the directory under which the completion cache
// and chat transcripts live. Falls back to the system temp directory
// when the user cache directory cannot be determined.
func baseCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return filepath.Join(os.TempDir(), constants.AppName)
}

// Validate checks the fully-assembled configuration. Called after flag
// overrides so that out-of-range flag values are caught too.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrAPIKeyNotFound
	}
	c.APIHost = strings.TrimSuffix(c.APIHost, "/")

	if err := validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			f := invalid[0]
			return fmt.Errorf("invalid configuration: %s fails %q (value %v)", f.Field(), f.Tag(), f.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// CompletionsURL builds the full API URL for chat completions.
func (c *Config) CompletionsURL() string {
	return fmt.Sprintf("%s/v1/chat/completions", strings.TrimSuffix(c.APIHost, "/"))
}
