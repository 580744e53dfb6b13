package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/quocvuong92/sgpt/internal/constants"
)

// ConfigFileName is the file name looked up in every candidate
// directory.
const ConfigFileName = "config.yaml"

// FileConfig is the YAML shape of the config file. Pointer sections
// distinguish an absent block from an empty one.
type FileConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	APIHost string `yaml:"api_host,omitempty"`
	Model   string `yaml:"model,omitempty"`

	Cache *CacheConfig `yaml:"cache,omitempty"`
	Chat  *ChatConfig  `yaml:"chat,omitempty"`

	// Request timeout in seconds
	RequestTimeout int `yaml:"request_timeout,omitempty"`
}

// CacheConfig holds the completion cache settings.
type CacheConfig struct {
	Path   string `yaml:"path,omitempty"`
	Length int    `yaml:"length,omitempty"`
}

// ChatConfig holds the chat transcript storage settings.
type ChatConfig struct {
	Path string `yaml:"path,omitempty"`
}

// GetConfigPaths returns the candidate config file paths, highest
// priority first: the working directory, then the user config
// directory, then ~/.config.
func GetConfigPaths() []string {
	paths := []string{
		filepath.Join(".", "."+constants.AppName, ConfigFileName),
	}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, constants.AppName, ConfigFileName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", constants.AppName, ConfigFileName))
	}
	return paths
}

// LoadConfigFile reads the first config file that exists among the
// candidate paths. When none exists it returns an empty FileConfig so
// callers need no special case.
func LoadConfigFile() (*FileConfig, error) {
	for _, path := range GetConfigPaths() {
		cfg, err := loadConfigFromPath(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return &FileConfig{}, nil
}

// loadConfigFromPath loads config from a specific path
func loadConfigFromPath(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyFileConfig folds file values into the Config. File values
// overwrite the built-in defaults; environment variables and flags are
// applied afterwards and take precedence.
func (c *Config) ApplyFileConfig(fc *FileConfig) {
	if fc == nil {
		return
	}

	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.APIHost != "" {
		c.APIHost = fc.APIHost
	}
	if fc.Model != "" {
		c.Model = fc.Model
	}

	if cache := fc.Cache; cache != nil {
		if cache.Path != "" {
			c.CachePath = cache.Path
		}
		if cache.Length > 0 {
			c.CacheLength = cache.Length
		}
	}

	if chat := fc.Chat; chat != nil && chat.Path != "" {
		c.ChatCachePath = chat.Path
	}

	if fc.RequestTimeout > 0 {
		c.RequestTimeoutSecs = fc.RequestTimeout
	}
}

// starterConfig is the commented template written by --init-config.
const starterConfig = `# sgpt configuration
# Location: ~/.config/sgpt/config.yaml
# Environment variables and command-line flags override these values.

# OpenAI API key (or set OPENAI_API_KEY)
# api_key: sk-...

# API host for OpenAI-compatible servers
# api_host: https://api.openai.com

# Default model
# model: gpt-4o-mini

# Completion cache
# cache:
#   path: ~/.cache/sgpt/cache
#   length: 100  # max cached completions

# Chat transcript storage
# chat:
#   path: ~/.cache/sgpt/chats

# Request timeout in seconds
# request_timeout: 60
`

// CreateDefaultConfigFile writes the starter config into the user
// config directory and returns its path. An existing file is left
// untouched and reported as an error.
func CreateDefaultConfigFile() (string, error) {
	base, err := userConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, constants.AppName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if os.IsExist(err) {
			return path, fmt.Errorf("config file already exists at %s", path)
		}
		return "", fmt.Errorf("failed to create config file: %w", err)
	}

	if _, err := f.WriteString(starterConfig); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// userConfigDir resolves the per-user config root, falling back to
// ~/.config when the platform dir is unavailable.
func userConfigDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine config directory: %w", err)
	}
	return filepath.Join(homeDir, ".config"), nil
}
