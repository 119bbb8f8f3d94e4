// Package config handles loading and managing codecraft configuration.
//
// Settings live in a TOML file following the XDG Base Directory layout.
// The API key is deliberately kept out of that file where possible: it is
// read from the process environment (optionally populated from a .env
// file) every time it is needed.
//
// Example TOML configuration:
//
//	model = "gemini-2.5-flash"
//	request_timeout_seconds = 60
//	default_framework = "html-tailwind"
//
//	[rate_limit]
//	limit = 10
//	window_ms = 60000
//
// Example programmatic usage:
//
//	cfg := config.NewConfig("gemini-2.5-flash", 30, config.RateLimitConfig{Limit: 5, WindowMs: 60000})
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/xostack/codecraft/validate"
)

const (
	appName         = "codecraft"
	configFileName  = "config.toml"
	DefaultDirPerm  = 0750 // rwxr-x---
	DefaultFilePerm = 0600 // rw------- (may contain an API key)

	// CredentialEnv is the primary environment variable holding the API key.
	CredentialEnv = "GOOGLE_API_KEY"
	// legacyCredentialEnv is honored for .env files written for the web front end.
	legacyCredentialEnv = "VITE_GOOGLE_API_KEY"
)

// Config holds the application's configuration.
type Config struct {
	// Model is the Gemini model identifier. Empty selects the client default.
	Model string `toml:"model"`

	// RequestTimeoutSeconds bounds a single generation call.
	// If <= 0, a default timeout of 60 seconds will be used.
	RequestTimeoutSeconds int `toml:"request_timeout_seconds"`

	// DefaultFramework is used when the caller does not pick one.
	DefaultFramework string `toml:"default_framework"`

	// APIKey is a fallback for when no credential is set in the environment.
	APIKey string `toml:"api_key,omitempty"`

	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig bounds how many generations are admitted per window.
type RateLimitConfig struct {
	Limit    int   `toml:"limit"`
	WindowMs int64 `toml:"window_ms"`
}

// Window returns the window as a duration.
func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowMs) * time.Millisecond
}

func defaultConfig() Config {
	return Config{
		Model:                 "gemini-2.5-flash",
		RequestTimeoutSeconds: 60,
		DefaultFramework:      string(validate.DefaultFramework),
		RateLimit: RateLimitConfig{
			Limit:    10,
			WindowMs: 60000,
		},
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig()
}

// NewConfig creates a configuration programmatically, without file I/O.
func NewConfig(model string, timeoutSeconds int, rateLimit RateLimitConfig) Config {
	cfg := defaultConfig()
	cfg.Model = model
	cfg.RequestTimeoutSeconds = timeoutSeconds
	cfg.RateLimit = rateLimit
	return cfg
}

// GetConfigFilePath returns $XDG_CONFIG_HOME/codecraft/config.toml, or
// $HOME/.config/codecraft/config.toml when XDG_CONFIG_HOME is unset.
// The returned path may not exist.
func GetConfigFilePath() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configHome, appName, configFileName), nil
}

// Load reads the default config file if it exists and falls back to the
// built-in defaults when it does not.
func Load() (Config, error) {
	cfgPath, err := GetConfigFilePath()
	if err != nil {
		return Config{}, fmt.Errorf("failed to determine config path: %w", err)
	}

	if _, err := os.Stat(cfgPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, fmt.Errorf("failed to access config file %s: %w", cfgPath, err)
	}
	return LoadFromFile(cfgPath)
}

// LoadFromFile loads configuration from filePath, merged over defaults.
// A missing file is an error.
func LoadFromFile(filePath string) (Config, error) {
	cfg := defaultConfig()

	_, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("configuration file not found at %s", filePath)
		}
		return Config{}, fmt.Errorf("failed to access config file %s: %w", filePath, err)
	}

	meta, err := toml.DecodeFile(filePath, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode TOML config file %s: %w", filePath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("unknown configuration keys in %s: %v", filePath, undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration in %s: %w", filePath, err)
	}
	return cfg, nil
}

// Save writes cfg to filePath, creating parent directories as needed.
func Save(filePath string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(filePath), DefaultDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", filepath.Dir(filePath), err)
	}

	file, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, DefaultFilePerm)
	if err != nil {
		return fmt.Errorf("failed to create config file %s: %w", filePath, err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode configuration to TOML: %w", err)
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must not be negative, got %d", c.RequestTimeoutSeconds)
	}
	if c.RateLimit.Limit < 0 {
		return fmt.Errorf("rate_limit.limit must not be negative, got %d", c.RateLimit.Limit)
	}
	if c.RateLimit.WindowMs < 0 {
		return fmt.Errorf("rate_limit.window_ms must not be negative, got %d", c.RateLimit.WindowMs)
	}
	if _, err := validate.ParseFramework(c.DefaultFramework); err != nil {
		return fmt.Errorf("default_framework: %w", err)
	}
	return nil
}

// RequestTimeout returns the per-call timeout, defaulting to 60 seconds.
func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Framework returns the configured default framework.
func (c Config) Framework() validate.Framework {
	f, err := validate.ParseFramework(c.DefaultFramework)
	if err != nil {
		return validate.DefaultFramework
	}
	return f
}

// LoadEnv populates the process environment from the given .env files
// (".env" when none are given). Variables already set are not overridden
// and missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Credential returns the API key, re-reading the environment on every
// call: GOOGLE_API_KEY, then VITE_GOOGLE_API_KEY, then the file's api_key.
func (c Config) Credential() string {
	for _, key := range []string{CredentialEnv, legacyCredentialEnv} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(c.APIKey)
}
