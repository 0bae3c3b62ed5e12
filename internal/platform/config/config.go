// Package config builds client configuration from the environment, an optional
// .env file, and an optional YAML config file, so main stays lean.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied when neither the server nor the environment specifies a value.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	DefaultResendCooldown  = 30 * time.Second
	DefaultCountryCode     = "91"
	DefaultHTTPTimeout     = 30 * time.Second
)

// Client captures everything the SDK needs to talk to the backend and persist
// client-side state.
type Client struct {
	BaseURL     string        `yaml:"base_url"`
	CountryCode string        `yaml:"country_code"`
	UserAgent   string        `yaml:"user_agent"`
	StateDir    string        `yaml:"state_dir"`
	RedisURL    string        `yaml:"redis_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	ResendCooldown  time.Duration `yaml:"resend_cooldown"`
}

// FromEnv builds a Client config from environment variables. A .env file in
// the working directory is loaded first, best-effort (CI and production supply
// real environment variables instead).
func FromEnv() Client {
	_ = godotenv.Load()

	cfg := defaults()

	if v := os.Getenv("AMPAIRS_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("AMPAIRS_COUNTRY_CODE"); v != "" {
		cfg.CountryCode = v
	}
	if v := os.Getenv("AMPAIRS_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("AMPAIRS_STATE_DIR"); v != "" {
		cfg.StateDir = v
	}
	if v := os.Getenv("AMPAIRS_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("AMPAIRS_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTPTimeout = d
		}
	}
	return cfg
}

// LoadFile overlays values from a YAML config file onto cfg. Zero values in
// the file leave the existing configuration untouched.
func LoadFile(cfg Client, path string) (Client, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var file Client
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}

	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.CountryCode != "" {
		cfg.CountryCode = file.CountryCode
	}
	if file.UserAgent != "" {
		cfg.UserAgent = file.UserAgent
	}
	if file.StateDir != "" {
		cfg.StateDir = file.StateDir
	}
	if file.RedisURL != "" {
		cfg.RedisURL = file.RedisURL
	}
	if file.HTTPTimeout > 0 {
		cfg.HTTPTimeout = file.HTTPTimeout
	}
	if file.AccessTokenTTL > 0 {
		cfg.AccessTokenTTL = file.AccessTokenTTL
	}
	if file.RefreshTokenTTL > 0 {
		cfg.RefreshTokenTTL = file.RefreshTokenTTL
	}
	if file.ResendCooldown > 0 {
		cfg.ResendCooldown = file.ResendCooldown
	}
	return cfg, nil
}

func defaults() Client {
	return Client{
		BaseURL:         "http://localhost:8080",
		CountryCode:     DefaultCountryCode,
		UserAgent:       "ampairs-cli/1.0 (" + osName() + ")",
		StateDir:        defaultStateDir(),
		HTTPTimeout:     DefaultHTTPTimeout,
		AccessTokenTTL:  DefaultAccessTokenTTL,
		RefreshTokenTTL: DefaultRefreshTokenTTL,
		ResendCooldown:  DefaultResendCooldown,
	}
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "ampairs")
	}
	return ".ampairs"
}
