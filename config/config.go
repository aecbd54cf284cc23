package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the complete papertrader configuration.
type Config struct {
	Server   ServerConfig  `json:"server" yaml:"server"`
	Store    StoreConfig   `json:"store" yaml:"store"`
	Quote    QuoteConfig   `json:"quote" yaml:"quote"`
	Auth     AuthConfig    `json:"auth" yaml:"auth"`
	Account  AccountConfig `json:"account" yaml:"account"`
	LogLevel string        `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// ServerConfig contains HTTP listener parameters.
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig contains ledger storage parameters.
type StoreConfig struct {
	Path string `json:"path" yaml:"path"`
}

// QuoteConfig contains quote provider parameters. APIKey is normally
// supplied through the QUOTE_API_KEY environment variable rather than the
// config file.
type QuoteConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout  string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	CacheTTL string `json:"cache_ttl,omitempty" yaml:"cache_ttl,omitempty"`
}

// ParseTimeout converts the timeout string to time.Duration.
func (q QuoteConfig) ParseTimeout() (time.Duration, error) {
	if q.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(q.Timeout)
}

// ParseCacheTTL converts the cache TTL string to time.Duration.
func (q QuoteConfig) ParseCacheTTL() (time.Duration, error) {
	if q.CacheTTL == "" {
		return 0, nil
	}
	return time.ParseDuration(q.CacheTTL)
}

// AuthConfig contains session token parameters. JWTSecret is normally
// supplied through the JWT_SECRET environment variable.
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret,omitempty" yaml:"jwt_secret,omitempty"`
	TokenExpiry string `json:"token_expiry,omitempty" yaml:"token_expiry,omitempty"`
}

// ParseTokenExpiry converts the expiry string to time.Duration,
// defaulting to 24h.
func (a AuthConfig) ParseTokenExpiry() (time.Duration, error) {
	if a.TokenExpiry == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(a.TokenExpiry)
}

// AccountConfig contains new-account parameters.
type AccountConfig struct {
	OpeningCash string `json:"opening_cash" yaml:"opening_cash"`
}

// ParseOpeningCash converts the opening cash string to an exact decimal.
func (a AccountConfig) ParseOpeningCash() (decimal.Decimal, error) {
	return decimal.NewFromString(a.OpeningCash)
}

// Load reads configuration from path, overlays a .env file if one exists
// in the working directory, and applies environment overrides for
// secrets. An empty path starts from Default().
func Load(path string) (*Config, error) {
	// Missing .env is fine; real env vars still apply below.
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("QUOTE_API_KEY"); v != "" {
		cfg.Quote.APIKey = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (YAML or JSON based on
// content). No env overlay and no validation; Load does both.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON.
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if _, err := c.Quote.ParseTimeout(); err != nil {
		return fmt.Errorf("quote.timeout: %w", err)
	}
	if _, err := c.Quote.ParseCacheTTL(); err != nil {
		return fmt.Errorf("quote.cache_ttl: %w", err)
	}
	if _, err := c.Auth.ParseTokenExpiry(); err != nil {
		return fmt.Errorf("auth.token_expiry: %w", err)
	}
	cash, err := c.Account.ParseOpeningCash()
	if err != nil {
		return fmt.Errorf("account.opening_cash: %w", err)
	}
	if cash.IsNegative() {
		return fmt.Errorf("account.opening_cash must not be negative")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Store: StoreConfig{
			Path: "./papertrader.sqlite",
		},
		Quote: QuoteConfig{
			BaseURL:  "https://cloud.iexapis.com",
			Timeout:  "10s",
			CacheTTL: "15s",
		},
		Auth: AuthConfig{
			TokenExpiry: "24h",
		},
		Account: AccountConfig{
			OpeningCash: "10000",
		},
		LogLevel: "info",
	}
}
