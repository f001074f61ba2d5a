// Package common provides shared utilities for Folio
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Folio
type Config struct {
	Environment     string        `toml:"environment"`
	DisplayCurrency string        `toml:"display_currency"` // Currency label for portfolio totals (default "INR")
	Server          ServerConfig  `toml:"server"`
	Storage         StorageConfig `toml:"storage"`
	Clients         ClientsConfig `toml:"clients"`
	Refresh         RefreshConfig `toml:"refresh"`
	Logging         LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the BadgerHold data directory.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo     YahooConfig     `toml:"yahoo"`
	CoinGecko CoinGeckoConfig `toml:"coingecko"`
	AMFI      AMFIConfig      `toml:"amfi"`
	GoldAPI   GoldAPIConfig   `toml:"goldapi"`
}

// YahooConfig holds the equity quote client configuration
type YahooConfig struct {
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCacheTTL parses and returns the cache freshness window
func (c *YahooConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 15*time.Minute)
}

// CoinGeckoConfig holds the crypto price client configuration
type CoinGeckoConfig struct {
	BaseURL    string `toml:"base_url"`
	VsCurrency string `toml:"vs_currency"`
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
	CacheTTL   string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *CoinGeckoConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCacheTTL parses and returns the cache freshness window
func (c *CoinGeckoConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, time.Minute)
}

// AMFIConfig holds the mutual fund NAV catalog client configuration
type AMFIConfig struct {
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *AMFIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 15*time.Second)
}

// GetCacheTTL parses and returns the catalog freshness window
func (c *AMFIConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 6*time.Hour)
}

// GoldAPIConfig holds the commodity price client configuration
type GoldAPIConfig struct {
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Timeout  string `toml:"timeout"`
	CacheTTL string `toml:"cache_ttl"`
}

// GetTimeout parses and returns the timeout duration
func (c *GoldAPIConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// GetCacheTTL parses and returns the cache freshness window
func (c *GoldAPIConfig) GetCacheTTL() time.Duration {
	return parseDuration(c.CacheTTL, 15*time.Minute)
}

// RefreshConfig holds refresh job configuration
type RefreshConfig struct {
	Interval   string `toml:"interval"`    // scheduler interval, e.g. "6h"
	RunTimeout string `toml:"run_timeout"` // per-run timeout, e.g. "5m"
	Workers    int    `toml:"workers"`     // concurrent price lookups per run
	Secret     string `toml:"secret"`      // shared secret for on-demand refresh
}

// GetInterval parses and returns the scheduler interval
func (c *RefreshConfig) GetInterval() time.Duration {
	return parseDuration(c.Interval, 6*time.Hour)
}

// GetRunTimeout parses and returns the per-run timeout
func (c *RefreshConfig) GetRunTimeout() time.Duration {
	return parseDuration(c.RunTimeout, 5*time.Minute)
}

// GetWorkers returns the worker pool size, defaulting to 4
func (c *RefreshConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:     "development",
		DisplayCurrency: "INR",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/folio",
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:  "https://query1.finance.yahoo.com",
				Timeout:  "10s",
				CacheTTL: "15m",
			},
			CoinGecko: CoinGeckoConfig{
				BaseURL:    "https://api.coingecko.com/api/v3",
				VsCurrency: "inr",
				RateLimit:  5,
				Timeout:    "10s",
				CacheTTL:   "1m",
			},
			AMFI: AMFIConfig{
				BaseURL:  "https://www.amfiindia.com",
				Timeout:  "15s",
				CacheTTL: "6h",
			},
			GoldAPI: GoldAPIConfig{
				BaseURL:  "https://www.goldapi.io/api",
				Timeout:  "10s",
				CacheTTL: "15m",
			},
		},
		Refresh: RefreshConfig{
			Interval:   "6h",
			RunTimeout: "5m",
			Workers:    4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateDisplayCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FOLIO_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("FOLIO_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "folio")
	}

	if dc := os.Getenv("FOLIO_DISPLAY_CURRENCY"); dc != "" {
		config.DisplayCurrency = strings.ToUpper(dc)
	}

	if v := os.Getenv("FOLIO_REFRESH_SECRET"); v != "" {
		config.Refresh.Secret = v
	}
	if v := os.Getenv("FOLIO_REFRESH_INTERVAL"); v != "" {
		config.Refresh.Interval = v
	}

	if v := os.Getenv("GOLD_API_KEY"); v != "" {
		config.Clients.GoldAPI.APIKey = v
	}
	if v := os.Getenv("FOLIO_GOLD_API_KEY"); v != "" {
		config.Clients.GoldAPI.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateDisplayCurrency upper-cases the display currency, defaulting to "INR".
func validateDisplayCurrency(config *Config) {
	dc := strings.ToUpper(strings.TrimSpace(config.DisplayCurrency))
	if dc == "" {
		dc = "INR"
	}
	config.DisplayCurrency = dc
}
