// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the hypergraph lab.
type Config struct {
	// Polymarket APIs
	GammaBaseURL string
	GoldskyURL   string
	CLOBWSURL    string

	// Storage
	PostgresDSN   string
	ClickhouseDSN string

	// Filesystem layout
	RawDataDir string
	OutputDir  string

	// HTTP server
	ServerAddr string

	// Metrics
	MetricsAddr string
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Polymarket
		GammaBaseURL: getEnv("GAMMA_BASE_URL", "https://gamma-api.polymarket.com"),
		GoldskyURL:   getEnv("GOLDSKY_URL", ""),
		CLOBWSURL:    getEnv("CLOB_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),

		// Storage. Empty DSNs disable the corresponding backend; the
		// builders then run purely from files and in-memory stores.
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),

		// Filesystem
		RawDataDir: getEnv("RAW_DATA_DIR", "data/raw"),
		OutputDir:  getEnv("OUTPUT_DIR", "data/hypergraphs"),

		// Server
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		// Metrics
		MetricsAddr: getEnv("METRICS_ADDR", ":9091"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.RawDataDir == "" {
		return fmt.Errorf("RAW_DATA_DIR is required")
	}

	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}

	if err := validateAddr("SERVER_ADDR", c.ServerAddr); err != nil {
		return err
	}
	if err := validateAddr("METRICS_ADDR", c.MetricsAddr); err != nil {
		return err
	}

	return nil
}

// validateAddr checks a host:port listen address.
func validateAddr(name, addr string) error {
	if addr == "" {
		return fmt.Errorf("%s is required", name)
	}
	idx := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%s must be host:port, got %q", name, addr)
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%s port must be between 1 and 65535, got %q", name, addr)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
