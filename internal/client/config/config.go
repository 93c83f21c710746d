// Package config handles configuration for the client component, layering
// defaults, an optional JSON file, environment variables, and command-line
// flags. Later sources take precedence over earlier ones.
package config

import "time"

// Config holds runtime settings for the Lorekeeper CLI.
//
// Fields:
//   - ServerURL: base URL of the backend HTTP API.
//   - RequestTimeout: upper bound on any single backend request. This is
//     the only bound on a hung request; there is no retry.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - DatabasePath: location of the local SQLite database.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
	DatabasePath        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "lorekeeper.db"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present), environment variables, and command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
