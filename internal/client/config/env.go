package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig is a DTO for environment parsing. Unset variables leave the
// corresponding Config fields at their current values.
type envConfig struct {
	ServerURL           string        `env:"SERVER_URL"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	DatabasePath        string        `env:"DATABASE_PATH"`
}

// parseEnv overlays cfg with LOREKEEPER_-prefixed environment variables.
// A .env file in the working directory is honored if present.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: "LOREKEEPER_"}); err != nil {
		panic(err)
	}

	if ec.ServerURL != "" {
		cfg.ServerURL = ec.ServerURL
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.OnlineCheckInterval != 0 {
		cfg.OnlineCheckInterval = ec.OnlineCheckInterval
	}
	if ec.DatabasePath != "" {
		cfg.DatabasePath = ec.DatabasePath
	}
}
