package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// envConfig is a DTO for environment parsing. Unset variables leave the
// corresponding Config fields at their current values.
type envConfig struct {
	ListenAddr         string        `env:"LISTEN_ADDR"`
	DatabaseDSN        string        `env:"DATABASE_DSN"`
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenValidity      time.Duration `env:"TOKEN_VALIDITY"`
	RememberMeValidity time.Duration `env:"REMEMBER_ME_VALIDITY"`
	ResetTokenValidity time.Duration `env:"RESET_TOKEN_VALIDITY"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"`
	SMTPFrom     string `env:"SMTP_FROM"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	PublicURL    string `env:"PUBLIC_URL"`
}

// parseEnv overlays cfg with LOREKEEPER_-prefixed environment variables.
// A .env file in the working directory is honored if present.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: "LOREKEEPER_"}); err != nil {
		panic(err)
	}

	if ec.ListenAddr != "" {
		cfg.ListenAddr = ec.ListenAddr
	}
	if ec.DatabaseDSN != "" {
		cfg.DatabaseDSN = ec.DatabaseDSN
	}
	if ec.JWTSecret != "" {
		cfg.JWTSecret = ec.JWTSecret
	}
	if ec.TokenValidity != 0 {
		cfg.TokenValidity = ec.TokenValidity
	}
	if ec.RememberMeValidity != 0 {
		cfg.RememberMeValidity = ec.RememberMeValidity
	}
	if ec.ResetTokenValidity != 0 {
		cfg.ResetTokenValidity = ec.ResetTokenValidity
	}
	if ec.SMTPHost != "" {
		cfg.SMTPHost = ec.SMTPHost
	}
	if ec.SMTPPort != 0 {
		cfg.SMTPPort = ec.SMTPPort
	}
	if ec.SMTPFrom != "" {
		cfg.SMTPFrom = ec.SMTPFrom
	}
	if ec.SMTPPassword != "" {
		cfg.SMTPPassword = ec.SMTPPassword
	}
	if ec.PublicURL != "" {
		cfg.PublicURL = ec.PublicURL
	}
}
