package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/lorekeeper/internal/flagx"
	"github.com/dmitrijs2005/lorekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify lifetimes either as strings like "24h"
// or as integer nanoseconds.
type JsonConfig struct {
	ListenAddr         string         `json:"listen_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	JWTSecret          string         `json:"jwt_secret"`
	TokenValidity      timex.Duration `json:"token_validity"`
	RememberMeValidity timex.Duration `json:"remember_me_validity"`
	ResetTokenValidity timex.Duration `json:"reset_token_validity"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPFrom     string `json:"smtp_from"`
	SMTPPassword string `json:"smtp_password"`
	PublicURL    string `json:"public_url"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. No flag, no file loaded. Only fields present in the file
// override their current values. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ListenAddr != "" {
		cfg.ListenAddr = jc.ListenAddr
	}
	if jc.DatabaseDSN != "" {
		cfg.DatabaseDSN = jc.DatabaseDSN
	}
	if jc.JWTSecret != "" {
		cfg.JWTSecret = jc.JWTSecret
	}
	if jc.TokenValidity.Duration != 0 {
		cfg.TokenValidity = time.Duration(jc.TokenValidity.Duration)
	}
	if jc.RememberMeValidity.Duration != 0 {
		cfg.RememberMeValidity = time.Duration(jc.RememberMeValidity.Duration)
	}
	if jc.ResetTokenValidity.Duration != 0 {
		cfg.ResetTokenValidity = time.Duration(jc.ResetTokenValidity.Duration)
	}
	if jc.SMTPHost != "" {
		cfg.SMTPHost = jc.SMTPHost
	}
	if jc.SMTPPort != 0 {
		cfg.SMTPPort = jc.SMTPPort
	}
	if jc.SMTPFrom != "" {
		cfg.SMTPFrom = jc.SMTPFrom
	}
	if jc.SMTPPassword != "" {
		cfg.SMTPPassword = jc.SMTPPassword
	}
	if jc.PublicURL != "" {
		cfg.PublicURL = jc.PublicURL
	}
}
