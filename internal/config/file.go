package config

import (
	"github.com/BurntSushi/toml"
)

// fileConfig is the subset of settings a TOML file may override. Profile
// identity, the store and the secret stay environment-driven.
type fileConfig struct {
	LogLevel  string          `toml:"log_level"`
	Server    ServerConfig    `toml:"server"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
	CORS      CORSConfig      `toml:"cors"`
}

// loadFile decodes path on top of cfg. Keys absent from the file keep the
// values already in cfg.
func loadFile(cfg *Config, path string) error {
	overlay := fileConfig{
		LogLevel:  cfg.LogLevel,
		Server:    cfg.Server,
		RateLimit: cfg.RateLimit,
		CORS:      cfg.CORS,
	}
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return err
	}

	cfg.LogLevel = overlay.LogLevel
	cfg.Server = overlay.Server
	cfg.RateLimit = overlay.RateLimit
	cfg.CORS = overlay.CORS
	return nil
}
