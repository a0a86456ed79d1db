package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// loadFromEnv overrides config from environment variables.
// The testing profile keeps its ephemeral store regardless of DATABASE_URL.
func loadFromEnv(cfg *Config) {
	if cfg.Profile != Testing {
		cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	}
	cfg.SecretKey = getEnv("SECRET_KEY", cfg.SecretKey)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.Server.Port = getEnvInt("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = getEnvDuration("READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvDuration("WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvDuration("IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.RateLimit.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)

	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		cfg.CORS.AllowedOrigins = splitList(v)
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := getEnv(key, ""); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvDuration accepts Go duration strings such as 5s or 1m.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := getEnv(key, ""); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
