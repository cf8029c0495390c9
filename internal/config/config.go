// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gocausal/domain/core"
)

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Sampler  SamplerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds result-persistence settings. URL may be empty;
// persistence is optional.
type DatabaseConfig struct {
	URL string
}

// SamplerConfig holds the Bayesian backend defaults.
type SamplerConfig struct {
	Draws int
	Seed  int64
}

// Load reads configuration from a .env file (when present) and the
// environment, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Sampler: SamplerConfig{
			Draws: getEnvIntOrDefault("SAMPLER_DRAWS", 2000),
			Seed:  getEnvInt64OrDefault("SAMPLER_SEED", 42),
		},
	}

	if cfg.Sampler.Draws <= 0 {
		return nil, core.NewConfigurationError("SAMPLER_DRAWS must be positive")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
