package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Sweep configuration
	SweepInterval time.Duration

	// Auction defaults
	DefaultAntiSnipeWindow time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", "30s"),

		DefaultAntiSnipeWindow: getEnvAsDuration("ANTI_SNIPE_WINDOW", "30s"),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsDuration(key, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	parsed, _ := time.ParseDuration(defaultValue)
	return parsed
}
