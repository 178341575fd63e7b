package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string // "development", "production"

	// Database
	DatabaseURL string

	// CORS
	AllowedOrigins []string

	// Cycle sweep
	SweepEnabled  bool
	SweepSchedule string        // Cron expression (e.g., "0 3 * * *" for daily at 03:00)
	SweepTimeout  time.Duration // Timeout for a complete sweep run
}

func Load() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/ledgerd?sslmode=disable"),

		// CORS
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),

		// Cycle sweep
		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 3 * * *"), // Default: daily at 03:00
		SweepTimeout:  getDurationEnv("SWEEP_TIMEOUT", 2*time.Minute),
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
