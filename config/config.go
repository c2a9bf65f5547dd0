package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Escalation EscalationConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Host string
}

// EscalationConfig holds escalation worker configuration
type EscalationConfig struct {
	WorkerIntervalSeconds int // ESCALATION_WORKER_INTERVAL_SECONDS: evaluation cadence (0 = default 1h)
	TestOverrideMinutes   int // TEST_ESCALATION_OVERRIDE_MINUTES: shrink the cadence for test runs (0 = disabled)
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "127.0.0.1"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "civicpulse"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   getEnv("DB_NAME", "civicpulse"),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", getEnv("SERVER_PORT", "8080")),
		},
		Escalation: EscalationConfig{
			WorkerIntervalSeconds: getEnvInt("ESCALATION_WORKER_INTERVAL_SECONDS", 0),
			TestOverrideMinutes:   getEnvInt("TEST_ESCALATION_OVERRIDE_MINUTES", 0),
		},
	}
}

// WorkerIntervalSeconds resolves the effective escalation worker
// cadence: explicit config wins, a test override forces a tight loop,
// production defaults to hourly.
func (c *Config) WorkerIntervalSeconds() int {
	const defaultProductionIntervalSec = 3600
	const testOverrideIntervalSec = 30

	if c.Escalation.TestOverrideMinutes > 0 {
		if c.Escalation.WorkerIntervalSeconds > 0 && c.Escalation.WorkerIntervalSeconds < testOverrideIntervalSec {
			return c.Escalation.WorkerIntervalSeconds
		}
		return testOverrideIntervalSec
	}
	if c.Escalation.WorkerIntervalSeconds > 0 {
		return c.Escalation.WorkerIntervalSeconds
	}
	return defaultProductionIntervalSec
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
