// Package config provides environment-based configuration for go-classwatch.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmoon-dev/go-classwatch/internal/log"
)

// Config holds process-level settings shared by the monitor and student commands.
type Config struct {
	HTTPPort string
	LogLevel string

	// MonitorURL is the websocket endpoint the student agent pushes status to.
	MonitorURL string

	// StatusInterval is how often the student agent pushes a status message.
	StatusInterval time.Duration

	// Store selects the daily-record backend: "memory", "sqlite" or "postgres".
	Store      string
	SQLitePath string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, using system environment")
	}

	return &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8090"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MonitorURL:     getEnv("MONITOR_URL", "ws://localhost:8090/ws/student"),
		StatusInterval: getEnvDuration("STATUS_INTERVAL", 1500*time.Millisecond),
		Store:          getEnv("STORE", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "classwatch.db"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "classwatch"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
	}
}

// DSN returns the postgres connection string.
func (c *Config) DSN() string {
	return "host=" + c.DBHost + " port=" + c.DBPort + " user=" + c.DBUser +
		" password=" + c.DBPassword + " dbname=" + c.DBName + " sslmode=" + c.DBSSLMode
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
