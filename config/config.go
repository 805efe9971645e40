package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

const defaultMaxBodyBytes = 40 << 20 // 40MB

// Config holds all configuration for the civic reports service
type Config struct {
	// Database configuration
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	EnsureSchema bool

	// Server configuration
	Port         string
	MaxBodyBytes int64

	// RabbitMQ configuration, publishing is disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	return &Config{
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "3306"),
		DBUser:       getEnv("DB_USER", "root"),
		DBPassword:   getEnv("DB_PASS", getEnv("DB_PASSWORD", "1234")),
		DBName:       getEnv("DB_NAME", "civic_db"),
		EnsureSchema: getBoolEnv("DB_ENSURE_SCHEMA", true),

		Port:         getEnv("PORT", "5000"),
		MaxBodyBytes: getInt64Env("MAX_BODY_BYTES", defaultMaxBodyBytes),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "civic-reports"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "report"),

		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getInt64Env gets a positive integer environment variable or returns a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
		log.Warnf("Ignoring invalid %s=%q, using %d", key, value, defaultValue)
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warnf("Ignoring invalid %s=%q, using %t", key, value, defaultValue)
	}
	return defaultValue
}
