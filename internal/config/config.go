// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Mail     MailConfig
	Cleanup  CleanupConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `validate:"required"`
	Port string `validate:"required"`
	Env  string `validate:"oneof=development production test"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL string `validate:"required"`
}

// StorageConfig holds S3 blob storage configuration
type StorageConfig struct {
	Region          string `validate:"required"`
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string `validate:"required"`
	// Endpoint overrides the S3 endpoint for MinIO-compatible stores.
	Endpoint string
}

// MailConfig holds inbound mail processing configuration
type MailConfig struct {
	// Domain is the accepted email domain; recipients outside it are rejected.
	Domain string `validate:"required"`
	// Retention is how long an inbox and its messages live after the last delivery.
	Retention time.Duration `validate:"gt=0"`
}

// CleanupConfig holds the expiry sweep configuration
type CleanupConfig struct {
	// Interval between scheduled cleanup runs. Zero disables the in-process scheduler.
	Interval time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("HOST", "0.0.0.0"),
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Storage: StorageConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("S3_BUCKET_NAME"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
		},
		Mail: MailConfig{
			Domain:    os.Getenv("EMAIL_DOMAIN"),
			Retention: time.Duration(getIntEnv("RETENTION_HOURS", 24)) * time.Hour,
		},
		Cleanup: CleanupConfig{
			Interval: getDurationEnv("CLEANUP_INTERVAL", 0),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode
func (s *ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// Addr returns the listen address for the HTTP server
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer from an environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getDurationEnv returns a duration from an environment variable or default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
