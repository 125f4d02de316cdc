package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	Location struct {
		Name     string
		PostCode string
		Stations []string
	}

	Client struct {
		Timeout        time.Duration
		BreakerTimeout time.Duration
	}

	Scheduler struct {
		RefreshInterval time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "10s"))

	// Location configuration
	cfg.Location.Name = getEnv("LOCATION_NAME", "Home")
	cfg.Location.PostCode = os.Getenv("POST_CODE")
	if cfg.Location.PostCode == "" {
		return nil, fmt.Errorf("POST_CODE is required")
	}
	stations := os.Getenv("STATIONS")
	if stations == "" {
		return nil, fmt.Errorf("STATIONS is required (comma-separated station codes)")
	}
	cfg.Location.Stations = strings.Split(stations, ",")
	for i := range cfg.Location.Stations {
		cfg.Location.Stations[i] = strings.TrimSpace(cfg.Location.Stations[i])
	}

	// Client configuration
	cfg.Client.Timeout = parseDuration(getEnv("HTTP_TIMEOUT", "10s"))
	cfg.Client.BreakerTimeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	// Scheduler configuration
	cfg.Scheduler.RefreshInterval = parseDuration(getEnv("REFRESH_INTERVAL", "10m"))

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}
