// Package config loads process configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all tunables for the zone-occupancy monitor.
type Config struct {
	Port int

	// External collaborators (§6).
	SnapshotBaseURL      string
	ExternalDetectorURL  string
	ExternalDetectorHTTPTimeout time.Duration

	// Row store.
	DBPath string

	// Detection defaults (§4.3, overridable per-zone via options).
	DefaultMinArea             int
	DefaultMaxArea             int
	DefaultAlarmThreshold      int
	DiffThreshold               int // abs_diff_threshold default t
	MorphologyPasses             int // erode/dilate default n
	RunningMeanAlpha             float64
	ConfidenceThreshold          float64

	// Scheduler defaults (§4.6).
	RoundRobinIntervalMS int

	// Ambient stack.
	LogDirectory string
}

// Load builds a Config from the environment. A .env file in the working
// directory, if present, is merged in first (local-dev convenience); real
// environment variables always take precedence.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                        getEnvAsInt("PORT", 3620),
		SnapshotBaseURL:             getEnv("SNAPSHOT_BASE_URL", "http://localhost:1984"),
		ExternalDetectorURL:         getEnv("EXTERNAL_DETECTOR_URL", "http://localhost:3000"),
		ExternalDetectorHTTPTimeout: time.Duration(getEnvAsInt("EXTERNAL_DETECTOR_TIMEOUT_MS", 2000)) * time.Millisecond,
		DBPath:                      getEnv("DB_PATH", filepath.Join(".", "data", "zones.db")),
		DefaultMinArea:              getEnvAsInt("DEFAULT_MIN_AREA", 500),
		DefaultMaxArea:              getEnvAsInt("DEFAULT_MAX_AREA", 50000),
		DefaultAlarmThreshold:       getEnvAsInt("DEFAULT_ALARM_THRESHOLD", 1),
		DiffThreshold:               getEnvAsInt("DIFF_THRESHOLD", 30),
		MorphologyPasses:            getEnvAsInt("MORPHOLOGY_PASSES", 2),
		RunningMeanAlpha:            getEnvAsFloat("RUNNING_MEAN_ALPHA", 0.1),
		ConfidenceThreshold:         getEnvAsFloat("CONFIDENCE_THRESHOLD", 0.5),
		RoundRobinIntervalMS:        getEnvAsInt("ROUND_ROBIN_INTERVAL_MS", 5000),
		LogDirectory:                getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
