package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultDatabasePath    = "data/gatekeeper.db"
	defaultPort            = "8080"
	defaultTopAnomalyLimit = 3
)

type Config struct {
	// database path (or ":memory:")
	DatabasePath string

	// HTTP listen port
	Port string

	// CORS allowed origins
	AllowedOrigins []string

	// facility timezone used for staff schedule checks; never the ambient
	// process timezone
	FacilityTimezone string
	FacilityLocation *time.Location

	// anomaly count reported per assessment
	TopAnomalyLimit int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", defaultDatabasePath)
	port := getEnvOrDefault("PORT", defaultPort)

	origins := strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	tzName := getEnvOrDefault("FACILITY_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return Config{}, fmt.Errorf("invalid FACILITY_TIMEZONE '%s': %w", tzName, err)
	}

	cfg := Config{
		DatabasePath:     dbPath,
		Port:             port,
		AllowedOrigins:   origins,
		FacilityTimezone: tzName,
		FacilityLocation: loc,
		TopAnomalyLimit:  getEnvIntOrDefault("TOP_ANOMALY_LIMIT", defaultTopAnomalyLimit),
	}

	return cfg, nil
}
