package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL string

	RedisAddr            string
	RedisPassword        string
	AvailabilityCacheTTL time.Duration

	CalendarBridgeURL string
	CalendarTimeout   time.Duration
	CalendarDryRun    bool
	SyncInterval      time.Duration
	SyncBatchSize     int
	RunSyncInProcess  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		AvailabilityCacheTTL: getEnvAsDuration("AVAILABILITY_CACHE_TTL", 30*time.Second),

		CalendarBridgeURL: getEnv("CALENDAR_BRIDGE_URL", "http://localhost:5000"),
		CalendarTimeout:   getEnvAsDuration("CALENDAR_TIMEOUT", 8*time.Second),
		CalendarDryRun:    getEnvAsBool("CALENDAR_DRY_RUN", false),
		SyncInterval:      getEnvAsDuration("CALENDAR_SYNC_INTERVAL", 2*time.Second),
		SyncBatchSize:     getEnvAsInt("CALENDAR_SYNC_BATCH_SIZE", 25),
		RunSyncInProcess:  getEnvAsBool("RUN_SYNC_IN_PROCESS", true),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
