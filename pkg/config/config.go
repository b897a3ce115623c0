package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database     DatabaseConfig
	Redis        RedisConfig
	OpenAI       OpenAIConfig
	OTEL         OTELConfig
	Orchestrator OrchestratorConfig
	Storage      StorageConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RateLimitRPM   int
	RateLimitBurst int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// OrchestratorConfig holds visit workflow configuration.
//
// ReferenceDate is a fixed "today" for follow-up scheduling. It is NOT the
// wall clock: follow-up dates are deterministic relative to it, which keeps
// the workflow testable and reproducible across runs.
type OrchestratorConfig struct {
	ReferenceDate    time.Time
	FollowUpMinDays  int
	FollowUpMaxDays  int
	CallTimeout      time.Duration
	MaxCallAttempts  int
	InteractionsPath string
	ExtraMedications []string
}

// StorageConfig selects the patient history backend
type StorageConfig struct {
	Backend string // "memory" or "postgres"
}

const defaultReferenceDate = "2024-10-12"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	refDate, err := time.Parse("2006-01-02", getEnv("VISIT_REFERENCE_DATE", defaultReferenceDate))
	if err != nil {
		return nil, fmt.Errorf("invalid VISIT_REFERENCE_DATE: %w", err)
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "medvisit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RateLimitRPM:   getEnvAsInt("OPENAI_RATE_LIMIT_RPM", 60),
			RateLimitBurst: getEnvAsInt("OPENAI_RATE_LIMIT_BURST", 5),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "medvisit"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Orchestrator: OrchestratorConfig{
			ReferenceDate:    refDate,
			FollowUpMinDays:  getEnvAsInt("VISIT_FOLLOWUP_MIN_DAYS", 7),
			FollowUpMaxDays:  getEnvAsInt("VISIT_FOLLOWUP_MAX_DAYS", 10),
			CallTimeout:      getEnvAsDuration("VISIT_CALL_TIMEOUT", 30*time.Second),
			MaxCallAttempts:  getEnvAsInt("VISIT_MAX_CALL_ATTEMPTS", 1),
			InteractionsPath: getEnv("VISIT_INTERACTIONS_PATH", "config/drug_interactions.json"),
			ExtraMedications: getEnvAsList("VISIT_EXTRA_MEDICATIONS"),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "memory"),
		},
	}, nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
