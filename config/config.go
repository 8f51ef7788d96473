// Package config provides configuration for the assistant service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Hedera operator identity
	OperatorAccountID  string
	OperatorPrivateKey string

	// Lending backend
	BackendBaseURL string
	BackendTimeout time.Duration

	// Completion engine
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Conversation state; empty RedisAddr keeps history in memory
	RedisAddr string

	// Tool invocation audit log
	AuditDBPath string

	// Logging
	LogLevel string
}

// Load loads configuration from a .env file (if present) and the
// environment. Missing values fall back to defaults.
func Load() *Config {
	// Best effort; the environment wins in deployed setups.
	_ = godotenv.Load(".env")

	return &Config{
		HTTPPort:           getEnvInt("HTTP_PORT", 8081),
		OperatorAccountID:  getEnv("MY_ACCOUNT_ID", ""),
		OperatorPrivateKey: getEnv("MY_PRIVATE_KEY", ""),
		BackendBaseURL:     getEnv("BACKEND_BASE_URL", "http://localhost:8080"),
		BackendTimeout:     time.Duration(getEnvInt("BACKEND_TIMEOUT_MS", 15000)) * time.Millisecond,
		LLMBaseURL:         getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:          getEnv("LLM_API_KEY", ""),
		LLMModel:           getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:         time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		AuditDBPath:        getEnv("AUDIT_DB_PATH", "file:assistant.db?cache=shared&mode=rwc"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
