package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8081, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8080", cfg.BackendBaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMModel)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("MY_ACCOUNT_ID", "0.0.1234")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("BACKEND_TIMEOUT_MS", "2500")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Load()
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "0.0.1234", cfg.OperatorAccountID)
	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, 2500*time.Millisecond, cfg.BackendTimeout)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("HTTP_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, 8081, cfg.HTTPPort)
}
