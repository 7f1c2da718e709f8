package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.Provider.OpenAIModel)
	assert.Equal(t, "http://localhost:11434", cfg.Provider.OllamaBaseURL)
	assert.Equal(t, 45*time.Second, cfg.Provider.AttemptTimeout)
	assert.Equal(t, 2*time.Second, cfg.Provider.OllamaProbe)
	assert.Equal(t, "reports", cfg.ReportsDir)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("PREFERRED_PROVIDER", "gemini")
	t.Setenv("PROVIDER_TIMEOUT", "10s")
	t.Setenv("TRANSPORT_RETRIES", "5")

	cfg := Load()

	assert.Equal(t, "9999", cfg.APIPort)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "gemini", cfg.Provider.Preferred)
	assert.Equal(t, 10*time.Second, cfg.Provider.AttemptTimeout)
	assert.Equal(t, 5, cfg.Provider.TransportRetries)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("PROVIDER_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 45*time.Second, cfg.Provider.AttemptTimeout)
}
