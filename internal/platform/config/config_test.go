package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsEmptyProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("STREAK_TIMEZONE", "UTC")

	cfg, err := Load()
	require.Error(t, err, "empty provider must be rejected")
	assert.Nil(t, cfg)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("JUDGE_TIMEOUT_SECONDS", "15")
	t.Setenv("LLM_PROVIDER", "OLLAMA")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama:11434/")
	t.Setenv("STREAK_TIMEZONE", "America/New_York")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.APIPort)
	assert.Equal(t, 15*time.Second, cfg.JudgeTimeout)
	assert.Equal(t, LLMProviderOllama, cfg.LLMProvider)
	assert.Equal(t, "http://ollama:11434", cfg.OllamaBaseURL)
	assert.Equal(t, "America/New_York", cfg.StreakLocation.String())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.InDelta(t, 0.4, cfg.LLMTemperature, 1e-9)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			LLMProvider:              LLMProviderOllama,
			JudgeTimeout:             time.Second,
			LLMTimeout:               time.Second,
			SyncLockTTLSeconds:       10,
			MentorRateLimitPerMinute: 5,
			StreakTimezone:           "UTC",
		}
	}

	require.NoError(t, base().Validate())

	c := base()
	c.LLMProvider = LLMProviderOpenAI
	assert.ErrorContains(t, c.Validate(), "OPENAI_API_KEY")

	c = base()
	c.StreakTimezone = "Mars/Olympus"
	assert.ErrorContains(t, c.Validate(), "STREAK_TIMEZONE")

	c = base()
	c.JudgeTimeout = 0
	c.LLMTimeout = 0
	err := c.Validate()
	assert.ErrorContains(t, err, "JUDGE_TIMEOUT_SECONDS")
	assert.ErrorContains(t, err, "LLM_TIMEOUT_SECONDS")
}
