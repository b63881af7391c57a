package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	LLMProviderOllama = "ollama"
	LLMProviderOpenAI = "openai"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SyncQueueName      string
	SyncLockKeyPrefix  string
	SyncLockTTLSeconds int
	SyncDefaultLimit   int

	JudgeGraphQLURL string
	JudgeTimeout    time.Duration

	LLMProvider    string
	OllamaBaseURL  string
	OllamaModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	LLMTimeout     time.Duration
	LLMTemperature float64

	StreakTimezone string
	StreakLocation *time.Location

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins       []string
	MentorRateLimitPerMinute int
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:            getEnv("API_PORT", "8080"),
		JWTKey:             []byte(getEnv("JWT_SECRET", "dev-secret-change-me")),
		JWTExp:             time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 120)) * time.Minute,
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "user"),
		DBPassword:         getEnv("DB_PASSWORD", "password"),
		DBName:             getEnv("DB_NAME", "leetmentor"),
		DBSslMode:          getEnv("DB_SSLMODE", "disable"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		SyncQueueName:      getEnv("SYNC_QUEUE_NAME", "judge_sync_queue"),
		SyncLockKeyPrefix:  getEnv("SYNC_LOCK_KEY_PREFIX", "judge_sync_lock"),
		SyncLockTTLSeconds: getEnvAsInt("SYNC_LOCK_TTL_SECONDS", 120),
		SyncDefaultLimit:   getEnvAsInt("SYNC_DEFAULT_LIMIT", 20),
		JudgeGraphQLURL:    getEnv("JUDGE_GRAPHQL_URL", "https://leetcode.com/graphql"),
		JudgeTimeout:       time.Duration(getEnvAsInt("JUDGE_TIMEOUT_SECONDS", 30)) * time.Second,
		LLMProvider:        strings.ToLower(getEnv("LLM_PROVIDER", LLMProviderOllama)),
		OllamaBaseURL:      strings.TrimRight(getEnv("OLLAMA_BASE_URL", "http://127.0.0.1:11434"), "/"),
		OllamaModel:        getEnv("OLLAMA_MODEL", "llama3.1"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", ""),
		LLMTimeout:         time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 60)) * time.Second,
		LLMTemperature:     getEnvAsFloat("LLM_TEMPERATURE", 0.4),
		StreakTimezone:     getEnv("STREAK_TIMEZONE", "UTC"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		MentorRateLimitPerMinute: getEnvAsInt("MENTOR_RATE_LIMIT_PER_MINUTE", 10),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, at request time.
// It also resolves StreakLocation.
func (c *Config) Validate() error {
	var errs []error
	if c.LLMProvider != LLMProviderOllama && c.LLMProvider != LLMProviderOpenAI {
		errs = append(errs, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", LLMProviderOllama, LLMProviderOpenAI, c.LLMProvider))
	}
	if c.LLMProvider == LLMProviderOpenAI && c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai"))
	}
	if c.JudgeTimeout <= 0 {
		errs = append(errs, errors.New("JUDGE_TIMEOUT_SECONDS must be positive"))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT_SECONDS must be positive"))
	}
	if c.SyncLockTTLSeconds <= 0 {
		errs = append(errs, errors.New("SYNC_LOCK_TTL_SECONDS must be positive"))
	}
	if c.MentorRateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("MENTOR_RATE_LIMIT_PER_MINUTE must be positive"))
	}
	loc, err := time.LoadLocation(c.StreakTimezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("STREAK_TIMEZONE: %w", err))
	} else {
		c.StreakLocation = loc
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
