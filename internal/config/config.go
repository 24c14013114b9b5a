// Package config loads process-wide configuration from the environment.
// A .env file is honored when present; real environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the bot needs to talk to Feishu, OpenWeatherMap
// and an OpenAI-compatible completion endpoint. It is read-only after Load.
type Config struct {
	// Feishu app credentials and optional webhook verification token.
	FeishuAppID             string
	FeishuAppSecret         string
	FeishuVerificationToken string
	FeishuBaseURL           string

	// OpenWeatherMap.
	WeatherAPIKey string

	// LLM provider. BaseURL empty means the default OpenAI endpoint;
	// point it at OpenRouter/DeepSeek for the compatible alternatives.
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	AIDisabled  bool

	// Optional Redis cache for weather snapshots. Empty disables caching.
	RedisURL string

	// Retry policy for LLM completion calls.
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration

	// Listener.
	Host string
	Port string
}

const (
	defaultFeishuBaseURL = "https://open.feishu.cn"
	defaultLLMModel      = "gpt-3.5-turbo"
)

// Load reads configuration from .env (if present) and the environment.
// Missing required keys are a fatal startup error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		FeishuAppID:             os.Getenv("FEISHU_APP_ID"),
		FeishuAppSecret:         os.Getenv("FEISHU_APP_SECRET"),
		FeishuVerificationToken: os.Getenv("FEISHU_VERIFICATION_TOKEN"),
		FeishuBaseURL:           getEnv("FEISHU_BASE_URL", defaultFeishuBaseURL),
		WeatherAPIKey:           os.Getenv("WEATHER_API_KEY"),
		LLMAPIKey:               os.Getenv("OPENAI_API_KEY"),
		LLMBaseURL:              os.Getenv("LLM_BASE_URL"),
		LLMModel:                getEnv("LLM_MODEL", defaultLLMModel),
		AIDisabled:              getBoolEnv("AI_DISABLED", false),
		RedisURL:                os.Getenv("REDIS_URL"),
		RetryMaxAttempts:        getIntEnv("RETRY_MAX_ATTEMPTS", 5),
		RetryBaseDelay:          getDurationEnv("RETRY_BASE_DELAY", 2*time.Second),
		Host:                    getEnv("HOST", "0.0.0.0"),
		Port:                    getEnv("PORT", "8080"),
	}

	if cfg.FeishuAppID == "" || cfg.FeishuAppSecret == "" {
		return nil, fmt.Errorf("FEISHU_APP_ID and FEISHU_APP_SECRET must be set")
	}
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY must be set")
	}
	if !cfg.AIDisabled && cfg.LLMAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set (or set AI_DISABLED=true)")
	}
	if cfg.RetryMaxAttempts < 1 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.RetryBaseDelay <= 0 {
		return nil, fmt.Errorf("RETRY_BASE_DELAY must be > 0")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
