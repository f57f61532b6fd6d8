package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Story service providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

type Config struct {
	Environment string
	LogLevel    slog.Level

	// Story service
	Provider        string
	AnthropicAPIKey string
	ModelName       string
	TurnTimeout     time.Duration

	// Optional session snapshot mirror
	RedisAddr string
}

func Load() *Config {
	return &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Provider:        strings.ToLower(getEnv("STORY_PROVIDER", ProviderAnthropic)),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ModelName:       getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		TurnTimeout:     parseSeconds(getEnv("TURN_TIMEOUT_SECONDS", "30")),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseSeconds(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
