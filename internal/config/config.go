package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config contains all runtime settings for the tool-calling service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	JWTSecret    string
	JWTAlgorithm string
	JWTIssuer    string
	JWTAudience  string

	SessionInactivityTimeout time.Duration
	SessionMaxPerSubject     int

	MaxToolRounds int
	LLMTimeout    time.Duration
	ToolTimeout   time.Duration

	LLMMode      string
	LLMURL       string
	LLMAPIKey    string
	LLMModel     string
	LLMMaxTokens int

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "lexroom"),
		JWTSecret:                trimmedEnv("JWT_SECRET_KEY"),
		JWTAlgorithm:             envOrDefault("JWT_ALGORITHM", "HS256"),
		JWTIssuer:                envOrDefault("JWT_ISSUER", "lexroom-core"),
		JWTAudience:              envOrDefault("JWT_AUDIENCE", "lexroom-client"),
		LLMMode:                  envOrDefault("LLM_ADAPTER_MODE", "auto"),
		LLMURL:                   trimmedEnv("LLM_GATEWAY_URL"),
		LLMAPIKey:                trimmedEnv("LLM_API_KEY"),
		LLMModel:                 envOrDefault("LLM_MODEL", "gpt-oss-120b"),
		LLMMaxTokens:             10000,
		DatabaseURL:              trimmedEnv("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		SessionInactivityTimeout: 10 * time.Minute,
		SessionMaxPerSubject:     1,
		MaxToolRounds:            5,
		LLMTimeout:               60 * time.Second,
		ToolTimeout:              30 * time.Second,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionInactivityTimeout, err = durationFromEnv("APP_SESSION_INACTIVITY_TIMEOUT", cfg.SessionInactivityTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SessionMaxPerSubject, err = intFromEnv("APP_SESSION_MAX_PER_SUBJECT", cfg.SessionMaxPerSubject)
	if err != nil {
		return Config{}, err
	}
	cfg.MaxToolRounds, err = intFromEnv("APP_MAX_TOOL_ROUNDS", cfg.MaxToolRounds)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMTimeout, err = durationFromEnv("LLM_TIMEOUT", cfg.LLMTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.ToolTimeout, err = durationFromEnv("TOOL_TIMEOUT", cfg.ToolTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.LLMMaxTokens, err = intFromEnv("LLM_MAX_COMPLETION_TOKENS", cfg.LLMMaxTokens)
	if err != nil {
		return Config{}, err
	}

	if cfg.SessionInactivityTimeout < 5*time.Second {
		return Config{}, fmt.Errorf("APP_SESSION_INACTIVITY_TIMEOUT must be at least 5s")
	}
	if cfg.SessionMaxPerSubject <= 0 {
		return Config{}, fmt.Errorf("APP_SESSION_MAX_PER_SUBJECT must be positive")
	}
	if cfg.MaxToolRounds <= 0 {
		return Config{}, fmt.Errorf("APP_MAX_TOOL_ROUNDS must be positive")
	}
	if cfg.LLMTimeout <= 0 {
		return Config{}, fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if cfg.ToolTimeout <= 0 {
		return Config{}, fmt.Errorf("TOOL_TIMEOUT must be positive")
	}
	if cfg.LLMMaxTokens <= 0 {
		return Config{}, fmt.Errorf("LLM_MAX_COMPLETION_TOKENS must be positive")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
