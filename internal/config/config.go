package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIPort  string
	LogLevel string

	InferenceProvider   string
	InferenceEndpoint   string
	InferenceAPIKey     string
	InferenceModel      string
	InferenceAPIVersion string
	InferenceTimeout    time.Duration

	OllamaURL   string
	OllamaModel string

	LLMRetryMaxAttempts    int
	LLMRetryInitialBackoff time.Duration
	LLMRetryMaxBackoff     time.Duration
	LLMBreakerEnabled      bool

	TopicsFile  string
	TopicsSheet string
	PromptsFile string

	ResponseEscapeHTML bool

	APIRateLimitRPS       float64
	APIRateLimitBurst     int
	APIMaxInFlight        int
	APIBackpressureWait   time.Duration
	CORSAllowedOrigins    []string
	ShutdownTimeout       time.Duration
	ExchangeRecordEnabled bool

	PostgresDSN string
	NATSURL     string
	NATSSubject string
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		InferenceProvider:   strings.ToLower(mustEnv("INFERENCE_PROVIDER", "azure")),
		InferenceEndpoint:   mustEnv("INFERENCE_ENDPOINT", ""),
		InferenceAPIKey:     mustEnv("INFERENCE_API_KEY", ""),
		InferenceModel:      mustEnv("INFERENCE_MODEL", "deepseek-v3"),
		InferenceAPIVersion: mustEnv("INFERENCE_API_VERSION", "2024-05-01-preview"),
		InferenceTimeout:    time.Duration(mustEnvInt("INFERENCE_TIMEOUT_SECONDS", 120)) * time.Second,

		OllamaURL:   mustEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: mustEnv("OLLAMA_MODEL", "llama3.1"),

		LLMRetryMaxAttempts:    mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 1),
		LLMRetryInitialBackoff: time.Duration(mustEnvInt("LLM_RETRY_INITIAL_BACKOFF_MS", 200)) * time.Millisecond,
		LLMRetryMaxBackoff:     time.Duration(mustEnvInt("LLM_RETRY_MAX_BACKOFF_MS", 2000)) * time.Millisecond,
		LLMBreakerEnabled:      mustEnvBool("LLM_BREAKER_ENABLED", true),

		TopicsFile:  mustEnv("TOPICS_FILE", "./data/faq.xlsx"),
		TopicsSheet: mustEnv("TOPICS_SHEET", ""),
		PromptsFile: mustEnv("PROMPTS_FILE", ""),

		ResponseEscapeHTML: mustEnvBool("RESPONSE_ESCAPE_HTML", false),

		APIRateLimitRPS:       mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:     mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIMaxInFlight:        mustEnvInt("API_MAX_IN_FLIGHT", 0),
		APIBackpressureWait:   time.Duration(mustEnvInt("API_BACKPRESSURE_WAIT_MS", 250)) * time.Millisecond,
		CORSAllowedOrigins:    mustEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout:       time.Duration(mustEnvInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
		ExchangeRecordEnabled: mustEnvBool("EXCHANGE_RECORD_ENABLED", true),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),
		NATSURL:     mustEnv("NATS_URL", ""),
		NATSSubject: mustEnv("NATS_SUBJECT", "chat.exchanges"),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
