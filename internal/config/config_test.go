package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"API_PORT", "INFERENCE_MODEL", "INFERENCE_TIMEOUT_SECONDS", "LLM_RETRY_MAX_ATTEMPTS",
		"LLM_BREAKER_ENABLED", "RESPONSE_ESCAPE_HTML", "CORS_ALLOWED_ORIGINS", "API_RATE_LIMIT_RPS",
		"NATS_SUBJECT", "INFERENCE_PROVIDER",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIPort != "8000" {
		t.Fatalf("expected default port 8000, got %q", cfg.APIPort)
	}
	if cfg.InferenceProvider != "azure" {
		t.Fatalf("expected azure provider by default, got %q", cfg.InferenceProvider)
	}
	if cfg.InferenceModel != "deepseek-v3" {
		t.Fatalf("expected default model deepseek-v3, got %q", cfg.InferenceModel)
	}
	if cfg.InferenceTimeout != 120*time.Second {
		t.Fatalf("expected default timeout 120s, got %s", cfg.InferenceTimeout)
	}
	if cfg.LLMRetryMaxAttempts != 1 {
		t.Fatalf("expected fail-fast default, got %d attempts", cfg.LLMRetryMaxAttempts)
	}
	if !cfg.LLMBreakerEnabled {
		t.Fatalf("expected breaker enabled by default")
	}
	if cfg.ResponseEscapeHTML {
		t.Fatalf("expected raw passthrough by default")
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected open CORS by default, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled by default, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.NATSSubject != "chat.exchanges" {
		t.Fatalf("unexpected default subject %q", cfg.NATSSubject)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LLM_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("LLM_RETRY_INITIAL_BACKOFF_MS", "50")
	t.Setenv("RESPONSE_ESCAPE_HTML", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("INFERENCE_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("INFERENCE_PROVIDER", "Ollama")

	cfg := Load()
	if cfg.LLMRetryMaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.LLMRetryMaxAttempts)
	}
	if cfg.LLMRetryInitialBackoff != 50*time.Millisecond {
		t.Fatalf("expected 50ms backoff, got %s", cfg.LLMRetryInitialBackoff)
	}
	if !cfg.ResponseEscapeHTML {
		t.Fatalf("expected escape override")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rps 2.5, got %v", cfg.APIRateLimitRPS)
	}
	if cfg.InferenceProvider != "ollama" {
		t.Fatalf("expected provider to be lower-cased, got %q", cfg.InferenceProvider)
	}
	if cfg.InferenceTimeout != 120*time.Second {
		t.Fatalf("invalid value should fall back to default, got %s", cfg.InferenceTimeout)
	}
}
