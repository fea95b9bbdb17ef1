package bootstrap

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/bdchat/internal/config"
	"github.com/kirillkom/bdchat/internal/core/domain"
)

func writeTopicsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faq.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"**Contract Law**", "See clause 4"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Litigation", "Court work"}); err != nil {
		t.Fatalf("set row: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func baseConfig() config.Config {
	return config.Config{
		InferenceModel:      "deepseek-v3",
		InferenceAPIVersion: "2024-05-01-preview",
		InferenceTimeout:    time.Second,
		LLMRetryMaxAttempts: 1,
		LLMBreakerEnabled:   true,
	}
}

func TestNewWithoutInferenceClientIsNotInitialized(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = writeTopicsFile(t)

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Topics.Len() != 2 {
		t.Fatalf("expected 2 topics loaded, got %d", app.Topics.Len())
	}
	if app.Chat.Ready() {
		t.Fatalf("expected chat service to be unready without inference credentials")
	}
	_, err = app.Chat.Chat(context.Background(), "hello")
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestNewMissingTopicsFileKeepsServing(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = filepath.Join(t.TempDir(), "missing.xlsx")
	cfg.InferenceEndpoint = "https://example.services.ai.azure.com/models"
	cfg.InferenceAPIKey = "key"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Topics.Len() != 0 {
		t.Fatalf("expected empty topic store, got %d", app.Topics.Len())
	}
	if app.Chat.Ready() {
		t.Fatalf("expected chat service to be unready without topics")
	}
}

func TestNewReadyWithTopicsAndCredentials(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = writeTopicsFile(t)
	cfg.InferenceEndpoint = "https://example.services.ai.azure.com/models"
	cfg.InferenceAPIKey = "key"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if !app.Chat.Ready() {
		t.Fatalf("expected chat service to be ready")
	}
	if got := app.Topics.ListTopics()[0]; got != "Contract Law" {
		t.Fatalf("expected normalized topic name, got %q", got)
	}
}

func TestNewFailsOnBrokenPromptsFile(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = writeTopicsFile(t)
	cfg.PromptsFile = filepath.Join(t.TempDir(), "absent.yaml")

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unreadable prompts file")
	}
}

func TestNewWithOllamaProvider(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = writeTopicsFile(t)
	cfg.InferenceProvider = "ollama"
	cfg.OllamaURL = "http://localhost:11434"
	cfg.OllamaModel = "llama3.1"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if !app.Chat.Ready() {
		t.Fatalf("expected chat service to be ready with ollama provider")
	}
}

func TestNewUnknownProviderIsNotInitialized(t *testing.T) {
	cfg := baseConfig()
	cfg.TopicsFile = writeTopicsFile(t)
	cfg.InferenceProvider = "openai"

	app, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer app.Close()

	if app.Chat.Ready() {
		t.Fatalf("expected unknown provider to leave chat unready")
	}
}
