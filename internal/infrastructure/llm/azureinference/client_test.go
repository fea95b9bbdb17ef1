package azureinference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
)

type observerFake struct {
	operation string
	usage     domain.TokenUsage
	err       error
	calls     int
}

func (f *observerFake) ObserveCompletion(operation, _ string, _ time.Duration, usage domain.TokenUsage, err error) {
	f.calls++
	f.operation = operation
	f.usage = usage
	f.err = err
}

func newTestClient(t *testing.T, url string, opts Options) *Client {
	t.Helper()
	opts.Endpoint = url
	if opts.APIKey == "" {
		opts.APIKey = "secret"
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestCompleteSendsMessagesAndReturnsFirstChoice(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api-version") != DefaultAPIVersion {
			t.Errorf("unexpected api-version %q", r.URL.Query().Get("api-version"))
		}
		if r.Header.Get("api-key") != "secret" || r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing credentials headers: %v", r.Header)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"deepseek-v3","choices":[{"index":0,"message":{"role":"assistant","content":"1. Tax"}},{"index":1,"message":{"role":"assistant","content":"ignored"}}],"usage":{"prompt_tokens":12,"completion_tokens":3,"total_tokens":15}}`))
	}))
	defer server.Close()

	observer := &observerFake{}
	client := newTestClient(t, server.URL+"/models/", Options{Observer: observer})

	got, err := client.Complete(context.Background(), domain.CompletionRequest{
		Operation: "topic_match",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "system prompt"},
			{Role: domain.RoleUser, Content: "question?"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "1. Tax" {
		t.Fatalf("expected first choice, got %q", got.Text)
	}
	if got.Usage.TotalTokens != 15 {
		t.Fatalf("expected usage to be decoded, got %+v", got.Usage)
	}
	if captured.Model != DefaultModel || len(captured.Messages) != 2 || captured.Messages[0].Role != domain.RoleSystem {
		t.Fatalf("unexpected request payload: %+v", captured)
	}
	if observer.calls != 1 || observer.operation != "topic_match" || observer.usage.PromptTokens != 12 {
		t.Fatalf("unexpected observation: %+v", observer)
	}
}

func TestCompleteWithoutChoicesReturnsEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	got, err := newTestClient(t, server.URL, Options{Model: "custom"}).Complete(context.Background(), domain.CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "" || got.Model != "custom" {
		t.Fatalf("unexpected completion: %+v", got)
	}
}

func TestCompleteIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, Options{}).Complete(context.Background(), domain.CompletionRequest{Operation: "answer"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected HTTPStatusError 401, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("401 must not be marked temporary")
	}
}

func TestCompleteRetriesThrottlingWithExecutor(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
	got, err := newTestClient(t, server.URL, Options{Executor: exec}).Complete(context.Background(), domain.CompletionRequest{Operation: "answer"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Text != "ok" || calls.Load() != 2 {
		t.Fatalf("expected retried success, got %q after %d calls", got.Text, calls.Load())
	}
}

func TestCompleteMarksGatewayFailureTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	observer := &observerFake{}
	_, err := newTestClient(t, server.URL, Options{Observer: observer}).Complete(context.Background(), domain.CompletionRequest{Operation: "answer"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if observer.err == nil {
		t.Fatalf("observer must see the failure")
	}
}

func TestNewRejectsMissingConfiguration(t *testing.T) {
	if _, err := New(Options{APIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
	if _, err := New(Options{Endpoint: "not a url", APIKey: "k"}); err == nil {
		t.Fatalf("expected error for invalid endpoint")
	}
	if _, err := New(Options{Endpoint: "https://example.test/models"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}
