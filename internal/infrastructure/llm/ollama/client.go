// Package ollama is a chat completer backed by a local Ollama server, used
// for development when no hosted inference deployment is available.
package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
)

type CallObserver interface {
	ObserveCompletion(operation, model string, duration time.Duration, usage domain.TokenUsage, err error)
}

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
	observer   CallObserver
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
	Stream   bool                 `json:"stream"`
}

type chatResponse struct {
	Model           string             `json:"model"`
	Message         domain.ChatMessage `json:"message"`
	Done            bool               `json:"done"`
	PromptEvalCount int                `json:"prompt_eval_count"`
	EvalCount       int                `json:"eval_count"`
}

func New(baseURL, model string, timeout time.Duration, executor *resilience.Executor, observer CallObserver) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
		observer:   observer,
	}
}

func (c *Client) Model() string {
	return c.model
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		operation = "complete"
	}

	start := time.Now()
	completion, err := resilience.Do(ctx, c.executor, "ollama."+operation, func(callCtx context.Context) (domain.Completion, error) {
		var response chatResponse
		payload := chatRequest{Model: c.model, Messages: req.Messages, Stream: false}
		if err := c.postJSON(callCtx, "/api/chat", payload, &response, operation); err != nil {
			return domain.Completion{}, err
		}
		return domain.Completion{
			Text:  strings.TrimSpace(response.Message.Content),
			Model: firstNonEmpty(response.Model, c.model),
			Usage: domain.TokenUsage{
				PromptTokens:     response.PromptEvalCount,
				CompletionTokens: response.EvalCount,
				TotalTokens:      response.PromptEvalCount + response.EvalCount,
			},
		}, nil
	}, classifyOllamaError)
	if c.observer != nil {
		c.observer.ObserveCompletion(operation, c.model, time.Since(start), completion.Usage, err)
	}
	if err != nil {
		return domain.Completion{}, wrapTemporaryIfNeeded(operation, err)
	}
	return completion, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
