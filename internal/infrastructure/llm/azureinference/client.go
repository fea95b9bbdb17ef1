// Package azureinference talks to an Azure AI model inference deployment
// (chat completions API) such as a hosted DeepSeek model.
package azureinference

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
)

const (
	DefaultModel      = "deepseek-v3"
	DefaultAPIVersion = "2024-05-01-preview"
	defaultTimeout    = 120 * time.Second
)

// CallObserver receives one notification per completed Complete call.
type CallObserver interface {
	ObserveCompletion(operation, model string, duration time.Duration, usage domain.TokenUsage, err error)
}

type Options struct {
	Endpoint   string
	APIKey     string
	Model      string
	APIVersion string
	Timeout    time.Duration

	Executor   *resilience.Executor
	Observer   CallObserver
	HTTPClient *http.Client
}

type Client struct {
	endpoint   string
	apiKey     string
	model      string
	apiVersion string
	httpClient *http.Client
	executor   *resilience.Executor
	observer   CallObserver
}

type chatRequest struct {
	Model    string               `json:"model"`
	Messages []domain.ChatMessage `json:"messages"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int                `json:"index"`
		Message      domain.ChatMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	} `json:"choices"`
	Usage domain.TokenUsage `json:"usage"`
}

func New(opts Options) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("inference endpoint is required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid inference endpoint %q", endpoint)
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("inference api key is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
		apiVersion: apiVersion,
		httpClient: httpClient,
		executor:   opts.Executor,
		observer:   opts.Observer,
	}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Complete submits the messages and returns the first choice. A response
// without choices yields an empty completion text rather than an error.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error) {
	operation := strings.TrimSpace(req.Operation)
	if operation == "" {
		operation = "complete"
	}

	start := time.Now()
	completion, err := resilience.Do(ctx, c.executor, "inference."+operation, func(callCtx context.Context) (domain.Completion, error) {
		return c.complete(callCtx, operation, req.Messages)
	}, classifyInferenceError)
	if c.observer != nil {
		c.observer.ObserveCompletion(operation, c.model, time.Since(start), completion.Usage, err)
	}
	if err != nil {
		return domain.Completion{}, wrapTemporaryIfNeeded(operation, err)
	}
	return completion, nil
}

func (c *Client) complete(ctx context.Context, operation string, messages []domain.ChatMessage) (domain.Completion, error) {
	var response chatResponse
	if err := c.postJSON(ctx, "/chat/completions", chatRequest{Model: c.model, Messages: messages}, &response, operation); err != nil {
		return domain.Completion{}, err
	}

	out := domain.Completion{
		Model: response.Model,
		Usage: response.Usage,
	}
	if out.Model == "" {
		out.Model = c.model
	}
	if len(response.Choices) > 0 {
		out.Text = response.Choices[0].Message.Content
	}
	return out, nil
}
