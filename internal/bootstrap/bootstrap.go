package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirillkom/bdchat/internal/config"
	"github.com/kirillkom/bdchat/internal/core/ports"
	"github.com/kirillkom/bdchat/internal/core/usecase"
	"github.com/kirillkom/bdchat/internal/infrastructure/llm/azureinference"
	"github.com/kirillkom/bdchat/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/bdchat/internal/infrastructure/prompts"
	"github.com/kirillkom/bdchat/internal/infrastructure/queue/nats"
	"github.com/kirillkom/bdchat/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/bdchat/internal/infrastructure/resilience"
	"github.com/kirillkom/bdchat/internal/infrastructure/topics"
	"github.com/kirillkom/bdchat/internal/observability/metrics"
)

const serviceName = "bdchat-api"

type App struct {
	Config config.Config

	Chat    ports.ChatService
	Topics  ports.TopicCatalog
	Metrics *metrics.HTTPServerMetrics

	closeFns []func()
}

// New wires the chat pipeline. A missing topic table or inference client does
// not stop startup: the chat service then answers every request as not initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	chatPrompts, err := prompts.Load(cfg.PromptsFile, usecase.DefaultPrompts())
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app := &App{
		Config:  cfg,
		Metrics: httpMetrics,
	}
	var initErrs []error

	topicStore, err := topics.LoadXLSX(cfg.TopicsFile, cfg.TopicsSheet)
	if err != nil {
		slog.Error("topic_store_load_failed", "path", cfg.TopicsFile, "error", err)
		initErrs = append(initErrs, fmt.Errorf("load topics: %w", err))
		topicStore = topics.NewStore(nil)
	} else {
		slog.Info("topic_store_loaded", "path", cfg.TopicsFile, "topics", topicStore.Len())
	}
	app.Topics = topicStore

	executor := resilience.NewExecutor(resilience.InferenceConfig(
		cfg.LLMRetryMaxAttempts,
		cfg.LLMRetryInitialBackoff,
		cfg.LLMRetryMaxBackoff,
		cfg.LLMBreakerEnabled,
	))

	completer, err := newCompleter(cfg, executor, httpMetrics)
	if err != nil {
		slog.Error("inference_client_init_failed", "provider", cfg.InferenceProvider, "error", err)
		initErrs = append(initErrs, fmt.Errorf("init inference client: %w", err))
	}

	var recorder ports.ExchangeRecorder
	if cfg.ExchangeRecordEnabled {
		recorders := app.openRecorders(ctx, cfg, executor)
		if len(recorders) > 0 {
			recorder = recorders
		}
	}

	app.Chat = usecase.NewChatUseCase(
		topicStore,
		usecase.NewTopicMatcher(completer, chatPrompts),
		usecase.NewResponseGenerator(completer, chatPrompts),
		usecase.NewFormatter(chatPrompts.Disclaimer, cfg.ResponseEscapeHTML),
		usecase.ChatOptions{
			Recorder: recorder,
			InitErr:  errors.Join(initErrs...),
		},
	)
	return app, nil
}

// openRecorders connects the optional exchange sinks. A sink that cannot be
// reached is skipped so chat keeps working without it.
func (a *App) openRecorders(ctx context.Context, cfg config.Config, executor *resilience.Executor) usecase.ExchangeRecorders {
	var recorders usecase.ExchangeRecorders

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
		if err != nil {
			slog.Warn("exchange_log_unavailable", "sink", "postgres", "error", err)
		} else {
			repo := postgres.NewExchangeRepository(db)
			if err := repo.EnsureSchema(ctx); err != nil {
				slog.Warn("exchange_log_unavailable", "sink", "postgres", "error", err)
				_ = db.Close()
			} else {
				recorders = append(recorders, repo)
				a.closeFns = append(a.closeFns, func() { _ = db.Close() })
			}
		}
	}

	if cfg.NATSURL != "" {
		publisher, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			slog.Warn("exchange_log_unavailable", "sink", "nats", "error", err)
		} else {
			recorders = append(recorders, publisher)
			a.closeFns = append(a.closeFns, publisher.Close)
		}
	}
	return recorders
}

// newCompleter returns a nil interface, never a typed nil, when the client
// cannot be built.
func newCompleter(cfg config.Config, executor *resilience.Executor, httpMetrics *metrics.HTTPServerMetrics) (ports.ChatCompleter, error) {
	switch cfg.InferenceProvider {
	case "", "azure":
		client, err := azureinference.New(azureinference.Options{
			Endpoint:   cfg.InferenceEndpoint,
			APIKey:     cfg.InferenceAPIKey,
			Model:      cfg.InferenceModel,
			APIVersion: cfg.InferenceAPIVersion,
			Timeout:    cfg.InferenceTimeout,
			Executor:   executor,
			Observer:   httpMetrics,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("inference_client_ready", "provider", "azure", "endpoint", cfg.InferenceEndpoint, "model", client.Model())
		return client, nil
	case "ollama":
		if cfg.OllamaURL == "" {
			return nil, fmt.Errorf("ollama url is required")
		}
		client := ollama.New(cfg.OllamaURL, cfg.OllamaModel, cfg.InferenceTimeout, executor, httpMetrics)
		slog.Info("inference_client_ready", "provider", "ollama", "endpoint", cfg.OllamaURL, "model", client.Model())
		return client, nil
	default:
		return nil, fmt.Errorf("unknown inference provider %q", cfg.InferenceProvider)
	}
}

func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		a.closeFns[i]()
	}
}
