package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/core/ports"
)

const recordTimeout = 5 * time.Second

var (
	errNoMessage       = errors.New("no message provided")
	errMissingPipeline = errors.New("chat pipeline is not configured")
)

type ChatOptions struct {
	Recorder ports.ExchangeRecorder
	// InitErr is the startup failure of the inference client or topic store.
	InitErr error
}

type ChatUseCase struct {
	topics    ports.TopicCatalog
	matcher   ports.TopicMatcher
	generator ports.ResponseGenerator
	formatter ports.ResponseFormatter
	recorder  ports.ExchangeRecorder
	initErr   error
}

func NewChatUseCase(
	topics ports.TopicCatalog,
	matcher ports.TopicMatcher,
	generator ports.ResponseGenerator,
	formatter ports.ResponseFormatter,
	opts ChatOptions,
) *ChatUseCase {
	initErr := opts.InitErr
	if initErr == nil && (topics == nil || matcher == nil || generator == nil || formatter == nil) {
		initErr = errMissingPipeline
	}
	return &ChatUseCase{
		topics:    topics,
		matcher:   matcher,
		generator: generator,
		formatter: formatter,
		recorder:  opts.Recorder,
		initErr:   initErr,
	}
}

func (uc *ChatUseCase) Chat(ctx context.Context, message string) (_ *domain.ChatReply, err error) {
	if uc.initErr != nil {
		return nil, domain.WrapError(domain.ErrNotInitialized, "chat", uc.initErr)
	}
	if strings.TrimSpace(message) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chat", errNoMessage)
	}

	start := time.Now()
	exchange := domain.Exchange{
		ID:        uuid.NewString(),
		Question:  message,
		CreatedAt: start.UTC(),
	}
	defer func() {
		exchange.Duration = time.Since(start)
		exchange.Status = domain.ExchangeAnswered
		if err != nil {
			exchange.Status = domain.ExchangeFailed
			exchange.ErrorKind = domain.KindOf(err)
		}
		uc.record(ctx, exchange)
	}()

	selected, err := uc.matcher.MatchTopics(ctx, message, uc.topics.ListTopics())
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstream, "match topics", err)
	}
	exchange.Topics = selected

	answer, err := uc.generator.GenerateResponse(ctx, message)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUpstream, "generate response", err)
	}

	return &domain.ChatReply{
		ExchangeID: exchange.ID,
		HTML:       uc.formatter.Format(answer, selected),
		Topics:     selected,
	}, nil
}

// Ready reports whether startup dependencies were initialized.
func (uc *ChatUseCase) Ready() bool {
	return uc.initErr == nil
}

func (uc *ChatUseCase) record(ctx context.Context, exchange domain.Exchange) {
	if uc.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := uc.recorder.RecordExchange(recordCtx, exchange); err != nil {
		slog.Warn("exchange_record_failed",
			"exchange_id", exchange.ID,
			"status", string(exchange.Status),
			"error", err,
		)
	}
}

// ExchangeRecorders fans an exchange out to every configured sink.
type ExchangeRecorders []ports.ExchangeRecorder

func (r ExchangeRecorders) RecordExchange(ctx context.Context, exchange domain.Exchange) error {
	var errs []error
	for _, recorder := range r {
		if recorder == nil {
			continue
		}
		if err := recorder.RecordExchange(ctx, exchange); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
