package ports

import (
	"context"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

// ChatCompleter submits a message exchange to the inference endpoint.
type ChatCompleter interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.Completion, error)
}

// TopicMatcher selects exactly domain.TopicSlots topics for a question.
type TopicMatcher interface {
	MatchTopics(ctx context.Context, question string, topics []string) ([]string, error)
}

// ResponseGenerator produces the raw conversational answer.
type ResponseGenerator interface {
	GenerateResponse(ctx context.Context, question string) (string, error)
}

// ResponseFormatter renders the raw answer as HTML.
type ResponseFormatter interface {
	Format(raw string, topics []string) string
}

// ExchangeRecorder persists or publishes finished exchanges.
type ExchangeRecorder interface {
	RecordExchange(ctx context.Context, exchange domain.Exchange) error
}
