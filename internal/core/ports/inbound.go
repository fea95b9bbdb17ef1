package ports

import (
	"context"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

// ChatService is the inbound contract for answering one user question.
type ChatService interface {
	Chat(ctx context.Context, message string) (*domain.ChatReply, error)
	Ready() bool
}

// TopicCatalog is the read model of the loaded topic table.
type TopicCatalog interface {
	ListTopics() []string
	Len() int
}
