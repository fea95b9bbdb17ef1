package usecase

import (
	"context"
	"strings"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/core/ports"
)

// FallbackAnswer replaces an empty completion.
const FallbackAnswer = "We have come across a technical problem. Please ask again. Apologies."

type ResponseGenerator struct {
	completer ports.ChatCompleter
	persona   string
}

func NewResponseGenerator(completer ports.ChatCompleter, prompts domain.Prompts) *ResponseGenerator {
	return &ResponseGenerator{
		completer: completer,
		persona:   prompts.Persona,
	}
}

func (g *ResponseGenerator) GenerateResponse(ctx context.Context, question string) (string, error) {
	completion, err := g.completer.Complete(ctx, domain.CompletionRequest{
		Operation: "answer",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: g.persona},
			{Role: domain.RoleUser, Content: question},
		},
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(completion.Text) == "" {
		return FallbackAnswer, nil
	}
	return completion.Text, nil
}
