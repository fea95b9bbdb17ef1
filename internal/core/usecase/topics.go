package usecase

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/bdchat/internal/core/domain"
	"github.com/kirillkom/bdchat/internal/core/ports"
)

const minFallbackTopicChars = 4

var (
	numberedTopicLine = regexp.MustCompile(`^\d+\.\s*(.+)$`)
	leadingDigitNoise = regexp.MustCompile(`^[\d\s.]+`)
	wrappingBrackets  = regexp.MustCompile(`^\[|\]$`)
	leadingListNoise  = regexp.MustCompile(`^[\d.\s\[\]]+`)
	startsWithLetter  = regexp.MustCompile(`^[A-Za-z]`)
)

type TopicMatcher struct {
	completer ports.ChatCompleter
	template  string
}

func NewTopicMatcher(completer ports.ChatCompleter, prompts domain.Prompts) *TopicMatcher {
	return &TopicMatcher{
		completer: completer,
		template:  prompts.TopicIdentification,
	}
}

// MatchTopics asks the model to rank the topic table against the question.
// An empty table short-circuits to empty slots without an upstream call.
func (m *TopicMatcher) MatchTopics(ctx context.Context, question string, topics []string) ([]string, error) {
	if len(topics) == 0 {
		return make([]string, domain.TopicSlots), nil
	}

	completion, err := m.completer.Complete(ctx, domain.CompletionRequest{
		Operation: "topic_match",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: buildTopicPrompt(m.template, topics, question)},
			{Role: domain.RoleUser, Content: question},
		},
	})
	if err != nil {
		return nil, err
	}
	return ExtractTopTopics(completion.Text), nil
}

// ExtractTopTopics parses a numbered model reply into exactly
// domain.TopicSlots entries, padding with empty strings.
func ExtractTopTopics(reply string) []string {
	lines := strings.Split(reply, "\n")
	topics := make([]string, 0, domain.TopicSlots)

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		match := numberedTopicLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		topic := strings.TrimSpace(match[1])
		topic = strings.TrimSpace(leadingDigitNoise.ReplaceAllString(topic, ""))
		topic = strings.TrimSpace(wrappingBrackets.ReplaceAllString(topic, ""))
		if topic != "" {
			topics = append(topics, topic)
		}
	}

	if len(topics) < domain.TopicSlots {
		for _, line := range lines {
			line = strings.TrimSpace(line)
			if !startsWithLetter.MatchString(line) {
				continue
			}
			topic := strings.TrimSpace(leadingListNoise.ReplaceAllString(line, ""))
			if utf8.RuneCountInString(topic) >= minFallbackTopicChars {
				topics = append(topics, topic)
			}
		}
	}

	if len(topics) > domain.TopicSlots {
		return topics[:domain.TopicSlots]
	}
	for len(topics) < domain.TopicSlots {
		topics = append(topics, "")
	}
	return topics
}
