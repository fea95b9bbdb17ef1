package topics

import (
	"strings"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

// Store is the read-only topic table shared by all requests.
type Store struct {
	topics []domain.Topic
	names  []string
}

func NewStore(entries []domain.Topic) *Store {
	topics := make([]domain.Topic, 0, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := normalizeTopicName(entry.Name)
		if name == "" {
			continue
		}
		topics = append(topics, domain.Topic{
			Name:      name,
			Reference: strings.TrimSpace(entry.Reference),
		})
		names = append(names, name)
	}
	return &Store{topics: topics, names: names}
}

// ListTopics returns topic names in source order. Duplicates are kept.
func (s *Store) ListTopics() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Store) Topics() []domain.Topic {
	out := make([]domain.Topic, len(s.topics))
	copy(out, s.topics)
	return out
}

func (s *Store) Len() int {
	return len(s.names)
}

// normalizeTopicName drops markdown emphasis markers left in the sheet.
func normalizeTopicName(name string) string {
	return strings.TrimSpace(strings.ReplaceAll(name, "*", ""))
}
