package usecase

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	numberedItem   = regexp.MustCompile(`(\d+)\. `)
	bulletReplacer = strings.NewReplacer("- ", "<br>• ", "• ", "<br>• ")
)

// Formatter turns a raw model answer into the HTML fragment returned to
// clients. Format must be applied once per raw answer: the disclaimer is
// appended unconditionally.
type Formatter struct {
	disclaimer string
	escapeHTML bool
}

func NewFormatter(disclaimer string, escapeHTML bool) *Formatter {
	return &Formatter{
		disclaimer: disclaimer,
		escapeHTML: escapeHTML,
	}
}

func (f *Formatter) Format(raw string, topics []string) string {
	text := strings.TrimSpace(raw)
	if f.escapeHTML {
		text = html.EscapeString(text)
	}

	// "**" opens a <strong> that is never closed; clients rely on this markup.
	text = strings.ReplaceAll(text, "**", "<strong>")
	text = strings.ReplaceAll(text, "*", "<em>")
	text = bulletReplacer.Replace(text)
	text = numberedItem.ReplaceAllString(text, "<br>${1}. ")
	text = strings.ReplaceAll(text, "\n\n", "</p><p>")

	var out strings.Builder
	out.WriteString("<p>")
	out.WriteString(text)
	out.WriteString("</p>")

	if selected := f.selectedTopics(topics); len(selected) > 0 {
		out.WriteString("<p>Selected Topics: ")
		out.WriteString(strings.Join(selected, ", "))
		out.WriteString("</p>")
	}

	out.WriteString("<p>")
	out.WriteString(f.disclaimer)
	out.WriteString("</p>")
	return out.String()
}

func (f *Formatter) selectedTopics(topics []string) []string {
	out := make([]string, 0, len(topics))
	for _, topic := range topics {
		if topic == "" {
			continue
		}
		if f.escapeHTML {
			topic = html.EscapeString(topic)
		}
		out = append(out, topic)
	}
	return out
}
