package prompts

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/bdchat/internal/core/domain"
)

type fileFormat struct {
	TopicIdentification string  `yaml:"topic_identification"`
	Persona             string  `yaml:"persona"`
	Disclaimer          *string `yaml:"disclaimer"`
}

// Load overlays the prompts found in a YAML file on top of defaults.
// Keys that are absent or blank keep the default text.
func Load(path string, defaults domain.Prompts) (domain.Prompts, error) {
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read prompts file: %w", err)
	}

	var parsed fileFormat
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return defaults, fmt.Errorf("parse prompts file %s: %w", path, err)
	}

	out := defaults
	if strings.TrimSpace(parsed.TopicIdentification) != "" {
		if !strings.Contains(parsed.TopicIdentification, "{topics}") {
			return defaults, fmt.Errorf("prompts file %s: topic_identification must contain {topics}", path)
		}
		out.TopicIdentification = parsed.TopicIdentification
	}
	if strings.TrimSpace(parsed.Persona) != "" {
		out.Persona = parsed.Persona
	}
	if parsed.Disclaimer != nil && strings.TrimSpace(*parsed.Disclaimer) != "" {
		out.Disclaimer = *parsed.Disclaimer
	}
	return out, nil
}
