package httpadapter

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi/openapi.yaml
var openAPISpec []byte

type contract struct {
	doc         *openapi3.T
	chatRequest *openapi3.Schema
	rendered    []byte
}

func loadContract() (*contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi contract: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi contract: %w", err)
	}

	ref, ok := doc.Components.Schemas["ChatRequest"]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("openapi contract: ChatRequest schema is missing")
	}
	rendered, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render openapi contract: %w", err)
	}

	return &contract{
		doc:         doc,
		chatRequest: ref.Value,
		rendered:    rendered,
	}, nil
}

// validateChatRequest checks a decoded JSON body against the ChatRequest schema.
func (c *contract) validateChatRequest(body any) error {
	if c == nil {
		return nil
	}
	return c.chatRequest.VisitJSON(body)
}
