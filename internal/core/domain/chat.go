package domain

// TopicSlots is the fixed number of topics attached to every answer.
const TopicSlots = 3

// Topic is one FAQ entry of the topic table.
type Topic struct {
	Name      string `json:"name"`
	Reference string `json:"reference,omitempty"`
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type CompletionRequest struct {
	Operation string
	Messages  []ChatMessage
}

type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion carries the text of the first completion choice.
type Completion struct {
	Text  string
	Model string
	Usage TokenUsage
}

type ChatReply struct {
	ExchangeID string
	HTML       string
	Topics     []string
}

// ChatResult is the wire outcome of one chat call: exactly one field is set.
type ChatResult struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

func SuccessResult(html string) ChatResult {
	return ChatResult{Response: html}
}

func ErrorResult(message string) ChatResult {
	return ChatResult{Error: message}
}
