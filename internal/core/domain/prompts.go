package domain

// Prompts holds the text templates sent to the inference endpoint.
// TopicIdentification uses the {topics} and {question} placeholders.
type Prompts struct {
	TopicIdentification string
	Persona             string
	Disclaimer          string
}
