package driven

import "context"

// LLMService synthesizes answers from retrieved pages. It is optional:
// without one, ask returns the retrieved passages as they are.
type LLMService interface {
	// Chat sends the conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName identifies the model in answers.
	ModelName() string

	// Ping checks credentials and reachability.
	Ping(ctx context.Context) error

	// Close releases client resources.
	Close() error
}

// ChatMessage is one turn; Role is "system", "user" or "assistant".
type ChatMessage struct {
	Role    string
	Content string
}

// ChatOptions tunes a single completion. Zero values use provider defaults.
type ChatOptions struct {
	MaxTokens   int
	Temperature float64
}
