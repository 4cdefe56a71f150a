// File path: internal/llm/providers/provider.go
package providers

import "context"

// Message is a single chat exchange entry.
type Message struct {
	Role    string
	Content string
}

// Provider is the text-completion collaborator. No streaming and no
// structured output is guaranteed; callers must defensively parse free text.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
	Name() string
}
