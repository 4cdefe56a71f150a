// File path: internal/llm/completer.go
package llm

import "context"

// Completer adapts a chat provider to the single prompt-in, text-out call the
// resolver's re-ranking step expects.
type Completer struct {
	provider Provider
}

func NewCompleter(provider Provider) *Completer {
	return &Completer{provider: provider}
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	return c.provider.Chat(ctx, []Message{{Role: "user", Content: prompt}})
}
