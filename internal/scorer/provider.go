package scorer

import "context"

// Provider sends a prompt to a reasoning backend and returns the raw text
// response. Used only by LLMScorer; not exported to the rest of the system.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}
