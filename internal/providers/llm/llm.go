package llm

import "context"

type Provider interface {
	// Complete returns the model's full answer for a single prompt.
	Complete(ctx context.Context, prompt string) (string, error)
}
