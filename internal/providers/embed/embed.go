package embed

import "context"

type Embedder interface {
	// Embed converts free text into the vector used for similarity search.
	Embed(ctx context.Context, text string) ([]float32, error)
}
