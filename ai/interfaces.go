package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string using the
	// configured model. It makes exactly one provider call and never retries.
	EmbedText(ctx context.Context, text string) ([]float32, error)
}
