package driven

import "context"

// MultimodalEmbedder is the remote batch embedding service.
type MultimodalEmbedder interface {
	// EmbedRaw posts an already-encoded request payload and returns the raw
	// response body. A non-OK response returns a *domain.EmbeddingError.
	EmbedRaw(ctx context.Context, payload []byte) ([]byte, error)

	// EmbedQuery embeds a search query as a single text input.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// ModelName returns the embedding model identifier.
	ModelName() string
}
