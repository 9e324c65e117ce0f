package embedder

import "context"

// Embedder turns text into a fixed-length vector. Implementations hold no
// state between calls beyond their client.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Model() string
}

// EmbedMany embeds each text in order, one call at a time. It stops at the
// first failure.
func EmbedMany(ctx context.Context, e Embedder, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for _, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vec)
	}

	return vectors, nil
}
