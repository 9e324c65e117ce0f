// Package mock provides an offline embedder. Texts are hashed word by word
// into a normalized bag-of-words vector, so texts sharing words score close
// under cosine similarity.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/IA-UD-Tech/backend-boti/embedder"
)

const (
	defaultDimensions = 1536
)

type mockEmbedder struct {
	options embedder.Options
}

func (e *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &embedder.TransportError{Provider: "mock", Err: err}
	}

	vec := make([]float32, e.options.Dimensions)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%uint32(len(vec))] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}

	if norm == 0 {
		return vec, nil
	}

	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}

	return vec, nil
}

func (e *mockEmbedder) Dimensions() int {
	return e.options.Dimensions
}

func (e *mockEmbedder) Model() string {
	return "mock"
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	if options.Dimensions <= 0 {
		options.Dimensions = defaultDimensions
	}

	return &mockEmbedder{
		options: options,
	}
}
