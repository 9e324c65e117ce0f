package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	providerName = "openai"
	defaultModel = "text-embedding-ada-002"
)

var modelDimensions = map[string]int{
	"text-embedding-ada-002": 1536,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

type openAIEmbedder struct {
	options embedder.Options
	client  *openai.Client
	// shortened is the requested output length, 0 for the model's own.
	shortened int
}

func (e *openAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      text,
		Model:      openai.EmbeddingModel(e.options.Model),
		Dimensions: e.shortened,
	})
	if err != nil {
		return nil, classify(err)
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, &embedder.ProviderError{Provider: providerName, Body: "no embedding returned"}
	}

	return rsp.Data[0].Embedding, nil
}

func (e *openAIEmbedder) Dimensions() int {
	return e.options.Dimensions
}

func (e *openAIEmbedder) Model() string {
	return e.options.Model
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &embedder.ProviderError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := string(reqErr.Body)
		if len(body) == 0 && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		if len(body) == 0 {
			body = reqErr.HTTPStatus
		}
		return &embedder.ProviderError{
			Provider:   providerName,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       body,
		}
	}

	return &embedder.TransportError{Provider: providerName, Err: err}
}

// NewEmbedder builds the reference embedder. The API key is checked here so
// a misconfigured process fails before serving.
func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, &embedder.ConfigurationError{Provider: providerName, Setting: "api key"}
	}

	if len(options.Model) == 0 {
		options.Model = defaultModel
	}

	// Only the text-embedding-3 family can shorten its output.
	shortened := 0
	if options.Dimensions > 0 && strings.HasPrefix(options.Model, "text-embedding-3") {
		shortened = options.Dimensions
	}

	if options.Dimensions <= 0 {
		dims, ok := modelDimensions[options.Model]
		if !ok {
			dims = 1536
		}
		options.Dimensions = dims
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	if len(options.BaseURL) > 0 {
		cfg.BaseURL = options.BaseURL
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   options.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	e := &openAIEmbedder{
		options:   options,
		client:    openai.NewClientWithConfig(cfg),
		shortened: shortened,
	}

	return e, nil
}
