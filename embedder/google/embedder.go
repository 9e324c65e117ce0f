package google

import (
	"context"
	"errors"
	"net/http"

	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	genaiopt "google.golang.org/api/option"
)

const (
	providerName = "google"
	defaultModel = "text-embedding-004"
)

var modelDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

type googleEmbedder struct {
	options embedder.Options
	client  *genai.Client
}

func (e *googleEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.options.Timeout)
	defer cancel()

	model := e.client.EmbeddingModel(e.options.Model)
	rsp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, classify(err)
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, &embedder.ProviderError{Provider: providerName, Body: "no embedding returned"}
	}

	return rsp.Embedding.Values, nil
}

func (e *googleEmbedder) Dimensions() int {
	return e.options.Dimensions
}

func (e *googleEmbedder) Model() string {
	return e.options.Model
}

func (e *googleEmbedder) Close() error {
	return e.client.Close()
}

func classify(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPCode() > 0 {
		return &embedder.ProviderError{
			Provider:   providerName,
			StatusCode: apiErr.HTTPCode(),
			Body:       apiErr.Error(),
		}
	}

	return &embedder.TransportError{Provider: providerName, Err: err}
}

// NewEmbedder builds a Gemini embedder. Like the openai provider it fails
// with a ConfigurationError when no API key is set.
func NewEmbedder(opts ...embedder.Option) (embedder.Embedder, error) {
	options := embedder.NewOptions(opts...)

	if len(options.ApiKey) == 0 {
		return nil, &embedder.ConfigurationError{Provider: providerName, Setting: "api key"}
	}

	if len(options.Model) == 0 {
		options.Model = defaultModel
	}

	if options.Dimensions <= 0 {
		dims, ok := modelDimensions[options.Model]
		if !ok {
			dims = 768
		}
		options.Dimensions = dims
	}

	clientOpts := []genaiopt.ClientOption{
		genaiopt.WithAPIKey(options.ApiKey),
		genaiopt.WithHTTPClient(&http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if len(options.BaseURL) > 0 {
		clientOpts = append(clientOpts, genaiopt.WithEndpoint(options.BaseURL))
	}

	client, err := genai.NewClient(options.Context, clientOpts...)
	if err != nil {
		return nil, err
	}

	e := &googleEmbedder{
		options: options,
		client:  client,
	}

	return e, nil
}
