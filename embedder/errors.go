package embedder

import "fmt"

// ConfigurationError is returned at construction time when a provider
// cannot be used, e.g. no credential was supplied.
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s embedder: %s is required", e.Provider, e.Setting)
}

// ProviderError means the provider answered but not with a usable embedding.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s embedder: %s", e.Provider, e.Body)
	}
	return fmt.Sprintf("%s embedder: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// Retryable reports whether the upstream status is worth another attempt.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// TransportError means the provider could not be reached or timed out.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s embedder: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
