package handler

import (
	"errors"
	"net/http"

	"github.com/IA-UD-Tech/backend-boti/auth"
	"github.com/IA-UD-Tech/backend-boti/embedder"
	"github.com/IA-UD-Tech/backend-boti/internal/service"
	"github.com/IA-UD-Tech/backend-boti/internal/service/embedding"
	"github.com/IA-UD-Tech/backend-boti/searcher"
	"github.com/IA-UD-Tech/backend-boti/storer"
)

// statusFor maps an error to a status code and the detail shown to clients.
func statusFor(err error) (int, string) {
	var providerErr *embedder.ProviderError
	var transportErr *embedder.TransportError

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, storer.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, embedding.ErrDuplicateEmbedding),
		errors.Is(err, storer.ErrDuplicate),
		errors.Is(err, storer.ErrInvalidOwner),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, storer.ErrDimensionMismatch),
		errors.Is(err, searcher.ErrDimensionMismatch):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &providerErr), errors.As(err, &transportErr):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, storer.ErrUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	}

	return http.StatusInternalServerError, "internal server error"
}
