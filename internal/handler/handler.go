// Package handler exposes documents and vector embeddings over REST under
// /api/v1.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/IA-UD-Tech/backend-boti/auth"
	"github.com/IA-UD-Tech/backend-boti/internal/service/document"
	"github.com/IA-UD-Tech/backend-boti/internal/service/embedding"
	"github.com/IA-UD-Tech/backend-boti/storer"
	"github.com/gorilla/mux"
)

const (
	welcomeMessage     = "Welcome to Boti API"
	defaultSearchLimit = 5

	SearchStatusHeader = "X-Search-Status"
)

var errBadRequest = errors.New("bad request")

type Handler struct {
	documents  *document.Service
	embeddings *embedding.Service
	verifier   auth.Verifier
}

// RegisterRoutes mounts the API on router. When the handler has a verifier
// every /api/v1 route requires a bearer token.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.welcome).Methods(http.MethodGet)
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	if h.verifier != nil {
		api.Use(h.authenticate)
	}

	handle(api, "/documents", h.createDocument, http.MethodPost)
	handle(api, "/documents", h.listDocuments, http.MethodGet)
	api.HandleFunc("/documents/search", h.searchDocuments).Methods(http.MethodPost)
	api.HandleFunc("/documents/{id}", h.getDocument).Methods(http.MethodGet)
	api.HandleFunc("/documents/{id}", h.updateDocument).Methods(http.MethodPut)
	api.HandleFunc("/documents/{id}", h.removeDocument).Methods(http.MethodDelete)

	handle(api, "/vector-embeddings", h.listEmbeddings, http.MethodGet)
	api.HandleFunc("/vector-embeddings/search", h.searchEmbeddings).Methods(http.MethodPost)
	api.HandleFunc("/vector-embeddings/message/{message_id}", h.createMessageEmbedding).Methods(http.MethodPost)
	api.HandleFunc("/vector-embeddings/message/{message_id}", h.getMessageEmbedding).Methods(http.MethodGet)
	api.HandleFunc("/vector-embeddings/document/{document_id}", h.createDocumentEmbedding).Methods(http.MethodPost)
	api.HandleFunc("/vector-embeddings/document/{document_id}", h.getDocumentEmbedding).Methods(http.MethodGet)
	api.HandleFunc("/vector-embeddings/{id}", h.getEmbedding).Methods(http.MethodGet)
	api.HandleFunc("/vector-embeddings/{id}", h.removeEmbedding).Methods(http.MethodDelete)
}

func (h *Handler) welcome(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"message": welcomeMessage}, http.StatusOK)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// handle registers the collection path with and without a trailing slash.
func handle(router *mux.Router, path string, fn http.HandlerFunc, method string) {
	router.HandleFunc(path, fn).Methods(method)
	router.HandleFunc(path+"/", fn).Methods(method)
}

func respondJSON(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	respondJSON(w, map[string]string{"detail": detail}, status)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", errBadRequest, err)
	}
	return nil
}

func page(r *http.Request) (storer.Page, error) {
	skip, err := intParam(r, "skip", 0)
	if err != nil {
		return storer.Page{}, err
	}
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		return storer.Page{}, err
	}
	if skip < 0 || limit < 1 {
		return storer.Page{}, fmt.Errorf("%w: skip must be >= 0 and limit >= 1", errBadRequest)
	}
	return storer.NewPage(skip, limit), nil
}

func intParam(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if len(raw) == 0 {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, key)
	}
	return v, nil
}

func stringParam(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	v := r.URL.Query().Get(key)
	return &v
}

// searchParams reads query and limit from the URL, falling back to a JSON
// body of the same shape.
func searchParams(r *http.Request) (string, int, error) {
	query := r.URL.Query().Get("query")

	limit, err := intParam(r, "limit", defaultSearchLimit)
	if err != nil {
		return "", 0, err
	}

	if len(query) == 0 && r.ContentLength != 0 {
		var body struct {
			Query string `json:"query"`
			Limit *int   `json:"limit"`
		}
		if err := decode(r, &body); err != nil {
			return "", 0, err
		}
		query = body.Query
		if body.Limit != nil {
			limit = *body.Limit
		}
	}

	return query, limit, nil
}

func NewHandler(documents *document.Service, embeddings *embedding.Service, verifier auth.Verifier) *Handler {
	return &Handler{
		documents:  documents,
		embeddings: embeddings,
		verifier:   verifier,
	}
}
