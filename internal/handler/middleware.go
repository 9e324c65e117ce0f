package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IA-UD-Tech/backend-boti/auth"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs one line per request once the response is written.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.InfoContext(
			r.Context(),
			"request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, r, auth.ErrUnauthenticated)
			return
		}

		id, err := h.verifier.Verify(r.Context(), strings.TrimSpace(token))
		if err != nil {
			slog.DebugContext(r.Context(), "rejected bearer token", "error", err)
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), id)))
	})
}
