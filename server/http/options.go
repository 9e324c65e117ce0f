package http

import (
	"context"
	"net/http"

	"github.com/IA-UD-Tech/backend-boti/server"
	"github.com/gorilla/mux"
)

type middlewareKey struct{}

func WithMiddleware(ms ...func(h http.Handler) http.Handler) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, middlewareKey{}, ms)
	}
}

func MiddlewareFrom(ctx context.Context) ([]func(h http.Handler) http.Handler, bool) {
	ms, ok := ctx.Value(middlewareKey{}).([]func(h http.Handler) http.Handler)
	return ms, ok
}

type routesKey struct{}

// WithRoutes registers handlers on the server's router before it starts.
func WithRoutes(rs ...func(r *mux.Router)) server.Option {
	return func(o *server.Options) {
		o.Context = context.WithValue(o.Context, routesKey{}, rs)
	}
}

func RoutesFrom(ctx context.Context) ([]func(r *mux.Router), bool) {
	rs, ok := ctx.Value(routesKey{}).([]func(r *mux.Router))
	return rs, ok
}
