package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/IA-UD-Tech/backend-boti/server"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type httpServer struct {
	options server.Options
	handler http.Handler
	srv     *http.Server
}

func (s *httpServer) Start() error {
	slog.InfoContext(s.options.Context, "http server listening", "address", s.options.Address)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *httpServer) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.options.ShutdownTimeout)
	defer cancel()

	return s.srv.Shutdown(ctx)
}

// ServeHTTP lets the server be driven without a listener.
func (s *httpServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func NewServer(opts ...server.Option) *httpServer {
	options := server.NewOptions(opts...)

	router := mux.NewRouter()

	if rs, ok := RoutesFrom(options.Context); ok {
		for _, register := range rs {
			register(router)
		}
	}

	var handler http.Handler = router

	if ms, ok := MiddlewareFrom(options.Context); ok {
		for i := len(ms) - 1; i >= 0; i-- {
			handler = ms[i](handler)
		}
	}

	handler = otelhttp.NewHandler(handler, "boti")

	s := &httpServer{
		options: options,
		handler: handler,
		srv: &http.Server{
			Addr:         options.Address,
			Handler:      handler,
			ReadTimeout:  options.ReadTimeout,
			WriteTimeout: options.WriteTimeout,
		},
	}

	return s
}
