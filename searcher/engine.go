package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sony/gobreaker"
)

type Engine[T any] struct {
	options Options
	backend Backend[T]
	breaker *gobreaker.CircuitBreaker
}

// Search returns the records closest to query. A failing backend yields a
// Result with Unavailable set and a nil error; only caller mistakes, such as
// a query of the wrong length, come back as errors.
func (e *Engine[T]) Search(ctx context.Context, query []float32, opts ...SearchOption) (Result[T], error) {
	options := NewSearchOptions(e.options, opts...)

	if e.options.Dimensions > 0 && len(query) != e.options.Dimensions {
		return Result[T]{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), e.options.Dimensions)
	}

	if options.Limit < 1 {
		return Result[T]{}, nil
	}

	matches, err := e.match(ctx, query, options)
	if err != nil {
		slog.WarnContext(ctx, "similarity search unavailable", "backend", e.options.Name, "error", err)
		return Result[T]{Unavailable: fmt.Errorf("%w: %s: %w", ErrUnavailable, e.options.Name, err)}, nil
	}

	return Result[T]{Matches: Rank(matches, options.Threshold, options.Limit)}, nil
}

func (e *Engine[T]) match(ctx context.Context, query []float32, options SearchOptions) ([]Match[T], error) {
	if e.breaker == nil {
		return e.backend.Match(ctx, query, options.Threshold, options.Limit)
	}

	rsp, err := e.breaker.Execute(func() (interface{}, error) {
		return e.backend.Match(ctx, query, options.Threshold, options.Limit)
	})
	if err != nil {
		return nil, err
	}

	return rsp.([]Match[T]), nil
}

func NewEngine[T any](backend Backend[T], opts ...Option) *Engine[T] {
	if backend == nil {
		panic("search backend is required")
	}

	options := NewOptions(opts...)

	e := &Engine[T]{
		options: options,
		backend: backend,
	}

	if options.Breaker.Enabled {
		e.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    options.Name,
			Timeout: options.Breaker.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= options.Breaker.Failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				slog.WarnContext(options.Context, "search breaker state change", "backend", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return e
}
