// Package searcher ranks stored records by vector similarity. The heavy
// lifting happens in a Backend, normally a procedure inside the database;
// the Engine validates the query, applies the threshold and limit, and keeps
// backend failures apart from empty results.
package searcher

import (
	"context"
	"errors"
	"sort"
)

var (
	ErrUnavailable       = errors.New("similarity search unavailable")
	ErrDimensionMismatch = errors.New("query vector dimension mismatch")
)

// Match pairs a record with its similarity score. Higher is more similar.
type Match[T any] struct {
	Record T
	Score  float64
}

// Backend runs the nearest-neighbour query. Rows below threshold may or may
// not be filtered by the backend; the Engine filters again.
type Backend[T any] interface {
	Match(ctx context.Context, query []float32, threshold float64, count int) ([]Match[T], error)
}

type BackendFunc[T any] func(ctx context.Context, query []float32, threshold float64, count int) ([]Match[T], error)

func (f BackendFunc[T]) Match(ctx context.Context, query []float32, threshold float64, count int) ([]Match[T], error) {
	return f(ctx, query, threshold, count)
}

// Result is the outcome of a search. When Unavailable is set the backend
// could not answer and Matches is empty.
type Result[T any] struct {
	Matches     []Match[T]
	Unavailable error
}

func (r Result[T]) Available() bool {
	return r.Unavailable == nil
}

// Rank drops matches below threshold, orders the rest by descending score
// and keeps at most limit of them. Equal scores keep their input order.
func Rank[T any](matches []Match[T], threshold float64, limit int) []Match[T] {
	if limit < 1 {
		return nil
	}

	ranked := make([]Match[T], 0, len(matches))
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		ranked = append(ranked, m)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return ranked
}
