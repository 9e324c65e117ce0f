package boti

import (
	"context"

	"github.com/IA-UD-Tech/backend-boti/auth"
	"github.com/IA-UD-Tech/backend-boti/internal/service/indexer"
	"github.com/IA-UD-Tech/backend-boti/searcher"
)

type Mode string

const (
	// ModeSync embeds before every write; a failed embedding aborts the write.
	ModeSync Mode = "sync"
	// ModeAsync writes first and embeds in the background indexer.
	ModeAsync Mode = "async"
)

type Option func(*Options)

type Options struct {
	Mode            Mode
	SearchThreshold float64
	SearchLimit     int
	Breaker         searcher.BreakerOptions
	Verifier        auth.Verifier
	IndexerOptions  []indexer.Option
	Context         context.Context
}

func WithMode(mode Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

func WithSearchThreshold(threshold float64) Option {
	return func(o *Options) {
		o.SearchThreshold = threshold
	}
}

func WithSearchLimit(limit int) Option {
	return func(o *Options) {
		o.SearchLimit = limit
	}
}

func WithBreaker(breaker searcher.BreakerOptions) Option {
	return func(o *Options) {
		o.Breaker = breaker
	}
}

// WithVerifier protects the API with bearer tokens checked by v.
func WithVerifier(v auth.Verifier) Option {
	return func(o *Options) {
		o.Verifier = v
	}
}

func WithIndexerOptions(opts ...indexer.Option) Option {
	return func(o *Options) {
		o.IndexerOptions = append(o.IndexerOptions, opts...)
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Mode:            ModeSync,
		SearchThreshold: searcher.DefaultThreshold,
		SearchLimit:     searcher.DefaultLimit,
		Context:         context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
