package searcher

import (
	"context"
	"time"
)

const (
	DefaultThreshold = 0.5
	DefaultLimit     = 5
)

type Option func(*Options)

type Options struct {
	Name       string
	Dimensions int
	Threshold  float64
	Limit      int
	Breaker    BreakerOptions
	Context    context.Context
}

type BreakerOptions struct {
	Enabled bool
	// Failures is the number of consecutive backend failures that opens the breaker.
	Failures uint32
	// Cooldown is how long the breaker stays open before probing again.
	Cooldown time.Duration
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithDimensions(dims int) Option {
	return func(o *Options) {
		o.Dimensions = dims
	}
}

func WithDefaultThreshold(threshold float64) Option {
	return func(o *Options) {
		o.Threshold = threshold
	}
}

func WithDefaultLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func WithBreaker(breaker BreakerOptions) Option {
	return func(o *Options) {
		o.Breaker = breaker
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Name:      "search",
		Threshold: DefaultThreshold,
		Limit:     DefaultLimit,
		Breaker: BreakerOptions{
			Failures: 5,
			Cooldown: 30 * time.Second,
		},
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

type SearchOption func(*SearchOptions)

type SearchOptions struct {
	Threshold float64
	Limit     int
}

func WithThreshold(threshold float64) SearchOption {
	return func(o *SearchOptions) {
		o.Threshold = threshold
	}
}

func WithLimit(limit int) SearchOption {
	return func(o *SearchOptions) {
		o.Limit = limit
	}
}

func NewSearchOptions(defaults Options, opts ...SearchOption) SearchOptions {
	options := SearchOptions{
		Threshold: defaults.Threshold,
		Limit:     defaults.Limit,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
