package indexer

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	QueueSize       int
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Context         context.Context
}

func WithQueueSize(size int) Option {
	return func(o *Options) {
		o.QueueSize = size
	}
}

func WithMaxRetries(n uint64) Option {
	return func(o *Options) {
		o.MaxRetries = n
	}
}

// WithBackoff sets the first and the largest wait between attempts.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *Options) {
		o.InitialInterval = initial
		o.MaxInterval = max
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		QueueSize:       128,
		MaxRetries:      5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Context:         context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
