package auth

import "context"

type Option func(*Options)

type Options struct {
	Secret   string
	Issuer   string
	Audience string
	Context  context.Context
}

func WithSecret(secret string) Option {
	return func(o *Options) {
		o.Secret = secret
	}
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) Option {
	return func(o *Options) {
		o.Issuer = issuer
	}
}

func WithAudience(audience string) Option {
	return func(o *Options) {
		o.Audience = audience
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
