package server

import "context"

type Server interface {
	// Start serves until Stop is called.
	Start() error
	Stop(ctx context.Context) error
}
