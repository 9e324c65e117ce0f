package storer

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrUnavailable       = errors.New("store unavailable")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrInvalidOwner      = errors.New("invalid embedding owner")
	ErrTextChanged       = errors.New("document text changed")
)

// CheckVector rejects vectors whose length differs from dims. A nil vector
// passes; dims <= 0 disables the check.
func CheckVector(vec []float32, dims int) error {
	if vec == nil || dims <= 0 {
		return nil
	}
	if len(vec) != dims {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), dims)
	}
	return nil
}
