package rate

import "errors"

var (
	// ErrInvalidPolicy is returned in Decision.Err for a non-positive window or max.
	ErrInvalidPolicy = errors.New("rate: window and max must be positive")
	// ErrEmptyKey is returned in Decision.Err when no bucket key was supplied.
	ErrEmptyKey = errors.New("rate: empty key")
)
