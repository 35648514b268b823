package syncer

import "errors"

var (
	// ErrEmptyVector is returned when the provider answers with a zero-length vector.
	ErrEmptyVector = errors.New("provider returned an empty vector")

	// ErrDimensionMismatch is returned when the vector length differs from the configured dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
