package hypergraph

import "errors"

// Builder errors. A build is fatal-on-first-error: the output is fully
// derived and regenerable, so nothing is retried or skipped silently.
var (
	// ErrMalformedInput is returned when a fill is missing a required
	// field or cannot be classified.
	ErrMalformedInput = errors.New("malformed fill record")

	// ErrInvalidConfiguration is returned for an unknown bucket mode or
	// a non-positive time window.
	ErrInvalidConfiguration = errors.New("invalid builder configuration")

	// ErrEmptyInput is returned when no fill produced a non-empty
	// hyperedge. Callers decide whether this is fatal; the CLIs treat
	// it as a non-zero exit.
	ErrEmptyInput = errors.New("no fills produced a non-empty hyperedge")
)
