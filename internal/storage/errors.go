package storage

import "errors"

// Sentinel errors shared by every store backend. Callers match them
// with errors.Is; fills and markets are never updated in place, so a
// repeated key always surfaces as ErrDuplicateKey.
var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned on inserting a fill id or market
	// slug that is already stored.
	ErrDuplicateKey = errors.New("duplicate key: records are immutable once stored")

	// ErrInvalidInput is returned when a record fails validation
	// before it reaches the backend.
	ErrInvalidInput = errors.New("invalid input")
)
