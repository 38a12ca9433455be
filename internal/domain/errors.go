package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrIdempotencyRequired   = errors.New("idempotency key required")
	ErrIdempotencyConflict   = errors.New("idempotency conflict")
	ErrInvalidEnvelope       = errors.New("invalid event envelope")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrInvalidConfig is fatal at bootstrap; it never reaches a request path.
	ErrInvalidConfig = errors.New("invalid scoring configuration")

	// ErrUnknownContext means a ranking context with no multiplier table.
	ErrUnknownContext = errors.New("unknown ranking context")
)
