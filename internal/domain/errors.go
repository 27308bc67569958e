package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	// ErrUnauthorized means no user context was supplied at all.
	ErrUnauthorized = errors.New("domain: unauthorized")

	// ErrForbidden means the user is authenticated but lacks the required right.
	ErrForbidden = errors.New("domain: forbidden")

	// ErrNotFound means the target identifier is absent or already removed.
	ErrNotFound = errors.New("domain: not found")

	// ErrConflict means the store detected a write conflict: a stale
	// concurrency token or a uniqueness violation. Caller-correctable.
	ErrConflict = errors.New("domain: conflict")

	// ErrUnknownColumn means a sort column was requested that was never
	// registered for the entity. A configuration error, surfaced loudly.
	ErrUnknownColumn = errors.New("domain: unknown sort column")
)
