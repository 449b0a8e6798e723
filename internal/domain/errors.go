package domain

import "errors"

// Error kinds returned by the scheduling core. Every layer wraps one of them
// so callers can map failures with errors.Is.
var (
	// ErrValidation malformed or non-positive interval, missing identifiers
	ErrValidation = errors.New("validation error")

	// ErrConflict the interval collides with a blocking booking of the provider
	ErrConflict = errors.New("conflict")

	// ErrForbidden the actor is not a participant, or not the provider where required
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState transition from a terminal state or undefined transition
	ErrInvalidState = errors.New("invalid state")

	// ErrNotFound unknown booking, service or provider
	ErrNotFound = errors.New("not found")
)
