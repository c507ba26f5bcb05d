package errors

import "errors"

var (
	// ErrNotFound is the sentinel for missing resources (room policies, entries, users).
	ErrNotFound = errors.New("not found")
	// ErrValidation is the sentinel for malformed input rejected before persistence.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidPolicy marks a stored policy that fails the engine's structural checks.
	// Reaching it means upsert validation let something through; treated as a bug.
	ErrInvalidPolicy = errors.New("invalid room policy")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsInvalidPolicy(err error) bool {
	return errors.Is(err, ErrInvalidPolicy)
}
