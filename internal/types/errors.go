// internal/types/errors.go
package types

import "errors"

// Errors shared between the vault and its collaborators.
var (
	// ErrUnauthorized is returned when the caller lacks the role an operation requires.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrPaused is returned when an operation is blocked by a circuit breaker.
	ErrPaused = errors.New("paused")

	// ErrZeroAmount is returned when a positive quantity is required.
	ErrZeroAmount = errors.New("amount is zero")

	// ErrZeroAddress is returned when a recipient or token address is required.
	ErrZeroAddress = errors.New("address is zero")

	// ErrExcessiveLoss is returned when a withdrawal's realized loss exceeds
	// the deviation threshold. The whole withdrawal is aborted.
	ErrExcessiveLoss = errors.New("withdraw exceeds max deviation threshold")
)
