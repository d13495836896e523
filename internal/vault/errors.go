// internal/vault/errors.go
package vault

import (
	"errors"

	"github.com/settlabs/govault/internal/types"
)

// Re-exported shared errors so callers can match on the vault package alone.
var (
	ErrUnauthorized  = types.ErrUnauthorized
	ErrPaused        = types.ErrPaused
	ErrZeroAmount    = types.ErrZeroAmount
	ErrZeroAddress   = types.ErrZeroAddress
	ErrExcessiveLoss = types.ErrExcessiveLoss
)

var (
	// ErrNotPaused is returned by unpause when the vault is not paused.
	ErrNotPaused = errors.New("not paused")

	// ErrDepositsPaused is returned on the deposit path while the deposit
	// circuit breaker is engaged.
	ErrDepositsPaused = errors.New("deposits paused")

	// ErrDepositsNotPaused is returned by unpauseDeposits when deposits are not paused.
	ErrDepositsNotPaused = errors.New("deposits not paused")

	// ErrReentrantCall is returned when an operation re-enters the vault
	// while another operation is still in flight.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrExcessiveFee is returned when a fee setter exceeds its cap, or a cap
	// setter exceeds the absolute bps ceiling.
	ErrExcessiveFee = errors.New("fee exceeds cap")

	// ErrNotWant is returned when the vault's own asset is passed where an
	// extra token is required.
	ErrNotWant = errors.New("token is the vault asset")

	// ErrProtectedToken is returned when sweeping a token the strategy declares protected.
	ErrProtectedToken = errors.New("token is protected by the strategy")

	// ErrNoStrategy is returned when an operation needs a strategy and none is set.
	ErrNoStrategy = errors.New("no strategy set")

	// ErrGuestListDenied is returned when the guest list rejects a deposit.
	ErrGuestListDenied = errors.New("guest list denied deposit")

	// ErrUnknownToken is returned when a token address cannot be resolved.
	ErrUnknownToken = errors.New("unknown token")
)
