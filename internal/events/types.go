// internal/events/types.go
package events

import (
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// EventType represents the type of event.
type EventType string

const (
	// Accounting events
	Deposited EventType = "vault.deposited"
	Withdrawn EventType = "vault.withdrawn"
	Earned    EventType = "vault.earned"

	// Harvest events
	Harvested             EventType = "vault.harvested"
	TreeDistribution      EventType = "vault.tree_distribution"
	WithdrawalFeeAssessed EventType = "vault.withdrawal_fee"

	// Circuit breaker events
	PauseChanged EventType = "vault.pause_changed"
)

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType
	EventTime time.Time
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// DepositedEvent is emitted after a successful deposit.
type DepositedEvent struct {
	BaseEvent
	Depositor common.Address
	Recipient common.Address
	Amount    math.Int
	Shares    math.Int
}

// WithdrawnEvent is emitted after a successful withdrawal.
type WithdrawnEvent struct {
	BaseEvent
	Owner        common.Address
	SharesBurned math.Int
	Value        math.Int
	Fee          math.Int
	Loss         math.Int
}

// EarnedEvent is emitted when idle want is pushed to the strategy.
type EarnedEvent struct {
	BaseEvent
	Deployed math.Int
}

// HarvestedEvent is emitted when the strategy reports a harvest.
type HarvestedEvent struct {
	BaseEvent
	Gain             math.Int
	GovernanceShares math.Int
	StrategistShares math.Int
	AssetsBefore     math.Int
}

// TreeDistributionEvent is emitted when an additional reward token is
// forwarded to the rewards distributor.
type TreeDistributionEvent struct {
	BaseEvent
	Token     common.Address
	Amount    math.Int
	Forwarded math.Int
}

// WithdrawalFeeAssessedEvent is emitted when withdrawal-fee shares are minted
// to the treasury.
type WithdrawalFeeAssessedEvent struct {
	BaseEvent
	FeeWant   math.Int
	FeeShares math.Int
}

// PauseChangedEvent is emitted on any circuit breaker transition.
type PauseChangedEvent struct {
	BaseEvent
	Paused         bool
	DepositsPaused bool
}
