// internal/vault/pause.go
package vault

import (
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/events"
)

// PauseState holds the vault's two independent circuit breakers: the global
// pause and the deposit-only pause.
type PauseState struct {
	paused         atomic.Bool
	pausedDeposits atomic.Bool
}

func (p *PauseState) requireNotPaused() error {
	if p.paused.Load() {
		return ErrPaused
	}
	return nil
}

func (p *PauseState) requireDepositsNotPaused() error {
	if p.pausedDeposits.Load() {
		return ErrDepositsPaused
	}
	return nil
}

// Paused reports the global circuit breaker.
func (v *Vault) Paused() bool { return v.pause.paused.Load() }

// DepositsPaused reports the deposit-only circuit breaker.
func (v *Vault) DepositsPaused() bool { return v.pause.pausedDeposits.Load() }

// Pause engages the global circuit breaker. Governance or guardian.
func (v *Vault) Pause(caller common.Address) error {
	if err := v.onlyGuardianOrGovernance(caller); err != nil {
		return err
	}
	v.pause.paused.Store(true)
	v.log.Warn("vault paused", zap.Stringer("caller", caller))
	v.publishPauseChanged()
	return nil
}

// Unpause releases the global circuit breaker. Governance only; rejected when
// not paused.
func (v *Vault) Unpause(caller common.Address) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if !v.pause.paused.Load() {
		return ErrNotPaused
	}
	v.pause.paused.Store(false)
	v.log.Info("vault unpaused", zap.Stringer("caller", caller))
	v.publishPauseChanged()
	return nil
}

// PauseDeposits blocks only the deposit path. Governance or guardian.
func (v *Vault) PauseDeposits(caller common.Address) error {
	if err := v.onlyGuardianOrGovernance(caller); err != nil {
		return err
	}
	v.pause.pausedDeposits.Store(true)
	v.log.Warn("deposits paused", zap.Stringer("caller", caller))
	v.publishPauseChanged()
	return nil
}

// UnpauseDeposits reopens the deposit path. Governance only; rejected when
// deposits are not paused.
func (v *Vault) UnpauseDeposits(caller common.Address) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if !v.pause.pausedDeposits.Load() {
		return ErrDepositsNotPaused
	}
	v.pause.pausedDeposits.Store(false)
	v.log.Info("deposits unpaused", zap.Stringer("caller", caller))
	v.publishPauseChanged()
	return nil
}

func (v *Vault) publishPauseChanged() {
	v.publish(&events.PauseChangedEvent{
		BaseEvent:      v.base(events.PauseChanged),
		Paused:         v.pause.paused.Load(),
		DepositsPaused: v.pause.pausedDeposits.Load(),
	})
}
