// internal/vault/admin.go
package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/types"
)

// SetStrategy registers the active strategy. Governance only, not while
// paused. The strategy's want must match the vault's asset.
func (v *Vault) SetStrategy(caller, addr common.Address, strategy types.Strategy) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if strategy == nil || addr == (common.Address{}) {
		return ErrZeroAddress
	}
	if strategy.Want() != v.cfg.Want {
		return fmt.Errorf("strategy wants %s: %w", strategy.Want(), ErrNotWant)
	}

	v.mu.Lock()
	v.strategy = strategy
	v.strategyAddr = addr
	v.mu.Unlock()

	v.log.Info("strategy set", zap.Stringer("strategy", addr))
	return nil
}

// StrategyAddress returns the registered strategy address, zero when unset.
func (v *Vault) StrategyAddress() common.Address {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.strategyAddr
}

// SetGuestList installs or clears (nil) the deposit guest list. Governance
// only, not while paused.
func (v *Vault) SetGuestList(caller common.Address, gl types.GuestList) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}

	v.mu.Lock()
	v.guestList = gl
	v.mu.Unlock()

	v.log.Info("guest list set", zap.Bool("restricted", gl != nil))
	return nil
}

// SetToEarnBps sets the idle fraction retained on earn. Governance only, not
// while paused, bounded by MaxBPS.
func (v *Vault) SetToEarnBps(caller common.Address, bps uint64) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if bps > types.MaxBPS {
		return ErrExcessiveFee
	}

	v.mu.Lock()
	v.toEarnBps = bps
	v.mu.Unlock()

	v.log.Info("toEarnBps set", zap.Uint64("bps", bps))
	return nil
}

// Actor setters. Governance only, not while paused. Strategist is the one
// actor that may be set to zero (disabling strategist fee mints).

func (v *Vault) SetGovernance(caller, addr common.Address) error {
	return v.setActor(caller, RoleGovernance, addr, false, "governance")
}

func (v *Vault) SetStrategist(caller, addr common.Address) error {
	return v.setActor(caller, RoleStrategist, addr, true, "strategist")
}

func (v *Vault) SetKeeper(caller, addr common.Address) error {
	return v.setActor(caller, RoleKeeper, addr, false, "keeper")
}

func (v *Vault) SetGuardian(caller, addr common.Address) error {
	return v.setActor(caller, RoleGuardian, addr, false, "guardian")
}

func (v *Vault) SetTreasury(caller, addr common.Address) error {
	return v.setActor(caller, RoleTreasury, addr, false, "treasury")
}

func (v *Vault) setActor(caller common.Address, role Role, addr common.Address, allowZero bool, name string) error {
	if err := v.onlyGovernance(caller); err != nil {
		return err
	}
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if !allowZero && addr == (common.Address{}) {
		return ErrZeroAddress
	}

	v.access.set(role, addr)
	v.log.Info("actor set", zap.String("role", name), zap.Stringer("address", addr))
	return nil
}

// WithdrawToVault pulls everything back from the strategy into vault custody.
// Governance or strategist. Works even when the strategy refuses new
// deposits.
func (v *Vault) WithdrawToVault(caller common.Address) error {
	if err := v.onlyGovernanceOrStrategist(caller); err != nil {
		return err
	}
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()

	v.mu.RLock()
	strategy := v.strategy
	v.mu.RUnlock()
	if strategy == nil {
		return ErrNoStrategy
	}

	returned, err := strategy.WithdrawAll()
	if err != nil {
		return fmt.Errorf("strategy withdraw all: %w", err)
	}
	v.log.Info("withdrew to vault", zap.String("returned", returned.String()))
	return nil
}

// SweepExtraToken forwards the vault's full balance of a non-core token to
// governance. The vault asset and strategy-protected tokens are rejected.
func (v *Vault) SweepExtraToken(caller, tokenAddr common.Address) error {
	if err := v.onlyGovernanceOrStrategist(caller); err != nil {
		return err
	}
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	if tokenAddr == (common.Address{}) {
		return ErrZeroAddress
	}
	if tokenAddr == v.cfg.Want {
		return ErrNotWant
	}

	v.mu.RLock()
	strategy := v.strategy
	v.mu.RUnlock()
	if strategy != nil {
		for _, protected := range strategy.ProtectedTokens() {
			if tokenAddr == protected {
				return ErrProtectedToken
			}
		}
	}

	tok, ok := v.tokens.Token(tokenAddr)
	if !ok {
		return fmt.Errorf("%s: %w", tokenAddr, ErrUnknownToken)
	}
	balance := tok.BalanceOf(v.cfg.Address)
	if !balance.IsPositive() {
		return nil
	}
	if err := tok.Transfer(v.cfg.Address, v.access.get().Governance, balance); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	v.log.Info("swept extra token",
		zap.Stringer("token", tokenAddr),
		zap.String("amount", balance.String()))
	return nil
}
