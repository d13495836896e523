// internal/vault/access.go
package vault

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Role identifies an authorization tier.
type Role int

const (
	RoleGovernance Role = iota
	RoleStrategist
	RoleKeeper
	RoleGuardian
	RoleTreasury
)

// Actors holds the vault's privileged addresses. Strategist may be zero, in
// which case strategist fee mints are skipped.
type Actors struct {
	Governance common.Address
	Strategist common.Address
	Keeper     common.Address
	Guardian   common.Address
	Treasury   common.Address
	Rewards    common.Address
}

type accessControl struct {
	mu     sync.RWMutex
	actors Actors
}

func (a *accessControl) get() Actors {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.actors
}

func (a *accessControl) set(role Role, addr common.Address) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch role {
	case RoleGovernance:
		a.actors.Governance = addr
	case RoleStrategist:
		a.actors.Strategist = addr
	case RoleKeeper:
		a.actors.Keeper = addr
	case RoleGuardian:
		a.actors.Guardian = addr
	case RoleTreasury:
		a.actors.Treasury = addr
	}
}

// Authorization predicates. These run before any argument validation.

func (v *Vault) onlyGovernance(caller common.Address) error {
	if caller != v.access.get().Governance {
		return ErrUnauthorized
	}
	return nil
}

func (v *Vault) onlyGovernanceOrStrategist(caller common.Address) error {
	actors := v.access.get()
	if caller != actors.Governance && (actors.Strategist == (common.Address{}) || caller != actors.Strategist) {
		return ErrUnauthorized
	}
	return nil
}

// onlyAuthorizedActors covers governance and the keeper.
func (v *Vault) onlyAuthorizedActors(caller common.Address) error {
	actors := v.access.get()
	if caller != actors.Governance && caller != actors.Keeper {
		return ErrUnauthorized
	}
	return nil
}

func (v *Vault) onlyGuardianOrGovernance(caller common.Address) error {
	actors := v.access.get()
	if caller != actors.Governance && caller != actors.Guardian {
		return ErrUnauthorized
	}
	return nil
}

func (v *Vault) onlyStrategy(caller common.Address) error {
	v.mu.RLock()
	strategyAddr := v.strategyAddr
	v.mu.RUnlock()
	if strategyAddr == (common.Address{}) || caller != strategyAddr {
		return ErrUnauthorized
	}
	return nil
}

// Actors returns the current privileged addresses.
func (v *Vault) Actors() Actors { return v.access.get() }
