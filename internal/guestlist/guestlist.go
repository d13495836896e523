// internal/guestlist/guestlist.go
package guestlist

import (
	"sync"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/settlabs/govault/internal/types"
)

// GuestList gates vault deposits with a per-user cap and an aggregate cap,
// plus an optional explicit invite set. A guest is authorized when:
//   - the invite set is empty or contains the guest, and
//   - the guest's current vault holdings (in want terms) plus the new amount
//     stay within the user cap, and
//   - total vault assets plus the new amount stay within the total cap.
//
// A nil cap (zero value treated as unset via the Unlimited sentinel) disables
// that check.
type GuestList struct {
	mu       sync.RWMutex
	owner    common.Address
	vault    types.VaultView
	userCap  math.Int
	totalCap math.Int
	guests   map[common.Address]bool
}

var _ types.GuestList = (*GuestList)(nil)

// Unlimited disables a cap.
var Unlimited = math.Int{}

// New creates a guest list bound to a vault view. The owner controls caps and
// invites.
func New(owner common.Address, vault types.VaultView) *GuestList {
	return &GuestList{
		owner:    owner,
		vault:    vault,
		userCap:  Unlimited,
		totalCap: Unlimited,
		guests:   make(map[common.Address]bool),
	}
}

// SetUserDepositCap sets the per-user cap in want units.
func (g *GuestList) SetUserDepositCap(caller common.Address, cap math.Int) error {
	if caller != g.owner {
		return types.ErrUnauthorized
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.userCap = cap
	return nil
}

// SetTotalDepositCap sets the aggregate cap in want units.
func (g *GuestList) SetTotalDepositCap(caller common.Address, cap math.Int) error {
	if caller != g.owner {
		return types.ErrUnauthorized
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.totalCap = cap
	return nil
}

// Invite adds guests to the explicit invite set. Once the set is non-empty,
// only invited guests may deposit.
func (g *GuestList) Invite(caller common.Address, guests ...common.Address) error {
	if caller != g.owner {
		return types.ErrUnauthorized
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, guest := range guests {
		g.guests[guest] = true
	}
	return nil
}

// Remove drops guests from the invite set.
func (g *GuestList) Remove(caller common.Address, guests ...common.Address) error {
	if caller != g.owner {
		return types.ErrUnauthorized
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, guest := range guests {
		delete(g.guests, guest)
	}
	return nil
}

// IsAuthorized reports whether the guest may deposit amount of want.
func (g *GuestList) IsAuthorized(guest common.Address, amount math.Int) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.guests) > 0 && !g.guests[guest] {
		return false
	}
	if !g.userCap.IsNil() {
		if g.vault.AssetsOf(guest).Add(amount).GT(g.userCap) {
			return false
		}
	}
	if !g.totalCap.IsNil() {
		if g.vault.TotalAssets().Add(amount).GT(g.totalCap) {
			return false
		}
	}
	return true
}
