// internal/ledger/ledger.go
package ledger

import (
	"errors"
	"sync"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidRecipient is returned when minting or transferring to the null address.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrInsufficientShares is returned when burning or transferring more shares than held.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Ledger tracks fungible share balances and total supply. Every mutation goes
// through Mint/Burn/Transfer, so sum(balances) == totalSupply holds by
// construction.
type Ledger struct {
	mu          sync.RWMutex
	balances    map[common.Address]math.Int
	totalSupply math.Int
}

func New() *Ledger {
	return &Ledger{
		balances:    make(map[common.Address]math.Int),
		totalSupply: math.ZeroInt(),
	}
}

// Mint credits amount to the recipient and grows total supply.
func (l *Ledger) Mint(to common.Address, amount math.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[to] = l.balanceLocked(to).Add(amount)
	l.totalSupply = l.totalSupply.Add(amount)
	return nil
}

// Burn debits amount from the holder and shrinks total supply.
func (l *Ledger) Burn(from common.Address, amount math.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(from)
	if amount.GT(balance) {
		return ErrInsufficientShares
	}

	l.setLocked(from, balance.Sub(amount))
	l.totalSupply = l.totalSupply.Sub(amount)
	return nil
}

// Transfer moves amount between holders as an atomic debit/credit pair.
func (l *Ledger) Transfer(from, to common.Address, amount math.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(from)
	if amount.GT(balance) {
		return ErrInsufficientShares
	}

	l.setLocked(from, balance.Sub(amount))
	l.balances[to] = l.balanceLocked(to).Add(amount)
	return nil
}

// BalanceOf returns the holder's share balance, zero for unknown holders.
func (l *Ledger) BalanceOf(owner common.Address) math.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(owner)
}

// TotalSupply returns the sum of all holder balances.
func (l *Ledger) TotalSupply() math.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalSupply
}

// Holders returns the number of accounts with a nonzero balance.
func (l *Ledger) Holders() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.balances)
}

func (l *Ledger) balanceLocked(owner common.Address) math.Int {
	if balance, ok := l.balances[owner]; ok {
		return balance
	}
	return math.ZeroInt()
}

func (l *Ledger) setLocked(owner common.Address, balance math.Int) {
	if balance.IsZero() {
		delete(l.balances, owner)
		return
	}
	l.balances[owner] = balance
}
