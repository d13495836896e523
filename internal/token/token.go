// internal/token/token.go
package token

import (
	"crypto/sha256"
	"errors"
	"sync"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/settlabs/govault/internal/types"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's balance.
	ErrInsufficientBalance = errors.New("insufficient token balance")

	// ErrInsufficientAllowance is returned when a spender exceeds its approval.
	ErrInsufficientAllowance = errors.New("insufficient allowance")

	// ErrInvalidRecipient is returned when transferring to the null address.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("invalid amount")
)

// Token is an in-memory fungible token with standard balance, transfer and
// allowance semantics. The vault only consumes the types.Token interface; this
// implementation backs local runs and tests.
type Token struct {
	mu         sync.RWMutex
	addr       common.Address
	name       string
	symbol     string
	decimals   uint8
	balances   map[common.Address]math.Int
	allowances map[common.Address]map[common.Address]math.Int
}

var _ types.Token = (*Token)(nil)

func (t *Token) Address() common.Address { return t.addr }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }
func (t *Token) Decimals() uint8         { return t.decimals }

func (t *Token) BalanceOf(owner common.Address) math.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceLocked(owner)
}

// Mint credits freshly created tokens to the recipient. Faucet path for local
// runs and tests; a deployed asset token would not expose this.
func (t *Token) Mint(to common.Address, amount math.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[to] = t.balanceLocked(to).Add(amount)
	return nil
}

// Burn destroys amount of the holder's tokens.
func (t *Token) Burn(from common.Address, amount math.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	balance := t.balanceLocked(from)
	if amount.GT(balance) {
		return ErrInsufficientBalance
	}
	t.balances[from] = balance.Sub(amount)
	return nil
}

// Transfer moves amount from one holder to another. All-or-nothing.
func (t *Token) Transfer(from, to common.Address, amount math.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transferLocked(from, to, amount)
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming the spender's allowance.
func (t *Token) TransferFrom(spender, owner, to common.Address, amount math.Int) error {
	if to == (common.Address{}) {
		return ErrInvalidRecipient
	}
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	allowance := t.allowanceLocked(owner, spender)
	if amount.GT(allowance) {
		return ErrInsufficientAllowance
	}
	if err := t.transferLocked(owner, to, amount); err != nil {
		return err
	}
	t.allowances[owner][spender] = allowance.Sub(amount)
	return nil
}

func (t *Token) Approve(owner, spender common.Address, amount math.Int) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]math.Int)
	}
	t.allowances[owner][spender] = amount
	return nil
}

func (t *Token) Allowance(owner, spender common.Address) math.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowanceLocked(owner, spender)
}

func (t *Token) transferLocked(from, to common.Address, amount math.Int) error {
	balance := t.balanceLocked(from)
	if amount.GT(balance) {
		return ErrInsufficientBalance
	}
	t.balances[from] = balance.Sub(amount)
	t.balances[to] = t.balanceLocked(to).Add(amount)
	return nil
}

func (t *Token) balanceLocked(owner common.Address) math.Int {
	if balance, ok := t.balances[owner]; ok {
		return balance
	}
	return math.ZeroInt()
}

func (t *Token) allowanceLocked(owner, spender common.Address) math.Int {
	if spenders, ok := t.allowances[owner]; ok {
		if allowance, ok := spenders[spender]; ok {
			return allowance
		}
	}
	return math.ZeroInt()
}

// Registry deploys tokens and resolves them by address.
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]*Token
	nonce  uint64
}

var _ types.TokenResolver = (*Registry)(nil)

func NewRegistry() *Registry {
	return &Registry{tokens: make(map[common.Address]*Token)}
}

// Deploy creates a token at a deterministic address derived from its symbol
// and a registry nonce.
func (r *Registry) Deploy(name, symbol string, decimals uint8) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nonce++
	hash := sha256.Sum256(append([]byte(symbol), byte(r.nonce)))
	addr := common.BytesToAddress(hash[12:])

	t := &Token{
		addr:       addr,
		name:       name,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]math.Int),
		allowances: make(map[common.Address]map[common.Address]math.Int),
	}
	r.tokens[addr] = t
	return t
}

func (r *Registry) Token(addr common.Address) (types.Token, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[addr]
	if !ok {
		return nil, false
	}
	return t, true
}
