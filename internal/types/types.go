// internal/types/types.go
package types

import (
	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// MaxBPS is the basis-point denominator: 10_000 bps == 100%.
const MaxBPS = 10_000

// SecondsPerYear is the average Gregorian year, used for management fee accrual.
const SecondsPerYear = 31_556_952

// ZeroAddress is the null address. An unset actor or collaborator compares equal to it.
var ZeroAddress = common.Address{}

// BpsOf returns amount * bps / MaxBPS with floor division.
func BpsOf(amount math.Int, bps uint64) math.Int {
	if bps == 0 || amount.IsZero() {
		return math.ZeroInt()
	}
	return amount.MulRaw(int64(bps)).QuoRaw(MaxBPS)
}

// Token is the fungible-asset collaborator consumed by the vault. Transfers
// either fully succeed or return an error with no balance change.
type Token interface {
	Decimals() uint8
	BalanceOf(owner common.Address) math.Int
	Transfer(from, to common.Address, amount math.Int) error
	TransferFrom(spender, owner, to common.Address, amount math.Int) error
	Approve(owner, spender common.Address, amount math.Int) error
	Allowance(owner, spender common.Address) math.Int
}

// TokenResolver looks up a token by its address. The vault uses it to move
// incidental reward tokens reported by the strategy.
type TokenResolver interface {
	Token(addr common.Address) (Token, bool)
}

// Strategy is the one-directional view of the yield strategy consumed by the
// vault. The strategy holds a VaultReporter capability for the reverse path.
type Strategy interface {
	Want() common.Address
	BalanceOfWant() math.Int
	BalanceOfPool() math.Int
	// BalanceOf is the strategy's total holdings: want + pool.
	BalanceOf() math.Int
	// Deposit acknowledges idle want pushed by the vault's earn. It must fail
	// without side effects when the strategy cannot accept capital.
	Deposit() error
	// Withdraw releases up to amount of want back to the vault and returns the
	// amount actually released. Implementations must reject (not settle)
	// withdrawals whose realized loss exceeds the deviation threshold.
	Withdraw(amount math.Int) (math.Int, error)
	WithdrawAll() (math.Int, error)
	IsTendable() bool
	// WithdrawalMaxDeviationThreshold is the tolerated withdrawal loss in bps.
	WithdrawalMaxDeviationThreshold() uint64
	ProtectedTokens() []common.Address
}

// VaultReporter is the one-directional view of the vault consumed by the
// strategy for harvest callbacks.
type VaultReporter interface {
	ReportHarvest(caller common.Address, gain math.Int) error
	ReportAdditionalToken(caller, token common.Address, amount math.Int) error
}

// GuestList gates deposit eligibility. A nil guest list on the vault means
// unrestricted admission.
type GuestList interface {
	IsAuthorized(guest common.Address, amount math.Int) bool
}

// VaultView exposes the read surface a guest list needs for its cap checks.
type VaultView interface {
	TotalAssets() math.Int
	AssetsOf(owner common.Address) math.Int
}
