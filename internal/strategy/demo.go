// internal/strategy/demo.go
package strategy

import (
	"fmt"
	"sync"
	"sync/atomic"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/token"
	"github.com/settlabs/govault/internal/types"
)

// DefaultMaxDeviationBps is the tolerated withdrawal loss out of the box.
const DefaultMaxDeviationBps = 50

// Demo is a strategy that keeps all capital in its own want balance and
// simulates yield and withdrawal losses. It backs local daemon runs and the
// vault test suite; a production strategy would implement types.Strategy
// against a real venue.
type Demo struct {
	log   *zap.Logger
	addr  common.Address
	want  *token.Token
	vault types.VaultReporter

	governance common.Address
	keeper     common.Address

	paused atomic.Bool

	mu              sync.Mutex
	lossBps         uint64
	maxDeviationBps uint64
	pendingYield    math.Int
	protected       []common.Address
}

var _ types.Strategy = (*Demo)(nil)

// Config wires a demo strategy to its vault.
type Config struct {
	Address    common.Address
	Want       *token.Token
	Vault      types.VaultReporter
	Governance common.Address
	Keeper     common.Address
	// Protected tokens cannot be swept off the vault.
	Protected []common.Address
}

func New(cfg Config, log *zap.Logger) (*Demo, error) {
	if cfg.Want == nil || cfg.Vault == nil {
		return nil, types.ErrZeroAddress
	}
	if cfg.Address == (common.Address{}) || cfg.Governance == (common.Address{}) {
		return nil, types.ErrZeroAddress
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Demo{
		log:             log.Named("strategy"),
		addr:            cfg.Address,
		want:            cfg.Want,
		vault:           cfg.Vault,
		governance:      cfg.Governance,
		keeper:          cfg.Keeper,
		maxDeviationBps: DefaultMaxDeviationBps,
		pendingYield:    math.ZeroInt(),
		protected:       append([]common.Address{cfg.Want.Address()}, cfg.Protected...),
	}, nil
}

func (d *Demo) Address() common.Address { return d.addr }
func (d *Demo) Want() common.Address    { return d.want.Address() }

// Want sitting in the strategy's own account is undeployed; the demo never
// pushes capital into a venue, so its pool is always empty.
func (d *Demo) BalanceOfWant() math.Int { return d.want.BalanceOf(d.addr) }
func (d *Demo) BalanceOfPool() math.Int { return math.ZeroInt() }
func (d *Demo) BalanceOf() math.Int     { return d.BalanceOfWant().Add(d.BalanceOfPool()) }

func (d *Demo) IsTendable() bool { return false }

func (d *Demo) WithdrawalMaxDeviationThreshold() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxDeviationBps
}

func (d *Demo) ProtectedTokens() []common.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]common.Address(nil), d.protected...)
}

// Deposit accepts capital the vault is about to push. Refused while paused.
func (d *Demo) Deposit() error {
	if d.paused.Load() {
		return types.ErrPaused
	}
	return nil
}

// Withdraw releases amount back to the vault, simulating the configured loss.
// A loss beyond the deviation threshold is rejected before any transfer.
func (d *Demo) Withdraw(amount math.Int) (math.Int, error) {
	if !amount.IsPositive() {
		return math.ZeroInt(), types.ErrZeroAmount
	}

	d.mu.Lock()
	lossBps := d.lossBps
	maxDeviation := d.maxDeviationBps
	d.mu.Unlock()

	loss := types.BpsOf(amount, lossBps)
	if loss.GT(types.BpsOf(amount, maxDeviation)) {
		return math.ZeroInt(), types.ErrExcessiveLoss
	}

	vaultAddr := d.vaultAddress()
	if loss.IsPositive() {
		// The loss is realized: those tokens are gone, not stuck here.
		if err := d.want.Burn(d.addr, loss); err != nil {
			return math.ZeroInt(), fmt.Errorf("realize loss: %w", err)
		}
	}
	returned := amount.Sub(loss)
	if err := d.want.Transfer(d.addr, vaultAddr, returned); err != nil {
		return math.ZeroInt(), fmt.Errorf("return want: %w", err)
	}
	return returned, nil
}

// WithdrawAll releases the entire pool back to the vault. Works while paused
// so governance can always evacuate capital.
func (d *Demo) WithdrawAll() (math.Int, error) {
	balance := d.want.BalanceOf(d.addr)
	if !balance.IsPositive() {
		return math.ZeroInt(), nil
	}
	if err := d.want.Transfer(d.addr, d.vaultAddress(), balance); err != nil {
		return math.ZeroInt(), fmt.Errorf("return want: %w", err)
	}
	return balance, nil
}

// Harvest realizes pending yield into the pool and reports it to the vault.
// Authorized actors only; refused while the strategy is paused.
func (d *Demo) Harvest(caller common.Address) error {
	if caller != d.governance && caller != d.keeper {
		return types.ErrUnauthorized
	}
	if d.paused.Load() {
		return types.ErrPaused
	}

	d.mu.Lock()
	gain := d.pendingYield
	d.pendingYield = math.ZeroInt()
	d.mu.Unlock()

	if gain.IsPositive() {
		if err := d.want.Mint(d.addr, gain); err != nil {
			return fmt.Errorf("realize yield: %w", err)
		}
	}
	// Gain is in the pool before reporting; the vault subtracts it to
	// recover the pre-harvest snapshot.
	if err := d.vault.ReportHarvest(d.addr, gain); err != nil {
		return err
	}
	d.log.Info("harvested", zap.String("gain", gain.String()))
	return nil
}

// EmitToken moves amount of an incidental reward token into vault custody
// and reports it. Authorized actors only; refused while paused.
func (d *Demo) EmitToken(caller common.Address, tok *token.Token, amount math.Int) error {
	if caller != d.governance && caller != d.keeper {
		return types.ErrUnauthorized
	}
	if d.paused.Load() {
		return types.ErrPaused
	}
	if tok != nil && amount.IsPositive() {
		if err := tok.Transfer(d.addr, d.vaultAddress(), amount); err != nil {
			return fmt.Errorf("move reward: %w", err)
		}
	}
	var tokenAddr common.Address
	if tok != nil {
		tokenAddr = tok.Address()
	}
	return d.vault.ReportAdditionalToken(d.addr, tokenAddr, amount)
}

// AccrueYield queues yield to be realized by the next harvest.
func (d *Demo) AccrueYield(amount math.Int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pendingYield = d.pendingYield.Add(amount)
}

// SetLossBps configures the simulated withdrawal loss. Governance only.
func (d *Demo) SetLossBps(caller common.Address, bps uint64) error {
	if caller != d.governance {
		return types.ErrUnauthorized
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lossBps = bps
	return nil
}

// SetMaxDeviationBps configures the tolerated withdrawal loss. Governance only.
func (d *Demo) SetMaxDeviationBps(caller common.Address, bps uint64) error {
	if caller != d.governance {
		return types.ErrUnauthorized
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxDeviationBps = bps
	return nil
}

func (d *Demo) Paused() bool { return d.paused.Load() }

func (d *Demo) Pause(caller common.Address) error {
	if caller != d.governance {
		return types.ErrUnauthorized
	}
	d.paused.Store(true)
	return nil
}

func (d *Demo) Unpause(caller common.Address) error {
	if caller != d.governance {
		return types.ErrUnauthorized
	}
	d.paused.Store(false)
	return nil
}

func (d *Demo) vaultAddress() common.Address {
	if v, ok := d.vault.(interface{ Address() common.Address }); ok {
		return v.Address()
	}
	return common.Address{}
}
