// internal/vault/vault.go
package vault

import (
	"fmt"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/events"
	"github.com/settlabs/govault/internal/ledger"
	"github.com/settlabs/govault/internal/types"
)

// DefaultToEarnBps is the fraction of idle want retained in the vault when
// earn deploys capital: 500 bps keeps 5% idle for cheap withdrawals.
const DefaultToEarnBps = 500

// Config is the immutable deployment configuration for a vault instance.
type Config struct {
	// Tokens resolves token addresses; it must resolve Want.
	Tokens types.TokenResolver
	// Want is the address of the single asset this vault custodies.
	Want common.Address
	// Address is the vault's own custody account on the asset token.
	Address common.Address

	Governance common.Address
	Keeper     common.Address
	Guardian   common.Address
	Treasury   common.Address
	// Strategist may be zero; strategist fee mints are then skipped.
	Strategist common.Address
	// Rewards receives forwarded additional reward tokens.
	Rewards common.Address

	// Initial fee rates in bps, each bounded by the default cap.
	PerformanceFeeGovernance uint64
	PerformanceFeeStrategist uint64
	WithdrawalFee            uint64
	ManagementFee            uint64

	// ToEarnBps is the idle fraction retained on earn. Defaults to DefaultToEarnBps.
	ToEarnBps uint64
}

// Vault is a share-based custodial vault: it pools deposits of a single
// asset, issues proportional claim shares, delegates idle capital to a
// strategy and accrues fees as share dilution on harvest reports.
type Vault struct {
	log *zap.Logger
	now func() time.Time
	bus *events.Bus

	tokens types.TokenResolver
	want   types.Token
	cfg    Config
	scale  math.Int

	ledger *ledger.Ledger
	guard  CallGuard
	pause  PauseState
	access accessControl
	fees   feeConfig

	// mu protects the strategy/guest list references, toEarnBps and the
	// harvest audit trail.
	mu           sync.RWMutex
	strategy     types.Strategy
	strategyAddr common.Address
	guestList    types.GuestList
	toEarnBps    uint64

	lastHarvestedAt        time.Time
	lastHarvestAmount      math.Int
	assetsAtLastHarvest    math.Int
	lifeTimeEarned         math.Int
	additionalTokensEarned map[common.Address]math.Int
}

// Option configures optional vault collaborators.
type Option func(*Vault)

// WithLogger attaches a structured logger.
func WithLogger(log *zap.Logger) Option {
	return func(v *Vault) { v.log = log.Named("vault") }
}

// WithClock overrides the time source. Harvest bookkeeping and management fee
// accrual use it.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// WithEventBus attaches an event bus; vault operations publish on it.
func WithEventBus(bus *events.Bus) Option {
	return func(v *Vault) { v.bus = bus }
}

// WithGuestList restricts deposits with a guest list.
func WithGuestList(gl types.GuestList) Option {
	return func(v *Vault) { v.guestList = gl }
}

// New validates the configuration and creates a vault. lastHarvestedAt is
// initialized to construction time, so the first harvest accrues management
// fees from deployment.
func New(cfg Config, opts ...Option) (*Vault, error) {
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token resolver: %w", ErrZeroAddress)
	}
	for name, addr := range map[string]common.Address{
		"want":       cfg.Want,
		"vault":      cfg.Address,
		"governance": cfg.Governance,
		"keeper":     cfg.Keeper,
		"guardian":   cfg.Guardian,
		"treasury":   cfg.Treasury,
		"rewards":    cfg.Rewards,
	} {
		if addr == (common.Address{}) {
			return nil, fmt.Errorf("%s address: %w", name, ErrZeroAddress)
		}
	}
	want, ok := cfg.Tokens.Token(cfg.Want)
	if !ok {
		return nil, fmt.Errorf("want %s: %w", cfg.Want, ErrUnknownToken)
	}
	if cfg.PerformanceFeeGovernance > DefaultMaxPerformanceFee ||
		cfg.PerformanceFeeStrategist > DefaultMaxPerformanceFee ||
		cfg.WithdrawalFee > DefaultMaxWithdrawalFee ||
		cfg.ManagementFee > DefaultMaxManagementFee {
		return nil, ErrExcessiveFee
	}
	if cfg.ToEarnBps > types.MaxBPS {
		return nil, fmt.Errorf("toEarnBps above %d: %w", types.MaxBPS, ErrExcessiveFee)
	}
	toEarn := cfg.ToEarnBps
	if toEarn == 0 {
		toEarn = DefaultToEarnBps
	}

	v := &Vault{
		log:    zap.NewNop(),
		now:    time.Now,
		tokens: cfg.Tokens,
		want:   want,
		cfg:    cfg,
		scale:  pow10(want.Decimals()),
		ledger: ledger.New(),
		access: accessControl{actors: Actors{
			Governance: cfg.Governance,
			Strategist: cfg.Strategist,
			Keeper:     cfg.Keeper,
			Guardian:   cfg.Guardian,
			Treasury:   cfg.Treasury,
			Rewards:    cfg.Rewards,
		}},
		fees: feeConfig{
			rates: FeeRates{
				PerformanceGovernance: cfg.PerformanceFeeGovernance,
				PerformanceStrategist: cfg.PerformanceFeeStrategist,
				Withdrawal:            cfg.WithdrawalFee,
				Management:            cfg.ManagementFee,
			},
			caps: FeeCaps{
				MaxPerformance: DefaultMaxPerformanceFee,
				MaxWithdrawal:  DefaultMaxWithdrawalFee,
				MaxManagement:  DefaultMaxManagementFee,
			},
		},
		toEarnBps:              toEarn,
		lastHarvestAmount:      math.ZeroInt(),
		assetsAtLastHarvest:    math.ZeroInt(),
		lifeTimeEarned:         math.ZeroInt(),
		additionalTokensEarned: make(map[common.Address]math.Int),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.lastHarvestedAt = v.now()

	v.log.Info("vault created",
		zap.Stringer("want", cfg.Want),
		zap.Stringer("governance", cfg.Governance),
		zap.Uint64("performance_fee_governance", cfg.PerformanceFeeGovernance),
		zap.Uint64("performance_fee_strategist", cfg.PerformanceFeeStrategist),
		zap.Uint64("withdrawal_fee", cfg.WithdrawalFee),
		zap.Uint64("management_fee", cfg.ManagementFee))
	return v, nil
}

// Address returns the vault's custody account address.
func (v *Vault) Address() common.Address { return v.cfg.Address }

// WantAddress returns the asset token address.
func (v *Vault) WantAddress() common.Address { return v.cfg.Want }

// TotalSupply returns the total share supply.
func (v *Vault) TotalSupply() math.Int { return v.ledger.TotalSupply() }

// SharesOf returns the holder's share balance.
func (v *Vault) SharesOf(owner common.Address) math.Int { return v.ledger.BalanceOf(owner) }

// TotalAssets aggregates idle want and the strategy's reported balance.
func (v *Vault) TotalAssets() math.Int {
	v.mu.RLock()
	strategy := v.strategy
	v.mu.RUnlock()

	idle := v.want.BalanceOf(v.cfg.Address)
	if strategy == nil {
		return idle
	}
	return idle.Add(strategy.BalanceOf())
}

// Balance is an alias for TotalAssets, matching the exposed read surface.
func (v *Vault) Balance() math.Int { return v.TotalAssets() }

// AssetsOf values the holder's shares at the current exchange rate.
func (v *Vault) AssetsOf(owner common.Address) math.Int {
	supply := v.ledger.TotalSupply()
	if supply.IsZero() {
		return math.ZeroInt()
	}
	return v.ledger.BalanceOf(owner).Mul(v.TotalAssets()).Quo(supply)
}

// PricePerFullShare is the want value of one full share, scaled by
// 10^decimals. An empty vault reports the 1:1 initial rate.
func (v *Vault) PricePerFullShare() math.Int {
	supply := v.ledger.TotalSupply()
	if supply.IsZero() {
		return v.scale
	}
	return v.TotalAssets().Mul(v.scale).Quo(supply)
}

// Available is the idle want above the retained toEarnBps floor, i.e. what
// earn would deploy.
func (v *Vault) Available() math.Int {
	v.mu.RLock()
	toEarn := v.toEarnBps
	v.mu.RUnlock()

	idle := v.want.BalanceOf(v.cfg.Address)
	return idle.Sub(types.BpsOf(idle, toEarn))
}

// ToEarnBps returns the retained idle fraction in bps.
func (v *Vault) ToEarnBps() uint64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.toEarnBps
}

// Deposit pools amount of want from the caller and mints shares to the caller.
func (v *Vault) Deposit(caller common.Address, amount math.Int) error {
	return v.DepositFor(caller, caller, amount)
}

// DepositFor pools amount of want from the depositor and mints shares to the
// recipient.
func (v *Vault) DepositFor(depositor, recipient common.Address, amount math.Int) error {
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	return v.deposit(depositor, recipient, amount)
}

// DepositAll deposits the caller's entire want balance.
func (v *Vault) DepositAll(caller common.Address) error {
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	return v.deposit(caller, caller, v.want.BalanceOf(caller))
}

func (v *Vault) deposit(depositor, recipient common.Address, amount math.Int) error {
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if err := v.pause.requireDepositsNotPaused(); err != nil {
		return err
	}
	if recipient == (common.Address{}) {
		return ErrZeroAddress
	}
	if !amount.IsPositive() {
		return ErrZeroAmount
	}

	v.mu.RLock()
	guestList := v.guestList
	v.mu.RUnlock()
	if guestList != nil && !guestList.IsAuthorized(recipient, amount) {
		return ErrGuestListDenied
	}

	// Exchange rate is captured before custody moves.
	supplyBefore := v.ledger.TotalSupply()
	assetsBefore := v.TotalAssets()

	if err := v.want.TransferFrom(v.cfg.Address, depositor, v.cfg.Address, amount); err != nil {
		return fmt.Errorf("pull want: %w", err)
	}

	shares := amount
	if !supplyBefore.IsZero() {
		shares = amount.Mul(supplyBefore).Quo(assetsBefore)
	}
	if err := v.ledger.Mint(recipient, shares); err != nil {
		return err
	}

	v.log.Debug("deposit",
		zap.Stringer("depositor", depositor),
		zap.Stringer("recipient", recipient),
		zap.String("amount", amount.String()),
		zap.String("shares", shares.String()))
	v.publish(&events.DepositedEvent{
		BaseEvent: v.base(events.Deposited),
		Depositor: depositor,
		Recipient: recipient,
		Amount:    amount,
		Shares:    shares,
	})
	return nil
}

// Withdraw burns shareAmount of the caller's shares and pays out the
// corresponding want, net of the withdrawal fee. Shortfalls are pulled from
// the strategy; losses beyond the strategy's deviation threshold abort the
// whole withdrawal.
func (v *Vault) Withdraw(caller common.Address, shareAmount math.Int) error {
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	return v.withdraw(caller, shareAmount)
}

// WithdrawAll withdraws the caller's entire share balance.
func (v *Vault) WithdrawAll(caller common.Address) error {
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	return v.withdraw(caller, v.ledger.BalanceOf(caller))
}

func (v *Vault) withdraw(caller common.Address, shareAmount math.Int) error {
	if err := v.pause.requireNotPaused(); err != nil {
		return err
	}
	if !shareAmount.IsPositive() {
		return ErrZeroAmount
	}
	if shareAmount.GT(v.ledger.BalanceOf(caller)) {
		return ledger.ErrInsufficientShares
	}

	// Pre-withdrawal snapshot: gross value and the fee-share mint both price
	// against it.
	supplyBefore := v.ledger.TotalSupply()
	assetsBefore := v.TotalAssets()
	value := shareAmount.Mul(assetsBefore).Quo(supplyBefore)

	loss := math.ZeroInt()
	idle := v.want.BalanceOf(v.cfg.Address)
	if value.GT(idle) {
		shortfall := value.Sub(idle)

		v.mu.RLock()
		strategy := v.strategy
		v.mu.RUnlock()
		if strategy == nil {
			return ErrNoStrategy
		}

		returned, err := strategy.Withdraw(shortfall)
		if err != nil {
			return fmt.Errorf("strategy withdraw: %w", err)
		}
		if returned.LT(shortfall) {
			loss = shortfall.Sub(returned)
			if loss.GT(types.BpsOf(shortfall, strategy.WithdrawalMaxDeviationThreshold())) {
				return ErrExcessiveLoss
			}
			// Tolerable loss is absorbed by the withdrawer, not socialized.
			value = idle.Add(returned)
		}
	}

	if err := v.ledger.Burn(caller, shareAmount); err != nil {
		return err
	}

	rates, _ := v.fees.get()
	fee := types.BpsOf(value, rates.Withdrawal)
	if fee.IsPositive() {
		if err := v.mintFeeShares(v.access.get().Treasury, fee, supplyBefore, assetsBefore); err != nil {
			return err
		}
		v.publish(&events.WithdrawalFeeAssessedEvent{
			BaseEvent: v.base(events.WithdrawalFeeAssessed),
			FeeWant:   fee,
			FeeShares: feeShares(fee, supplyBefore, assetsBefore),
		})
	}

	if err := v.want.Transfer(v.cfg.Address, caller, value.Sub(fee)); err != nil {
		return fmt.Errorf("pay out want: %w", err)
	}

	v.log.Debug("withdraw",
		zap.Stringer("owner", caller),
		zap.String("shares", shareAmount.String()),
		zap.String("value", value.String()),
		zap.String("fee", fee.String()),
		zap.String("loss", loss.String()))
	v.publish(&events.WithdrawnEvent{
		BaseEvent:    v.base(events.Withdrawn),
		Owner:        caller,
		SharesBurned: shareAmount,
		Value:        value,
		Fee:          fee,
		Loss:         loss,
	})
	return nil
}

// Earn pushes deployable idle want into the strategy. Authorized actors only.
// The global pause does not gate it, the deposit pause does.
func (v *Vault) Earn(caller common.Address) error {
	if err := v.onlyAuthorizedActors(caller); err != nil {
		return err
	}
	if err := v.guard.Enter(); err != nil {
		return err
	}
	defer v.guard.Exit()
	if err := v.pause.requireDepositsNotPaused(); err != nil {
		return err
	}

	v.mu.RLock()
	strategy := v.strategy
	strategyAddr := v.strategyAddr
	v.mu.RUnlock()

	deployable := v.Available()
	if strategy == nil || !deployable.IsPositive() {
		return nil
	}

	// The strategy accepts (or refuses, e.g. while paused) before custody moves.
	if err := strategy.Deposit(); err != nil {
		return fmt.Errorf("strategy deposit: %w", err)
	}
	if err := v.want.Transfer(v.cfg.Address, strategyAddr, deployable); err != nil {
		return fmt.Errorf("push want: %w", err)
	}

	v.log.Info("earn", zap.String("deployed", deployable.String()))
	v.publish(&events.EarnedEvent{BaseEvent: v.base(events.Earned), Deployed: deployable})
	return nil
}

// mintFeeShares converts a want-denominated fee into shares with the deposit
// formula evaluated against the given snapshot, and mints them.
func (v *Vault) mintFeeShares(recipient common.Address, feeWant, supply, assets math.Int) error {
	shares := feeShares(feeWant, supply, assets)
	if !shares.IsPositive() {
		return nil
	}
	return v.ledger.Mint(recipient, shares)
}

func feeShares(feeWant, supply, assets math.Int) math.Int {
	if !feeWant.IsPositive() {
		return math.ZeroInt()
	}
	if supply.IsZero() {
		return feeWant
	}
	if assets.IsZero() {
		return math.ZeroInt()
	}
	return feeWant.Mul(supply).Quo(assets)
}

func (v *Vault) publish(event events.Event) {
	if v.bus != nil {
		_ = v.bus.Publish(event)
	}
}

func (v *Vault) base(typ events.EventType) events.BaseEvent {
	return events.BaseEvent{EventType: typ, EventTime: v.now()}
}

func pow10(decimals uint8) math.Int {
	result := math.OneInt()
	ten := math.NewInt(10)
	for i := uint8(0); i < decimals; i++ {
		result = result.Mul(ten)
	}
	return result
}
