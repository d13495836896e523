// internal/vault/vault_test.go
package vault

import (
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/ledger"
	"github.com/settlabs/govault/internal/strategy"
	"github.com/settlabs/govault/internal/token"
	"github.com/settlabs/govault/internal/types"
)

var (
	govAddr      = common.HexToAddress("0x1000000000000000000000000000000000000001")
	strategist   = common.HexToAddress("0x1000000000000000000000000000000000000002")
	keeperAddr   = common.HexToAddress("0x1000000000000000000000000000000000000003")
	guardianAddr = common.HexToAddress("0x1000000000000000000000000000000000000004")
	treasuryAddr = common.HexToAddress("0x1000000000000000000000000000000000000005")
	rewardsAddr  = common.HexToAddress("0x1000000000000000000000000000000000000006")
	vaultAddr    = common.HexToAddress("0x2000000000000000000000000000000000000001")
	stratAddr    = common.HexToAddress("0x2000000000000000000000000000000000000002")
	alice        = common.HexToAddress("0x3000000000000000000000000000000000000001")
	bob          = common.HexToAddress("0x3000000000000000000000000000000000000002")
	rando        = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	registry *token.Registry
	want     *token.Token
	vault    *Vault
	strat    *strategy.Demo
	clock    *fakeClock
}

// newFixture builds a vault with the given fee rates and a demo strategy
// already registered.
func newFixture(t *testing.T, fees FeeRates) *fixture {
	t.Helper()
	f := newFixtureNoStrategy(t, fees)

	strat, err := strategy.New(strategy.Config{
		Address:    stratAddr,
		Want:       f.want,
		Vault:      f.vault,
		Governance: govAddr,
		Keeper:     keeperAddr,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, f.vault.SetStrategy(govAddr, stratAddr, strat))
	f.strat = strat
	return f
}

func newFixtureNoStrategy(t *testing.T, fees FeeRates) *fixture {
	t.Helper()
	registry := token.NewRegistry()
	want := registry.Deploy("Wrapped BTC", "WBTC", 8)
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}

	v, err := New(Config{
		Tokens:                   registry,
		Want:                     want.Address(),
		Address:                  vaultAddr,
		Governance:               govAddr,
		Strategist:               strategist,
		Keeper:                   keeperAddr,
		Guardian:                 guardianAddr,
		Treasury:                 treasuryAddr,
		Rewards:                  rewardsAddr,
		PerformanceFeeGovernance: fees.PerformanceGovernance,
		PerformanceFeeStrategist: fees.PerformanceStrategist,
		WithdrawalFee:            fees.Withdrawal,
		ManagementFee:            fees.Management,
	}, WithClock(clock.Now))
	require.NoError(t, err)

	return &fixture{registry: registry, want: want, vault: v, clock: clock}
}

// fund mints want to the holder and approves the vault to pull it.
func (f *fixture) fund(t *testing.T, holder common.Address, amount int64) {
	t.Helper()
	require.NoError(t, f.want.Mint(holder, math.NewInt(amount)))
	require.NoError(t, f.want.Approve(holder, vaultAddr, math.NewInt(amount)))
}

func TestNewValidatesConfig(t *testing.T) {
	registry := token.NewRegistry()
	want := registry.Deploy("Wrapped BTC", "WBTC", 8)

	base := Config{
		Tokens:     registry,
		Want:       want.Address(),
		Address:    vaultAddr,
		Governance: govAddr,
		Keeper:     keeperAddr,
		Guardian:   guardianAddr,
		Treasury:   treasuryAddr,
		Rewards:    rewardsAddr,
	}

	_, err := New(base)
	require.NoError(t, err)

	missing := base
	missing.Treasury = common.Address{}
	_, err = New(missing)
	assert.ErrorIs(t, err, ErrZeroAddress)

	unknown := base
	unknown.Want = common.HexToAddress("0xdead")
	_, err = New(unknown)
	assert.ErrorIs(t, err, ErrUnknownToken)

	excessive := base
	excessive.WithdrawalFee = DefaultMaxWithdrawalFee + 1
	_, err = New(excessive)
	assert.ErrorIs(t, err, ErrExcessiveFee)
}

func TestFirstDepositMintsOneToOne(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)

	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))

	assert.Equal(t, math.NewInt(10_000), f.vault.SharesOf(alice))
	assert.Equal(t, math.NewInt(10_000), f.vault.TotalSupply())
	assert.Equal(t, math.NewInt(10_000), f.vault.TotalAssets())
	// 1:1 rate at 8 decimals.
	assert.Equal(t, math.NewInt(100_000_000), f.vault.PricePerFullShare())
}

func TestSecondDepositProportionalAfterGain(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))

	// Simulated gain lands in vault custody.
	require.NoError(t, f.want.Mint(vaultAddr, math.NewInt(500)))

	f.fund(t, bob, 300)
	require.NoError(t, f.vault.Deposit(bob, math.NewInt(300)))

	// 300 * 1000 / 1500
	assert.Equal(t, math.NewInt(200), f.vault.SharesOf(bob))
	assert.Equal(t, math.NewInt(1_200), f.vault.TotalSupply())
	assert.Equal(t, math.NewInt(1_800), f.vault.TotalAssets())
	// ppfs 1.5
	assert.Equal(t, math.NewInt(150_000_000), f.vault.PricePerFullShare())
}

func TestDepositValidation(t *testing.T) {
	f := newFixture(t, FeeRates{})

	assert.ErrorIs(t, f.vault.Deposit(alice, math.ZeroInt()), ErrZeroAmount)
	assert.ErrorIs(t, f.vault.DepositFor(alice, common.Address{}, math.NewInt(1)), ErrZeroAddress)

	// No allowance: custody pull fails, nothing minted.
	require.NoError(t, f.want.Mint(alice, math.NewInt(100)))
	assert.ErrorIs(t, f.vault.Deposit(alice, math.NewInt(100)), token.ErrInsufficientAllowance)
	assert.True(t, f.vault.SharesOf(alice).IsZero())
}

func TestDepositForMintsToRecipient(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 500)

	require.NoError(t, f.vault.DepositFor(alice, bob, math.NewInt(500)))

	assert.True(t, f.vault.SharesOf(alice).IsZero())
	assert.Equal(t, math.NewInt(500), f.vault.SharesOf(bob))
}

func TestDepositAll(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 750)

	require.NoError(t, f.vault.DepositAll(alice))

	assert.Equal(t, math.NewInt(750), f.vault.SharesOf(alice))
	assert.True(t, f.want.BalanceOf(alice).IsZero())
}

func TestWithdrawFromIdle(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))

	require.NoError(t, f.vault.Withdraw(alice, math.NewInt(4_000)))

	assert.Equal(t, math.NewInt(4_000), f.want.BalanceOf(alice))
	assert.Equal(t, math.NewInt(6_000), f.vault.SharesOf(alice))
	assert.Equal(t, math.NewInt(6_000), f.vault.TotalAssets())
}

func TestWithdrawalFeeMintsTreasuryShares(t *testing.T) {
	f := newFixture(t, FeeRates{Withdrawal: 50})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))

	require.NoError(t, f.vault.WithdrawAll(alice))

	// 50 bps of the gross value, paid as shares priced off the
	// pre-withdrawal snapshot.
	assert.Equal(t, math.NewInt(9_950), f.want.BalanceOf(alice))
	assert.Equal(t, math.NewInt(50), f.vault.SharesOf(treasuryAddr))
	assert.Equal(t, math.NewInt(50), f.vault.TotalAssets())
	// Treasury's shares are fully backed.
	assert.Equal(t, math.NewInt(100_000_000), f.vault.PricePerFullShare())
}

func TestWithdrawMoreThanBalance(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 100)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(100)))

	err := f.vault.Withdraw(alice, math.NewInt(101))
	assert.ErrorIs(t, err, ledger.ErrInsufficientShares)
	assert.Equal(t, math.NewInt(100), f.vault.SharesOf(alice))
}

func TestWithdrawPullsShortfallFromStrategy(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))
	require.NoError(t, f.vault.Earn(keeperAddr))

	// 500 bps retained: 9_500 deployed, 500 idle.
	assert.Equal(t, math.NewInt(9_500), f.strat.BalanceOf())

	require.NoError(t, f.vault.WithdrawAll(alice))

	assert.Equal(t, math.NewInt(10_000), f.want.BalanceOf(alice))
	assert.True(t, f.vault.TotalSupply().IsZero())
	assert.True(t, f.strat.BalanceOf().IsZero())
}

func TestWithdrawWithoutStrategyMarksDownExchangeRate(t *testing.T) {
	f := newFixtureNoStrategy(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))

	// With no strategy the idle balance IS the asset base, so a custody
	// loss marks every share down instead of producing a shortfall.
	require.NoError(t, f.want.Burn(vaultAddr, math.NewInt(600)))

	require.NoError(t, f.vault.WithdrawAll(alice))
	assert.Equal(t, math.NewInt(400), f.want.BalanceOf(alice))
	assert.True(t, f.vault.TotalSupply().IsZero())
	assert.True(t, f.want.BalanceOf(vaultAddr).IsZero())
}

func TestWithdrawAbsorbsTolerableLoss(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))
	require.NoError(t, f.vault.Earn(keeperAddr))
	require.NoError(t, f.strat.SetLossBps(govAddr, 50))

	require.NoError(t, f.vault.WithdrawAll(alice))

	// Shortfall 9_500, loss 47 (floor of 50 bps), withdrawer absorbs it.
	assert.Equal(t, math.NewInt(9_953), f.want.BalanceOf(alice))
	assert.True(t, f.vault.TotalSupply().IsZero())
}

func TestWithdrawAbortsOnExcessiveLoss(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))
	require.NoError(t, f.vault.Earn(keeperAddr))
	require.NoError(t, f.strat.SetLossBps(govAddr, 100))

	err := f.vault.WithdrawAll(alice)
	assert.ErrorIs(t, err, ErrExcessiveLoss)

	// Nothing settled.
	assert.Equal(t, math.NewInt(10_000), f.vault.SharesOf(alice))
	assert.Equal(t, math.NewInt(9_500), f.strat.BalanceOf())
	assert.True(t, f.want.BalanceOf(alice).IsZero())
}

func TestEarnRetainsToEarnFraction(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 10_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(10_000)))

	assert.Equal(t, math.NewInt(9_500), f.vault.Available())
	require.NoError(t, f.vault.Earn(keeperAddr))

	assert.Equal(t, math.NewInt(500), f.want.BalanceOf(vaultAddr))
	assert.Equal(t, math.NewInt(9_500), f.strat.BalanceOf())
	// Total assets unchanged by deployment.
	assert.Equal(t, math.NewInt(10_000), f.vault.TotalAssets())

	// Each earn deploys the deployable fraction of whatever idle remains.
	require.NoError(t, f.vault.Earn(govAddr))
	assert.Equal(t, math.NewInt(25), f.want.BalanceOf(vaultAddr))
	assert.Equal(t, math.NewInt(9_975), f.strat.BalanceOf())
}

func TestEarnAuthorization(t *testing.T) {
	f := newFixture(t, FeeRates{})
	assert.ErrorIs(t, f.vault.Earn(rando), ErrUnauthorized)
	assert.ErrorIs(t, f.vault.Earn(strategist), ErrUnauthorized)
}

func TestEarnWithoutStrategyIsNoop(t *testing.T) {
	f := newFixtureNoStrategy(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))

	require.NoError(t, f.vault.Earn(keeperAddr))
	assert.Equal(t, math.NewInt(1_000), f.want.BalanceOf(vaultAddr))
}

func TestEarnRefusedByPausedStrategy(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))
	require.NoError(t, f.strat.Pause(govAddr))

	err := f.vault.Earn(keeperAddr)
	assert.ErrorIs(t, err, types.ErrPaused)
	assert.Equal(t, math.NewInt(1_000), f.want.BalanceOf(vaultAddr))
}

func TestAssetsOfTracksExchangeRate(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))

	assert.Equal(t, math.NewInt(1_000), f.vault.AssetsOf(alice))

	require.NoError(t, f.want.Mint(vaultAddr, math.NewInt(250)))
	assert.Equal(t, math.NewInt(1_250), f.vault.AssetsOf(alice))
	assert.True(t, f.vault.AssetsOf(bob).IsZero())
}

// reentrantToken calls back into the vault from inside a custody pull.
type reentrantToken struct {
	*token.Token
	vault    *Vault
	attacker common.Address
	captured error
}

func (rt *reentrantToken) TransferFrom(spender, owner, to common.Address, amount math.Int) error {
	rt.captured = rt.vault.Deposit(rt.attacker, amount)
	return rt.Token.TransferFrom(spender, owner, to, amount)
}

type singleResolver struct {
	addr common.Address
	tok  types.Token
}

func (r *singleResolver) Token(addr common.Address) (types.Token, bool) {
	if addr == r.addr {
		return r.tok, true
	}
	return nil, false
}

func TestDepositReentrancyRejected(t *testing.T) {
	registry := token.NewRegistry()
	inner := registry.Deploy("Wrapped BTC", "WBTC", 8)
	rt := &reentrantToken{Token: inner, attacker: alice}

	v, err := New(Config{
		Tokens:     &singleResolver{addr: inner.Address(), tok: rt},
		Want:       inner.Address(),
		Address:    vaultAddr,
		Governance: govAddr,
		Keeper:     keeperAddr,
		Guardian:   guardianAddr,
		Treasury:   treasuryAddr,
		Rewards:    rewardsAddr,
	})
	require.NoError(t, err)
	rt.vault = v

	require.NoError(t, inner.Mint(alice, math.NewInt(1_000)))
	require.NoError(t, inner.Approve(alice, vaultAddr, math.NewInt(1_000)))

	require.NoError(t, v.Deposit(alice, math.NewInt(1_000)))
	assert.ErrorIs(t, rt.captured, ErrReentrantCall)
	// Only the outer deposit minted.
	assert.Equal(t, math.NewInt(1_000), v.SharesOf(alice))
}
