// internal/vault/pause_test.go
package vault

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPauseAuthorization(t *testing.T) {
	f := newFixture(t, FeeRates{})

	assert.ErrorIs(t, f.vault.Pause(rando), ErrUnauthorized)
	assert.ErrorIs(t, f.vault.Pause(keeperAddr), ErrUnauthorized)
	assert.ErrorIs(t, f.vault.Pause(strategist), ErrUnauthorized)

	require.NoError(t, f.vault.Pause(guardianAddr))
	assert.True(t, f.vault.Paused())

	// Only governance releases the breaker.
	assert.ErrorIs(t, f.vault.Unpause(guardianAddr), ErrUnauthorized)
	require.NoError(t, f.vault.Unpause(govAddr))
	assert.False(t, f.vault.Paused())
}

func TestUnpauseWhenNotPaused(t *testing.T) {
	f := newFixture(t, FeeRates{})
	assert.ErrorIs(t, f.vault.Unpause(govAddr), ErrNotPaused)
	assert.ErrorIs(t, f.vault.UnpauseDeposits(govAddr), ErrDepositsNotPaused)
}

func TestGlobalPauseBlocksAccounting(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(500)))
	require.NoError(t, f.vault.Pause(govAddr))

	assert.ErrorIs(t, f.vault.Deposit(alice, math.NewInt(100)), ErrPaused)
	assert.ErrorIs(t, f.vault.DepositAll(alice), ErrPaused)
	assert.ErrorIs(t, f.vault.Withdraw(alice, math.NewInt(100)), ErrPaused)
	assert.ErrorIs(t, f.vault.WithdrawAll(alice), ErrPaused)

	// Earn still works: deployed capital keeps working while withdrawals
	// are frozen.
	require.NoError(t, f.vault.Earn(keeperAddr))
}

func TestDepositPauseBlocksDepositAndEarn(t *testing.T) {
	f := newFixture(t, FeeRates{})
	f.fund(t, alice, 1_000)
	require.NoError(t, f.vault.Deposit(alice, math.NewInt(1_000)))
	require.NoError(t, f.vault.PauseDeposits(guardianAddr))
	assert.True(t, f.vault.DepositsPaused())

	assert.ErrorIs(t, f.vault.Deposit(alice, math.NewInt(1)), ErrDepositsPaused)
	assert.ErrorIs(t, f.vault.Earn(keeperAddr), ErrDepositsPaused)

	// Withdrawals are unaffected.
	require.NoError(t, f.vault.Withdraw(alice, math.NewInt(100)))

	require.NoError(t, f.vault.UnpauseDeposits(govAddr))
	f.fund(t, bob, 100)
	require.NoError(t, f.vault.Deposit(bob, math.NewInt(100)))
}

func TestConfigSettersRejectedWhilePaused(t *testing.T) {
	f := newFixture(t, FeeRates{})
	require.NoError(t, f.vault.Pause(guardianAddr))

	assert.ErrorIs(t, f.vault.SetToEarnBps(govAddr, 100), ErrPaused)
	assert.ErrorIs(t, f.vault.SetKeeper(govAddr, rando), ErrPaused)
	assert.ErrorIs(t, f.vault.SetGuestList(govAddr, nil), ErrPaused)
	assert.ErrorIs(t, f.vault.SetStrategy(govAddr, stratAddr, f.strat), ErrPaused)
}

func TestPauseIsIdempotent(t *testing.T) {
	f := newFixture(t, FeeRates{})
	require.NoError(t, f.vault.Pause(guardianAddr))
	require.NoError(t, f.vault.Pause(govAddr))
	assert.True(t, f.vault.Paused())
}
