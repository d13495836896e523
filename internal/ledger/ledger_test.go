package ledger

import (
	"testing"

	"cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob   = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestMintAndBurn(t *testing.T) {
	l := New()

	require.NoError(t, l.Mint(alice, math.NewInt(100)))
	assert.Equal(t, math.NewInt(100), l.BalanceOf(alice))
	assert.Equal(t, math.NewInt(100), l.TotalSupply())

	require.NoError(t, l.Burn(alice, math.NewInt(40)))
	assert.Equal(t, math.NewInt(60), l.BalanceOf(alice))
	assert.Equal(t, math.NewInt(60), l.TotalSupply())
}

func TestMintToZeroAddress(t *testing.T) {
	l := New()

	err := l.Mint(common.Address{}, math.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidRecipient)
	assert.True(t, l.TotalSupply().IsZero())
}

func TestBurnMoreThanBalance(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(alice, math.NewInt(10)))

	err := l.Burn(alice, math.NewInt(11))
	assert.ErrorIs(t, err, ErrInsufficientShares)

	// No partial effect.
	assert.Equal(t, math.NewInt(10), l.BalanceOf(alice))
	assert.Equal(t, math.NewInt(10), l.TotalSupply())
}

func TestTransfer(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(alice, math.NewInt(100)))

	require.NoError(t, l.Transfer(alice, bob, math.NewInt(30)))
	assert.Equal(t, math.NewInt(70), l.BalanceOf(alice))
	assert.Equal(t, math.NewInt(30), l.BalanceOf(bob))

	// Supply is unchanged by transfers.
	assert.Equal(t, math.NewInt(100), l.TotalSupply())

	err := l.Transfer(alice, bob, math.NewInt(71))
	assert.ErrorIs(t, err, ErrInsufficientShares)

	err = l.Transfer(alice, common.Address{}, math.NewInt(1))
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestConservation(t *testing.T) {
	l := New()

	require.NoError(t, l.Mint(alice, math.NewInt(500)))
	require.NoError(t, l.Mint(bob, math.NewInt(250)))
	require.NoError(t, l.Transfer(alice, bob, math.NewInt(125)))
	require.NoError(t, l.Burn(bob, math.NewInt(75)))

	sum := l.BalanceOf(alice).Add(l.BalanceOf(bob))
	assert.Equal(t, l.TotalSupply(), sum)
}

func TestZeroBalanceRemoved(t *testing.T) {
	l := New()
	require.NoError(t, l.Mint(alice, math.NewInt(5)))
	require.NoError(t, l.Burn(alice, math.NewInt(5)))

	assert.Equal(t, 0, l.Holders())
	assert.True(t, l.BalanceOf(alice).IsZero())
}
