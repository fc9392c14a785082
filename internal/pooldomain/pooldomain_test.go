package pooldomain

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
)

func new64(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

// S1 — first deposit sets price.
func TestLpTokensToMintScenarioS1(t *testing.T) {
	toMint, err := LpTokensToMint(0, 0, 1_000_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), toMint)
}

func TestLpTokensToMintZeroSupplyNonZeroOwned(t *testing.T) {
	// Pool has stake-only claim (owned > 0) but no LP has ever minted.
	toMint, err := LpTokensToMint(500, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1500), toMint)
}

func TestLpTokensToMintZeroOwnedNonZeroSupply(t *testing.T) {
	toMint, err := LpTokensToMint(0, 400, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), toMint)
}

func TestLpTokensToMintZeroAmountFails(t *testing.T) {
	_, err := LpTokensToMint(0, 0, 0)
	assert.True(t, poolerr.As(err, poolerr.CodeLiquidityToAddTooLittle))
}

func TestLpTokensToMintProportional(t *testing.T) {
	toMint, err := LpTokensToMint(1_000_000_000, 1_000_000_000, 500_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000_000), toMint)
}

func TestLpTokensToMintNeverExceedsShare(t *testing.T) {
	// to_mint * (owned + amount) <= amount * (supply + to_mint), per §8.5.
	owned, supply := uint64(777_777_777), uint64(333_333_333)
	for _, amount := range []uint64{1, 7, 1_000, 1_234_567, 1_000_000_000} {
		toMint, err := LpTokensToMint(owned, supply, amount)
		if err != nil {
			continue
		}
		lhs := new64(toMint).Mul(new64(owned + amount))
		rhs := new64(amount).Mul(new64(supply + toMint))
		assert.True(t, lhs.Cmp(rhs) <= 0)
	}
}

func TestLamportsToReturnZeroEdgeCases(t *testing.T) {
	got, err := LamportsToReturn(0, 1000, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	got, err = LamportsToReturn(1000, 0, 500)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestLamportsToReturnProportional(t *testing.T) {
	got, err := LamportsToReturn(1_000_000_000, 1_000_000_000, 250_000_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(250_000_000), got)
}

func TestBalanceOwned(t *testing.T) {
	b := Balance{ReservesLamports: 10, IncomingStake: 20, FlashLoaned: 5}
	owned, err := b.Owned()
	require.NoError(t, err)
	assert.Equal(t, uint64(35), owned)
}

func TestBalanceOwnedOverflow(t *testing.T) {
	b := Balance{ReservesLamports: math.MaxUint64, IncomingStake: 1}
	_, err := b.Owned()
	assert.True(t, poolerr.As(err, poolerr.CodeInternalError))
}
