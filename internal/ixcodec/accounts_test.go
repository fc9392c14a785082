package ixcodec

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

func TestFeeWireRoundTripFlat(t *testing.T) {
	f := fee.Flat(rational.Rational{Num: 1, Denom: 100})
	wire := FeeToWire(f)

	encoded, err := bin.MarshalBorsh(wire)
	require.NoError(t, err)

	var decoded FeeWire
	require.NoError(t, bin.UnmarshalBorsh(&decoded, encoded))
	assert.Equal(t, f, decoded.ToDomain())
}

func TestFeeWireRoundTripLiquidityLinear(t *testing.T) {
	f := fee.LiquidityLinear(
		rational.Rational{Num: 3, Denom: 1000},
		rational.Rational{Num: 30, Denom: 1000},
	)
	wire := FeeToWire(f)

	encoded, err := bin.MarshalBorsh(wire)
	require.NoError(t, err)
	assert.Equal(t, byte(1), encoded[0])

	var decoded FeeWire
	require.NoError(t, bin.UnmarshalBorsh(&decoded, encoded))
	assert.Equal(t, f, decoded.ToDomain())
}

func TestDiscriminatorName(t *testing.T) {
	assert.Equal(t, "unstake", Unstake.Name())
	assert.Equal(t, "take-flash-loan", TakeFlashLoan.Name())
	assert.Equal(t, "", Discriminator{}.Name())
}
