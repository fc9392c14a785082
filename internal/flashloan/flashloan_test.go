package flashloan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// S6 — flash-loan round-trip.
func TestRepayScenarioS6(t *testing.T) {
	account := Account{LamportsBorrowed: 10_000_000_000}
	flashFee := Fee{FeeRatio: rational.Rational{Num: 1, Denom: 1000}}
	protocol := protocolfee.ProtocolFee{
		FeeRatio:         rational.Rational{Num: 1, Denom: 10},
		ReferrerFeeRatio: rational.Rational{Num: 1, Denom: 2},
	}

	breakdown, err := Repay(account, flashFee, protocol, false)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), breakdown.FlashFee)
	assert.Equal(t, uint64(10_010_000_000), breakdown.RepayLamports)
	assert.Equal(t, uint64(1_000_000), breakdown.ProtocolSplit.ProtocolPayout)
	assert.Equal(t, uint64(9_000_000), breakdown.ProtocolSplit.PoolRetained)
	assert.Equal(t, uint64(0), breakdown.ProtocolSplit.ReferrerCut)
}

func TestTakeOverflowFails(t *testing.T) {
	account := Account{LamportsBorrowed: ^uint64(0)}
	_, err := account.Take(1)
	assert.True(t, poolerr.As(err, poolerr.CodeInternalError))
}

func TestIsActive(t *testing.T) {
	assert.False(t, Account{}.IsActive())
	assert.True(t, Account{LamportsBorrowed: 1}.IsActive())
}

func TestFeeValidate(t *testing.T) {
	assert.NoError(t, Fee{FeeRatio: rational.Rational{Num: 1, Denom: 1000}}.Validate())
	assert.True(t, poolerr.As(Fee{FeeRatio: rational.Rational{Num: 2, Denom: 1}}.Validate(), poolerr.CodeInvalidFee))
}
