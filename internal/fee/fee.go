// Package fee implements the unstake fee models (§4.2 of the pool spec):
// a flat ratio, and a piecewise-linear ratio against remaining liquidity,
// plus their validation and inverse.
package fee

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// u64d lifts a uint64 lamport amount into a decimal.Decimal without the
// int64 overflow a naive NewFromInt(int64(v)) would hit above MaxInt64.
func u64d(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// Balance is the pool balance snapshot a fee calculation is evaluated
// against.
type Balance struct {
	IncomingStake   uint64
	ReservesLamports uint64
}

// Owned returns the pool's total claim excluding flash-loaned lamports:
// incoming stake plus reserves.
func (b Balance) Owned() uint64 {
	return b.IncomingStake + b.ReservesLamports
}

// Kind tags which fee model a Fee holds.
type Kind uint8

const (
	KindFlat Kind = iota
	KindLiquidityLinear
)

// Fee is the tagged union of unstake fee models. Exactly one of the two
// parameter sets is meaningful, selected by Kind.
type Fee struct {
	Kind Kind

	// Flat
	Ratio rational.Rational

	// LiquidityLinear
	MaxLiqRemaining  rational.Rational
	ZeroLiqRemaining rational.Rational
}

// Flat constructs a flat-ratio fee.
func Flat(ratio rational.Rational) Fee {
	return Fee{Kind: KindFlat, Ratio: ratio}
}

// LiquidityLinear constructs a liquidity-linear fee.
func LiquidityLinear(maxLiqRemaining, zeroLiqRemaining rational.Rational) Fee {
	return Fee{Kind: KindLiquidityLinear, MaxLiqRemaining: maxLiqRemaining, ZeroLiqRemaining: zeroLiqRemaining}
}

// Validate enforces §4.8/§3's invariants: ratios must be valid rationals
// no greater than one, and for LiquidityLinear, max_liq_remaining must be
// <= zero_liq_remaining (cross-multiplied, never divided).
func (f Fee) Validate() error {
	switch f.Kind {
	case KindFlat:
		if !f.Ratio.IsValid() || !f.Ratio.IsLteOne() {
			return poolerr.ErrInvalidFee
		}
		return nil
	case KindLiquidityLinear:
		if !f.MaxLiqRemaining.IsValid() || !f.MaxLiqRemaining.IsLteOne() {
			return poolerr.ErrInvalidFee
		}
		if !f.ZeroLiqRemaining.IsValid() || !f.ZeroLiqRemaining.IsLteOne() {
			return poolerr.ErrInvalidFee
		}
		if f.MaxLiqRemaining.Cmp(f.ZeroLiqRemaining) > 0 {
			return poolerr.ErrInvalidFee
		}
		return nil
	default:
		return poolerr.ErrInvalidFee
	}
}

// Apply computes the fee in lamports to deduct from stakeAccountLamports
// given the current pool balance, per §4.2. The caller still receives
// stakeAccountLamports - fee.
func (f Fee) Apply(balance Balance, stakeAccountLamports uint64) (uint64, error) {
	switch f.Kind {
	case KindFlat:
		lamports, ok := f.Ratio.CeilMul(stakeAccountLamports)
		if !ok {
			return 0, poolerr.ErrInternalError
		}
		return lamports, nil
	case KindLiquidityLinear:
		y, err := f.liqLinearRatio(balance, stakeAccountLamports)
		if err != nil {
			return 0, err
		}
		return ceilMulDecimal(y, stakeAccountLamports)
	default:
		return 0, poolerr.ErrInternalError
	}
}

// Inverse finds a stakeAccountLamports S such that
// S - Apply(balance, S) == lamportsAfterFee, per §4.2's "pseudo reverse".
func (f Fee) Inverse(balance Balance, lamportsAfterFee uint64) (uint64, error) {
	switch f.Kind {
	case KindFlat:
		ratio, ok := f.Ratio.ToFixedPoint()
		if !ok {
			return 0, poolerr.ErrInternalError
		}
		invertBy := decimal.NewFromInt(1).Sub(ratio)
		if invertBy.Sign() <= 0 {
			return 0, poolerr.ErrInternalError
		}
		return ceilDivDecimal(u64d(lamportsAfterFee), invertBy)
	case KindLiquidityLinear:
		y, err := f.liqLinearReverseRatio(balance, lamportsAfterFee)
		if err != nil {
			return 0, err
		}
		invertBy := decimal.NewFromInt(1).Sub(y)
		if invertBy.Sign() <= 0 {
			return 0, poolerr.ErrInternalError
		}
		return ceilDivDecimal(u64d(lamportsAfterFee), invertBy)
	default:
		return 0, poolerr.ErrInternalError
	}
}

// liqLinearParams returns the y-intercept (c) and slope (m = (zero-max)/owned)
// of the fee-ratio line described in §4.2.
func (f Fee) liqLinearParams(balance Balance) (maxLiqFee, slopeNum, slopeDenom decimal.Decimal, err error) {
	zeroLiqFee, ok := f.ZeroLiqRemaining.ToFixedPoint()
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, decimal.Decimal{}, poolerr.ErrInternalError
	}
	maxLiqFee, ok = f.MaxLiqRemaining.ToFixedPoint()
	if !ok {
		return decimal.Decimal{}, decimal.Decimal{}, decimal.Decimal{}, poolerr.ErrInternalError
	}
	owned := balance.Owned()
	slopeNum = zeroLiqFee.Sub(maxLiqFee)
	slopeDenom = u64d(owned)
	return maxLiqFee, slopeNum, slopeDenom, nil
}

// liqLinearRatio computes y = (m(I+S) + c) / (1 + mS), rearranged per
// §4.2 as (I + S + c/m) / (1/m + S) to preserve precision when m is tiny.
func (f Fee) liqLinearRatio(balance Balance, stakeAccountLamports uint64) (decimal.Decimal, error) {
	maxLiqFee, slopeNum, slopeDenom, err := f.liqLinearParams(balance)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if slopeNum.IsZero() {
		// m == 0: flat fee ratio equal to max_liq_remaining == zero_liq_remaining.
		return maxLiqFee, nil
	}

	incomingPlusStake := u64d(balance.IncomingStake).Add(u64d(stakeAccountLamports))
	inverseSlope := slopeDenom.DivRound(slopeNum, 30)

	cOverM := slopeDenom.Mul(maxLiqFee).DivRound(slopeNum, 30)
	numerator := cOverM.Add(incomingPlusStake)
	denominator := inverseSlope.Add(u64d(stakeAccountLamports))
	if denominator.Sign() == 0 {
		return decimal.Decimal{}, poolerr.ErrInternalError
	}
	return numerator.DivRound(denominator, 30), nil
}

// liqLinearReverseRatio computes y = m(I+z) + c for the inverse path,
// per §4.2.
func (f Fee) liqLinearReverseRatio(balance Balance, lamportsAfterFee uint64) (decimal.Decimal, error) {
	maxLiqFee, slopeNum, slopeDenom, err := f.liqLinearParams(balance)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if slopeDenom.Sign() == 0 {
		return decimal.Decimal{}, poolerr.ErrInternalError
	}
	incomingPlusAfterFee := u64d(balance.IncomingStake).Add(u64d(lamportsAfterFee))
	y := slopeNum.Mul(incomingPlusAfterFee).DivRound(slopeDenom, 30).Add(maxLiqFee)
	return y, nil
}

func ceilMulDecimal(ratio decimal.Decimal, v uint64) (uint64, error) {
	product := ratio.Mul(u64d(v))
	ceil := product.Ceil()
	if ceil.Sign() < 0 {
		return 0, poolerr.ErrInternalError
	}
	if !ceil.IsInteger() {
		return 0, poolerr.ErrInternalError
	}
	big := ceil.BigInt()
	if !big.IsUint64() {
		return 0, poolerr.ErrInternalError
	}
	return big.Uint64(), nil
}

func ceilDivDecimal(numerator, denominator decimal.Decimal) (uint64, error) {
	if denominator.Sign() <= 0 {
		return 0, poolerr.ErrInternalError
	}
	quotient := numerator.DivRound(denominator, 30).Ceil()
	if quotient.Sign() < 0 {
		return 0, poolerr.ErrInternalError
	}
	big := quotient.BigInt()
	if !big.IsUint64() {
		return 0, poolerr.ErrInternalError
	}
	return big.Uint64(), nil
}
