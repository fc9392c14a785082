// Package rational implements the unsigned-fraction arithmetic used
// throughout the fee calculus: ratios are never represented as floating
// point, only as validated numerator/denominator pairs with checked
// integer multiplication.
package rational

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// fixedPointScale sets shopspring/decimal's division precision to 18
// digits, comfortably above the 12 digits of precision the liquidity-linear
// fee curve needs to stay stable near its shallow slope.
const fixedPointScale = 18

func init() {
	decimal.DivisionPrecision = fixedPointScale
}

// Rational is an unsigned fraction num/denom. The zero value is invalid
// (Denom == 0) and must never be used directly.
type Rational struct {
	Num   uint64
	Denom uint64
}

// IsValid reports whether the rational can be used in arithmetic, i.e.
// its denominator is non-zero.
func (r Rational) IsValid() bool {
	return r.Denom != 0
}

// IsLteOne reports whether the ratio is at most 1, i.e. num <= denom.
func (r Rational) IsLteOne() bool {
	return r.Num <= r.Denom
}

// ToFixedPoint converts the rational into a decimal.Decimal, rounded to
// fixedPointScale decimal places, for use in the liquidity-linear fee
// curve. Returns false if the rational is
// invalid (denom == 0).
func (r Rational) ToFixedPoint() (decimal.Decimal, bool) {
	if !r.IsValid() {
		return decimal.Decimal{}, false
	}
	num := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Num), 0)
	denom := decimal.NewFromBigInt(new(big.Int).SetUint64(r.Denom), 0)
	return num.DivRound(denom, fixedPointScale), true
}

// FloorMul returns floor(v * num / denom), or (0, false) on overflow or
// an invalid rational.
func (r Rational) FloorMul(v uint64) (uint64, bool) {
	if !r.IsValid() {
		return 0, false
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(v), new(big.Int).SetUint64(r.Num))
	denom := new(big.Int).SetUint64(r.Denom)
	quotient := new(big.Int).Quo(product, denom)
	return u64FromBigInt(quotient)
}

// CeilMul returns ceil(v * num / denom), computed as
// floor((v*num + denom - 1) / denom) to avoid floating point, or
// (0, false) on overflow or an invalid rational.
func (r Rational) CeilMul(v uint64) (uint64, bool) {
	if !r.IsValid() {
		return 0, false
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(v), new(big.Int).SetUint64(r.Num))
	denom := new(big.Int).SetUint64(r.Denom)
	roundedUp := product.Add(product, denom)
	roundedUp = roundedUp.Sub(roundedUp, big.NewInt(1))
	quotient := roundedUp.Quo(roundedUp, denom)
	return u64FromBigInt(quotient)
}

// Cmp compares two rationals by cross-multiplying in 128-bit-equivalent
// big.Int arithmetic, avoiding both floating point and division. It
// returns -1, 0 or 1 as r is less than, equal to, or greater than other.
func (r Rational) Cmp(other Rational) int {
	left := new(big.Int).Mul(new(big.Int).SetUint64(r.Num), new(big.Int).SetUint64(other.Denom))
	right := new(big.Int).Mul(new(big.Int).SetUint64(other.Num), new(big.Int).SetUint64(r.Denom))
	return left.Cmp(right)
}

func u64FromBigInt(v *big.Int) (uint64, bool) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}
