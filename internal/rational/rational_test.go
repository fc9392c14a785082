package rational

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	assert.True(t, Rational{Num: 1, Denom: 100}.IsValid())
	assert.False(t, Rational{Num: 1, Denom: 0}.IsValid())
}

func TestIsLteOne(t *testing.T) {
	assert.True(t, Rational{Num: 100, Denom: 100}.IsLteOne())
	assert.True(t, Rational{Num: 1, Denom: 100}.IsLteOne())
	assert.False(t, Rational{Num: 101, Denom: 100}.IsLteOne())
}

func TestFloorMul(t *testing.T) {
	cases := []struct {
		name  string
		r     Rational
		v     uint64
		want  uint64
		valid bool
	}{
		{"one percent", Rational{Num: 1, Denom: 100}, 1_000_000_000, 10_000_000, true},
		{"exact", Rational{Num: 1, Denom: 2}, 10, 5, true},
		{"floors down", Rational{Num: 1, Denom: 3}, 10, 3, true},
		{"zero denom invalid", Rational{Num: 1, Denom: 0}, 10, 0, false},
		{"overflow", Rational{Num: math.MaxUint64, Denom: 1}, math.MaxUint64, 0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.r.FloorMul(c.v)
			require.Equal(t, c.valid, ok)
			if ok {
				assert.Equal(t, c.want, got)
			}
		})
	}
}

func TestCeilMul(t *testing.T) {
	cases := []struct {
		name string
		r    Rational
		v    uint64
		want uint64
	}{
		{"one percent of a billion", Rational{Num: 1, Denom: 100}, 1_000_000_000, 10_000_000},
		{"rounds up", Rational{Num: 1, Denom: 3}, 10, 4},
		{"exact stays exact", Rational{Num: 1, Denom: 2}, 10, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := c.r.CeilMul(c.v)
			require.True(t, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestCeilMulGteFloorMul(t *testing.T) {
	r := Rational{Num: 7, Denom: 13}
	for _, v := range []uint64{0, 1, 2, 3, 13, 14, 1_000_000_000} {
		floor, ok := r.FloorMul(v)
		require.True(t, ok)
		ceil, ok := r.CeilMul(v)
		require.True(t, ok)
		assert.GreaterOrEqual(t, ceil, floor)
	}
}

func TestCmp(t *testing.T) {
	assert.Equal(t, 0, Rational{Num: 1, Denom: 2}.Cmp(Rational{Num: 2, Denom: 4}))
	assert.Equal(t, -1, Rational{Num: 1, Denom: 4}.Cmp(Rational{Num: 1, Denom: 2}))
	assert.Equal(t, 1, Rational{Num: 3, Denom: 4}.Cmp(Rational{Num: 1, Denom: 2}))
}

func TestToFixedPoint(t *testing.T) {
	d, ok := Rational{Num: 1, Denom: 3}.ToFixedPoint()
	require.True(t, ok)
	want := decimal.RequireFromString("0.333333333333333333")
	assert.True(t, d.Sub(want).Abs().LessThan(decimal.RequireFromString("0.000000000000000001")))

	_, ok = Rational{Num: 1, Denom: 0}.ToFixedPoint()
	assert.False(t, ok)
}
