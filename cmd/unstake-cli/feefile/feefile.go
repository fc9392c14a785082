// Package feefile parses the JSON fee-file format accepted by the CLI's
// set-fee command, as an alternative to the --num/--denom flags. It is a
// thin CLI-layer adapter, not part of the core fee calculus.
package feefile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// Document is the on-disk JSON shape:
//
//	{"flat": {"num": 1, "denom": 1000}}
//
// or
//
//	{"liquidityLinear": {"maxLiqRemaining": {"num": 3, "denom": 100}, "zeroLiqRemaining": {"num": 1, "denom": 10}}}
type Document struct {
	Flat            *rationalJSON      `json:"flat,omitempty"`
	LiquidityLinear *liquidityLinearJSON `json:"liquidityLinear,omitempty"`
}

type rationalJSON struct {
	Num   uint64 `json:"num"`
	Denom uint64 `json:"denom"`
}

type liquidityLinearJSON struct {
	MaxLiqRemaining  rationalJSON `json:"maxLiqRemaining"`
	ZeroLiqRemaining rationalJSON `json:"zeroLiqRemaining"`
}

func (r rationalJSON) toDomain() rational.Rational {
	return rational.Rational{Num: r.Num, Denom: r.Denom}
}

// Load reads and parses a fee-file, returning the validated core Fee.
func Load(path string) (fee.Fee, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fee.Fee{}, fmt.Errorf("read fee file: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fee.Fee{}, fmt.Errorf("parse fee file: %w", err)
	}

	var f fee.Fee
	switch {
	case doc.Flat != nil:
		f = fee.Flat(doc.Flat.toDomain())
	case doc.LiquidityLinear != nil:
		f = fee.LiquidityLinear(doc.LiquidityLinear.MaxLiqRemaining.toDomain(), doc.LiquidityLinear.ZeroLiqRemaining.toDomain())
	default:
		return fee.Fee{}, fmt.Errorf("fee file %s: must set either \"flat\" or \"liquidityLinear\"", path)
	}
	if err := f.Validate(); err != nil {
		return fee.Fee{}, fmt.Errorf("fee file %s: %w", path, err)
	}
	return f, nil
}
