package ixcodec

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/flashloan"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
	"github.com/sanctumfi/unstake-pool/internal/stakerecord"
)

// RationalWire is the Borsh wire layout for a Rational: two u64s in
// declaration order, no discriminator (it's never a top-level account).
type RationalWire struct {
	Num   uint64
	Denom uint64
}

func (w RationalWire) ToDomain() rational.Rational {
	return rational.Rational{Num: w.Num, Denom: w.Denom}
}

func RationalToWire(r rational.Rational) RationalWire {
	return RationalWire{Num: r.Num, Denom: r.Denom}
}

// LiquidityLinearParamsWire is the Borsh wire layout for the
// LiquidityLinear fee variant's parameters.
type LiquidityLinearParamsWire struct {
	MaxLiqRemaining  RationalWire
	ZeroLiqRemaining RationalWire
}

// feeVariant tags the Fee enum's wire encoding, a leading u8 before the
// variant's payload.
type feeVariant uint8

const (
	feeVariantFlat feeVariant = iota
	feeVariantLiquidityLinear
)

// FeeWire is the Borsh wire layout for the Fee tagged union: a leading
// u8 variant index followed by exactly one payload. Borsh enums pick
// which payload to (de)serialize based on the tag, so this implements
// the encoder/decoder interfaces by hand rather than relying on
// sequential struct-field encoding.
type FeeWire struct {
	Variant         feeVariant
	Flat            RationalWire
	LiquidityLinear LiquidityLinearParamsWire
}

func (w FeeWire) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteUint8(uint8(w.Variant)); err != nil {
		return err
	}
	switch w.Variant {
	case feeVariantFlat:
		return encoder.Encode(w.Flat)
	case feeVariantLiquidityLinear:
		return encoder.Encode(w.LiquidityLinear)
	default:
		return fmt.Errorf("ixcodec: unknown fee variant %d", w.Variant)
	}
}

func (w *FeeWire) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	tag, err := decoder.ReadUint8()
	if err != nil {
		return err
	}
	w.Variant = feeVariant(tag)
	switch w.Variant {
	case feeVariantFlat:
		return decoder.Decode(&w.Flat)
	case feeVariantLiquidityLinear:
		return decoder.Decode(&w.LiquidityLinear)
	default:
		return fmt.Errorf("ixcodec: unknown fee variant %d", w.Variant)
	}
}

func FeeToWire(f fee.Fee) FeeWire {
	switch f.Kind {
	case fee.KindFlat:
		return FeeWire{Variant: feeVariantFlat, Flat: RationalToWire(f.Ratio)}
	case fee.KindLiquidityLinear:
		return FeeWire{
			Variant: feeVariantLiquidityLinear,
			LiquidityLinear: LiquidityLinearParamsWire{
				MaxLiqRemaining:  RationalToWire(f.MaxLiqRemaining),
				ZeroLiqRemaining: RationalToWire(f.ZeroLiqRemaining),
			},
		}
	default:
		return FeeWire{}
	}
}

func (w FeeWire) ToDomain() fee.Fee {
	switch w.Variant {
	case feeVariantFlat:
		return fee.Flat(w.Flat.ToDomain())
	case feeVariantLiquidityLinear:
		return fee.LiquidityLinear(w.LiquidityLinear.MaxLiqRemaining.ToDomain(), w.LiquidityLinear.ZeroLiqRemaining.ToDomain())
	default:
		return fee.Fee{}
	}
}

// PoolAccount is the wire layout of a Pool account: an 8-byte
// discriminator followed by its Borsh-packed fields in declaration
// order.
type PoolAccount struct {
	Discriminator [8]byte `bin:"skip"`
	FeeAuthority  solana.PublicKey
	LpMint        solana.PublicKey
	IncomingStake uint64
}

func (a PoolAccount) ToDomain(address solana.PublicKey) pooldomain.Pool {
	return pooldomain.Pool{
		Address:       address,
		FeeAuthority:  a.FeeAuthority,
		LpMint:        a.LpMint,
		IncomingStake: a.IncomingStake,
	}
}

// ProtocolFeeAccount is the wire layout of the ProtocolFee singleton.
type ProtocolFeeAccount struct {
	Discriminator    [8]byte `bin:"skip"`
	Destination      solana.PublicKey
	Authority        solana.PublicKey
	FeeRatio         RationalWire
	ReferrerFeeRatio RationalWire
}

func (a ProtocolFeeAccount) ToDomain() protocolfee.ProtocolFee {
	return protocolfee.ProtocolFee{
		Destination:      a.Destination,
		Authority:        a.Authority,
		FeeRatio:         a.FeeRatio.ToDomain(),
		ReferrerFeeRatio: a.ReferrerFeeRatio.ToDomain(),
	}
}

// FlashLoanFeeAccount is the wire layout of a pool's flash-loan fee
// record.
type FlashLoanFeeAccount struct {
	Discriminator [8]byte `bin:"skip"`
	FeeRatio      RationalWire
}

func (a FlashLoanFeeAccount) ToDomain() flashloan.Fee {
	return flashloan.Fee{FeeRatio: a.FeeRatio.ToDomain()}
}

// StakeAccountRecordAccount is the wire layout of a StakeAccountRecord.
type StakeAccountRecordAccount struct {
	Discriminator      [8]byte `bin:"skip"`
	LamportsAtCreation uint64
}

func (a StakeAccountRecordAccount) ToDomain(pool, stakeAccount, address solana.PublicKey) stakerecord.Record {
	return stakerecord.Record{
		Address:            address,
		Pool:               pool,
		StakeAccount:       stakeAccount,
		LamportsAtCreation: a.LamportsAtCreation,
	}
}

// FlashAccountData is the wire layout of a FlashAccount: no
// discriminator, just a single u64 (the native program stores this as
// a raw, non-Anchor-tagged 8-byte account).
type FlashAccountData struct {
	LamportsBorrowed uint64
}

func (a FlashAccountData) ToDomain(pool solana.PublicKey) flashloan.Account {
	return flashloan.Account{Pool: pool, LamportsBorrowed: a.LamportsBorrowed}
}
