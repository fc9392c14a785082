// Package pooldomain models the pool account and its LP-share mint/burn
// math (§3, §4.4, §4.9).
package pooldomain

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
)

// Pool is the per-pool account. incoming_stake is the sum of
// lamports_at_creation over every live StakeAccountRecord the pool has
// absorbed but not yet reclaimed.
type Pool struct {
	Address       solana.PublicKey
	FeeAuthority  solana.PublicKey
	LpMint        solana.PublicKey
	IncomingStake uint64
}

// Balance is the pool's lamport accounting as of one instant: the
// reserves account balance, the incoming-stake accumulator, and any
// lamports currently out on a flash loan.
type Balance struct {
	ReservesLamports uint64
	IncomingStake    uint64
	FlashLoaned      uint64
}

// Owned is the pool's total claim: reserves + incoming stake + flash
// loaned, per §3's owned_lamports definition.
func (b Balance) Owned() (uint64, error) {
	sum := new(big.Int).SetUint64(b.ReservesLamports)
	sum.Add(sum, new(big.Int).SetUint64(b.IncomingStake))
	sum.Add(sum, new(big.Int).SetUint64(b.FlashLoaned))
	if !sum.IsUint64() {
		return 0, poolerr.ErrInternalError
	}
	return sum.Uint64(), nil
}

// addressSeed identifies one of the pool's deterministically-derived
// child accounts (§4.9).
type addressSeed []byte

var (
	feeSeed          = addressSeed("fee")
	flashLoanFeeSeed = addressSeed("flashloanfee")
	flashAccountSeed = addressSeed("flashaccount")
)

// ReservesAddress derives the pool's SOL reserves PDA: seeds = [pool].
func ReservesAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{pool.Bytes()}, programID)
}

// FeeAddress derives the pool's fee record PDA: seeds = [pool, "fee"].
func FeeAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{pool.Bytes(), feeSeed}, programID)
}

// FlashLoanFeeAddress derives the pool's flash-loan fee record PDA:
// seeds = [pool, "flashloanfee"].
func FlashLoanFeeAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{pool.Bytes(), flashLoanFeeSeed}, programID)
}

// FlashAccountAddress derives the pool's flash-account PDA:
// seeds = [pool, "flashaccount"].
func FlashAccountAddress(programID, pool solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{pool.Bytes(), flashAccountSeed}, programID)
}

// StakeAccountRecordAddress derives a stake-account-record PDA:
// seeds = [pool, stake_account].
func StakeAccountRecordAddress(programID, pool, stakeAccount solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{pool.Bytes(), stakeAccount.Bytes()}, programID)
}

// LpTokensToMint computes the LP tokens to mint for a deposit of amount
// lamports against a pool whose total claim is owned and whose LP mint
// has the given supply, evaluated *before* the deposit lands, per §4.4.
//
// Degenerate cases (owned == 0 or supply == 0) collapse to
// amount + owned - supply, which is exactly amount when the pool has
// never been funded.
func LpTokensToMint(owned, supply, amount uint64) (uint64, error) {
	if owned == 0 || supply == 0 {
		sum := new(big.Int).SetUint64(amount)
		sum.Add(sum, new(big.Int).SetUint64(owned))
		sum.Sub(sum, new(big.Int).SetUint64(supply))
		toMint, ok := u64FromBigInt(sum)
		if !ok {
			return 0, poolerr.ErrInternalError
		}
		if toMint == 0 {
			return 0, poolerr.ErrLiquidityToAddTooLittle
		}
		return toMint, nil
	}

	product := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(supply))
	quotient := new(big.Int).Quo(product, new(big.Int).SetUint64(owned))
	toMint, ok := u64FromBigInt(quotient)
	if !ok {
		return 0, poolerr.ErrInternalError
	}
	if toMint == 0 {
		return 0, poolerr.ErrLiquidityToAddTooLittle
	}
	return toMint, nil
}

// LamportsToReturn computes the lamports to return for a withdrawal of
// amountLp LP tokens against a pool whose total claim is owned and
// whose LP mint has the given supply, evaluated *before* the burn
// lands, per §4.4.
func LamportsToReturn(owned, supply, amountLp uint64) (uint64, error) {
	if owned == 0 || supply == 0 {
		return 0, nil
	}
	product := new(big.Int).Mul(new(big.Int).SetUint64(amountLp), new(big.Int).SetUint64(owned))
	quotient := new(big.Int).Quo(product, new(big.Int).SetUint64(supply))
	toReturn, ok := u64FromBigInt(quotient)
	if !ok {
		return 0, poolerr.ErrInternalError
	}
	return toReturn, nil
}

func u64FromBigInt(v *big.Int) (uint64, bool) {
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}
