// Package protocolfee models the process-wide protocol fee singleton and
// the protocol/referrer split taken out of every unstake fee (§4.3).
package protocolfee

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// Seed is the PDA seed the protocol fee account is derived from.
const Seed = "protocol-fee"

// ProtocolFee is the external, process-wide singleton governing the
// protocol's cut of every pool's unstake fees. It is created once via
// init-protocol-fee and mutated only by its own authority.
type ProtocolFee struct {
	// Destination receives protocol_payout.
	Destination solana.PublicKey

	// Authority is the only signer allowed to call set-protocol-fee.
	Authority solana.PublicKey

	// FeeRatio is the proportion of each unstake fee taken by the protocol.
	FeeRatio rational.Rational

	// ReferrerFeeRatio is the proportion of the protocol cut carved out
	// for a referrer, when one is supplied.
	ReferrerFeeRatio rational.Rational
}

// Address derives the protocol fee singleton's PDA.
func Address(programID solana.PublicKey) (addr solana.PublicKey, bump uint8, err error) {
	return solana.FindProgramAddress([][]byte{[]byte(Seed)}, programID)
}

// Validate enforces both ratios are valid and at most one.
func (p ProtocolFee) Validate() error {
	if !p.FeeRatio.IsValid() || !p.FeeRatio.IsLteOne() {
		return poolerr.ErrInvalidFee
	}
	if !p.ReferrerFeeRatio.IsValid() || !p.ReferrerFeeRatio.IsLteOne() {
		return poolerr.ErrInvalidFee
	}
	return nil
}

// Split is the breakdown of an unstake fee between the protocol, an
// optional referrer, and the pool itself.
type Split struct {
	// ProtocolCut is the portion of the fee taken by the protocol before
	// the referrer carve-out, i.e. fee_ratio.floor_mul(fee).
	ProtocolCut uint64

	// ReferrerCut is carved out of ProtocolCut when a referrer is
	// supplied; zero otherwise.
	ReferrerCut uint64

	// ProtocolPayout is ProtocolCut - ReferrerCut, sent to Destination.
	ProtocolPayout uint64

	// PoolRetained is fee - ProtocolCut, left in the pool's reserves.
	PoolRetained uint64
}

// Apply splits an unstake fee (in lamports) between the protocol, an
// optional referrer and the pool, per §4.3. hasReferrer selects whether
// the referrer carve-out applies.
func (p ProtocolFee) Apply(feeLamports uint64, hasReferrer bool) (Split, error) {
	protocolCut, ok := p.FeeRatio.FloorMul(feeLamports)
	if !ok {
		return Split{}, poolerr.ErrInternalError
	}

	var referrerCut uint64
	if hasReferrer {
		referrerCut, ok = p.ReferrerFeeRatio.FloorMul(protocolCut)
		if !ok {
			return Split{}, poolerr.ErrInternalError
		}
	}

	if referrerCut > protocolCut || protocolCut > feeLamports {
		return Split{}, poolerr.ErrInternalError
	}

	return Split{
		ProtocolCut:    protocolCut,
		ReferrerCut:    referrerCut,
		ProtocolPayout: protocolCut - referrerCut,
		PoolRetained:   feeLamports - protocolCut,
	}, nil
}

// Default returns the built-in protocol fee parameters used when the
// singleton is first created: a 10% protocol cut with a 50% referrer
// carve-out, matching the on-chain program's localnet defaults.
func Default(destination, authority solana.PublicKey) ProtocolFee {
	return ProtocolFee{
		Destination:      destination,
		Authority:        authority,
		FeeRatio:         rational.Rational{Num: 1, Denom: 10},
		ReferrerFeeRatio: rational.Rational{Num: 1, Denom: 2},
	}
}
