// Package flashloan models the flash-loan hot-potato accounting: a
// paired take/repay within one transaction (§4.7).
package flashloan

import (
	"github.com/gagliardetto/solana-go"

	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// HotPotatoLamports is the single lamport seeded into a freshly
// allocated FlashAccount, existing purely so the PDA is rent-exempt
// while data-empty accounts would otherwise be reclaimable.
const HotPotatoLamports = 1

// Fee is the per-pool flash-loan fee, lazily created, 1:1 with a pool.
type Fee struct {
	FeeRatio rational.Rational
}

// Validate enforces the fee ratio is a valid rational.
func (f Fee) Validate() error {
	if !f.FeeRatio.IsValid() || !f.FeeRatio.IsLteOne() {
		return poolerr.ErrInvalidFee
	}
	return nil
}

// Apply computes the fee levied on a flash loan of the given amount,
// ceiling-rounded per §4.7.
func (f Fee) Apply(amount uint64) (uint64, error) {
	fee, ok := f.FeeRatio.CeilMul(amount)
	if !ok {
		return 0, poolerr.ErrInternalError
	}
	return fee, nil
}

// Account is the transient PDA tracking lamports currently out on loan
// for one pool. It exists only between a take-flash-loan and its
// paired repay in the same transaction.
type Account struct {
	Pool             solana.PublicKey
	LamportsBorrowed uint64
}

// IsActive reports whether the account already holds an outstanding
// loan, i.e. whether take-flash-loan must treat it as pre-existing
// rather than newly allocated.
func (a Account) IsActive() bool {
	return a.LamportsBorrowed > 0
}

// Take adds lamports to the account's outstanding balance, checked
// against overflow.
func (a Account) Take(lamports uint64) (Account, error) {
	sum := a.LamportsBorrowed + lamports
	if sum < a.LamportsBorrowed {
		return Account{}, poolerr.ErrInternalError
	}
	a.LamportsBorrowed = sum
	return a, nil
}

// RepayBreakdown is the full accounting produced by a repay-flash-loan,
// mirroring the protocol/referrer split applied in §4.3.
type RepayBreakdown struct {
	Borrowed      uint64
	FlashFee      uint64
	RepayLamports uint64 // borrowed + flash fee, paid repayer -> reserves
	ProtocolSplit protocolfee.Split
}

// Repay computes the lamports a repayer must transfer in, and how the
// flash fee splits between the protocol, an optional referrer, and the
// pool, per §4.7. The caller is responsible for zeroing the Account and
// reassigning it back to the system collaborator afterward.
func Repay(account Account, flashFee Fee, protocol protocolfee.ProtocolFee, hasReferrer bool) (RepayBreakdown, error) {
	fee, err := flashFee.Apply(account.LamportsBorrowed)
	if err != nil {
		return RepayBreakdown{}, err
	}

	split, err := protocol.Apply(fee, hasReferrer)
	if err != nil {
		return RepayBreakdown{}, err
	}

	repayLamports := account.LamportsBorrowed + fee
	if repayLamports < account.LamportsBorrowed {
		return RepayBreakdown{}, poolerr.ErrInternalError
	}

	return RepayBreakdown{
		Borrowed:      account.LamportsBorrowed,
		FlashFee:      fee,
		RepayLamports: repayLamports,
		ProtocolSplit: split,
	}, nil
}
