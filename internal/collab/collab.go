// Package collab declares the external collaborators the engine depends
// on but does not implement: the native stake-program and token-program
// CPI surfaces, the system program, and the instructions sysvar. The
// concrete RPC-backed implementation lives in runtime.go; tests may
// substitute a fake.
package collab

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// StakeAuthorized mirrors the stake account's current staker/withdrawer
// pair, as read off-chain before an unstake pre-check.
type StakeAuthorized struct {
	Staker     solana.PublicKey
	Withdrawer solana.PublicKey
}

// StakeLockup mirrors the stake account's lockup terms.
type StakeLockup struct {
	UnixTimestamp int64
	Epoch         uint64
	Custodian     solana.PublicKey
}

// IsInForce reports whether the lockup is still active at the given
// clock reading: either bound is zero means that bound doesn't apply.
func (l StakeLockup) IsInForce(unixTimestamp int64, epoch uint64) bool {
	if l.UnixTimestamp > 0 && unixTimestamp < l.UnixTimestamp {
		return true
	}
	if l.Epoch > 0 && epoch < l.Epoch {
		return true
	}
	return false
}

// StakeRuntime is everything the engine needs from the native
// stake-program CPI interface: authorization, lockup inspection, and
// the deactivate/withdraw lifecycle. How these CPIs are actually built
// and signed is the collaborator's concern, not the core's.
type StakeRuntime interface {
	// Lamports returns the stake account's total lamport balance.
	Lamports(ctx context.Context, stakeAccount solana.PublicKey) (uint64, error)

	// Authorized returns the stake account's current staker/withdrawer,
	// or an error if the account has no meta (uninitialized).
	Authorized(ctx context.Context, stakeAccount solana.PublicKey) (StakeAuthorized, error)

	// Lockup returns the stake account's lockup terms, or an error if
	// the account has no meta.
	Lockup(ctx context.Context, stakeAccount solana.PublicKey) (StakeLockup, error)

	// AuthorizeStakerAndWithdrawer re-assigns both the staker and
	// withdrawer authorities on stakeAccount to newAuthority, signed by
	// the account's current withdrawer.
	AuthorizeStakerAndWithdrawer(ctx context.Context, stakeAccount, currentWithdrawer, newAuthority solana.PublicKey) error

	// Deactivate requests the stake account begin deactivating at the
	// next epoch boundary, signed by its staker.
	Deactivate(ctx context.Context, stakeAccount, staker solana.PublicKey) error

	// Withdraw moves lamports out of a fully-deactivated stake account
	// into destination, signed by the account's withdrawer.
	Withdraw(ctx context.Context, stakeAccount, withdrawer, destination solana.PublicKey, lamports uint64) error
}

// TokenRuntime is everything the engine needs from the SPL-token-style
// CPI interface: LP mint/burn and wrapped-native sync.
type TokenRuntime interface {
	// MintTo mints amount LP tokens to destination, signed by the
	// reserves PDA as mint authority.
	MintTo(ctx context.Context, mint, destination, mintAuthority solana.PublicKey, amount uint64) error

	// Burn burns amount LP tokens from source, signed by owner.
	Burn(ctx context.Context, mint, source, owner solana.PublicKey, amount uint64) error

	// SyncNative reconciles a wrapped-native token account's balance
	// with its underlying lamports, used by the wsol-destination unstake
	// variant.
	SyncNative(ctx context.Context, tokenAccount solana.PublicKey) error

	// IsWrappedNative reports whether tokenAccount's mint is the
	// wrapped-native mint, used to validate the wsol-destination
	// variant's destination account.
	IsWrappedNative(ctx context.Context, tokenAccount solana.PublicKey) (bool, error)

	// MintOf reads the mint a token account belongs to, used to verify
	// an LP token account against the pool's lp_mint.
	MintOf(ctx context.Context, tokenAccount solana.PublicKey) (solana.PublicKey, error)
}

// SystemRuntime is everything the engine needs from the system-program
// CPI interface: lamport transfers and PDA lifecycle management.
type SystemRuntime interface {
	// Transfer moves lamports from a signed or PDA-signed source to
	// destination.
	Transfer(ctx context.Context, from, to solana.PublicKey, lamports uint64) error

	// AllocateAssign allocates space bytes and assigns ownership of a
	// PDA to owner, signed by the PDA's own seeds.
	AllocateAssign(ctx context.Context, pda solana.PublicKey, space uint64, owner solana.PublicKey) error

	// CloseToSystem zeroes a PDA's data, returns its lamports to
	// destination, and reassigns ownership back to the system program,
	// used to destroy a FlashAccount or a StakeAccountRecord.
	CloseToSystem(ctx context.Context, pda, destination solana.PublicKey) error

	// AccountExists reports whether an account has been allocated
	// (non-empty data), used to detect a pre-existing FlashAccount.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)
}

// PendingInstruction is one instruction found later in the same
// transaction during a take-flash-loan's instructions-sysvar scan.
type PendingInstruction struct {
	ProgramID solana.PublicKey
	Data      []byte
	Accounts  []solana.PublicKey
}

// InstructionsSysvar lets the engine inspect the rest of the current
// transaction, used by take-flash-loan to require a paired repay later
// in the same transaction (§4.7).
type InstructionsSysvar interface {
	// CurrentIndex returns the index of the instruction currently
	// executing.
	CurrentIndex(ctx context.Context) (uint16, error)

	// InstructionAt returns the instruction at the given index, or an
	// error if the index is out of range.
	InstructionAt(ctx context.Context, index uint16) (PendingInstruction, error)
}
