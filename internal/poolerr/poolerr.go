// Package poolerr defines the stable error taxonomy the engine returns.
// Codes mirror the numeric ABI error codes in the on-chain program this
// core models; names are the conceptual kind, not the wire code.
package poolerr

import "errors"

// Code is a stable numeric error code. Values intentionally start high
// enough to avoid colliding with generic program error codes.
type Code uint32

const (
	CodeInvalidLpTokenAccount Code = 6000 + iota
	CodePdaBumpNotCached
	CodeInvalidFeeAuthority
	CodeStakeAccountAuthorizedNotRetrievable
	CodeStakeAccountLockupNotRetrievable
	CodeStakeAccountLockupInForce
	CodeStakeAccountNotOwned
	CodeInvalidFee
	CodeInternalError
	CodeNotEnoughLiquidity
	CodeLiquidityToAddTooLittle
	CodeWrongProtocolFeeDestination
	CodeInvalidProtocolFeeAuthority
	CodeDestinationNotWsol
	CodeNoSucceedingRepay
	CodeFlashLoanActive
	CodeInvalidInstructionsSysvar
)

// Error is a taxonomy-tagged error. Every rule violation the engine
// detects is reported as one of these so callers can switch on Code
// without string matching; failures of the injected collaborators are
// returned wrapped with fmt.Errorf instead.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func new_(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

var (
	// ErrInvalidLpTokenAccount: the LP token account's mint does not
	// match the pool's lp_mint.
	ErrInvalidLpTokenAccount = new_(CodeInvalidLpTokenAccount, "the provided LP token account is invalid")

	// ErrPdaBumpNotCached: a supplied account does not match the PDA
	// re-derived from its seeds.
	ErrPdaBumpNotCached = new_(CodePdaBumpNotCached, "PDA bump not cached")

	// ErrInvalidFeeAuthority: the signer is not the pool's fee authority.
	ErrInvalidFeeAuthority = new_(CodeInvalidFeeAuthority, "signer is not the pool's fee authority")

	// ErrStakeAccountAuthorizedNotRetrievable: the stake account has no
	// Authorized field, e.g. an uninitialized account was supplied.
	ErrStakeAccountAuthorizedNotRetrievable = new_(CodeStakeAccountAuthorizedNotRetrievable, "stake account authorized is not retrievable")

	// ErrStakeAccountLockupNotRetrievable: the stake account has no
	// Lockup field.
	ErrStakeAccountLockupNotRetrievable = new_(CodeStakeAccountLockupNotRetrievable, "stake account lockup is not retrievable")

	// ErrStakeAccountLockupInForce: the stake account is still locked up
	// at the current clock.
	ErrStakeAccountLockupInForce = new_(CodeStakeAccountLockupInForce, "stake account is locked up")

	// ErrStakeAccountNotOwned: the stake account's withdrawer does not
	// match the unstaker.
	ErrStakeAccountNotOwned = new_(CodeStakeAccountNotOwned, "stake account is not owned by the unstaker")

	// ErrInvalidFee: the fee description fails Validate().
	ErrInvalidFee = new_(CodeInvalidFee, "fee description violates its invariants")

	// ErrInternalError: overflow, underflow, or an unreachable
	// arithmetic branch. Always fatal.
	ErrInternalError = new_(CodeInternalError, "internal error")

	// ErrNotEnoughLiquidity: reserves cannot cover the computed payout.
	ErrNotEnoughLiquidity = new_(CodeNotEnoughLiquidity, "not enough liquidity to service this request")

	// ErrLiquidityToAddTooLittle: the amount deposited would mint zero
	// LP tokens.
	ErrLiquidityToAddTooLittle = new_(CodeLiquidityToAddTooLittle, "liquidity to add is too little to mint any LP tokens")

	// ErrWrongProtocolFeeDestination: the supplied destination account
	// does not match protocol_fee.destination.
	ErrWrongProtocolFeeDestination = new_(CodeWrongProtocolFeeDestination, "wrong protocol fee destination account")

	// ErrInvalidProtocolFeeAuthority: the signer does not match
	// protocol_fee.authority.
	ErrInvalidProtocolFeeAuthority = new_(CodeInvalidProtocolFeeAuthority, "signer is not the protocol fee authority")

	// ErrDestinationNotWsol: the wsol-variant destination token account
	// is not a wrapped-native account.
	ErrDestinationNotWsol = new_(CodeDestinationNotWsol, "destination token account is not a wrapped SOL account")

	// ErrNoSucceedingRepay: take-flash-loan found no matching repay
	// instruction later in the transaction.
	ErrNoSucceedingRepay = new_(CodeNoSucceedingRepay, "no succeeding repay-flash-loan instruction found in this transaction")

	// ErrFlashLoanActive: a flash account already holds an
	// outstanding, unrepaid loan.
	ErrFlashLoanActive = new_(CodeFlashLoanActive, "a flash loan is already active for this pool")

	// ErrInvalidInstructionsSysvar: the supplied instructions account
	// is not the instructions sysvar.
	ErrInvalidInstructionsSysvar = new_(CodeInvalidInstructionsSysvar, "invalid instructions sysvar account")
)

// As reports whether err (or one it wraps) is a *Error with the given
// code.
func As(err error, code Code) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == code
}
