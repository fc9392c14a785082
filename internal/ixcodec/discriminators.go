// Package ixcodec encodes and decodes the instruction and account wire
// formats for the pool program: 8-byte instruction discriminators,
// Borsh-packed account layouts, and the account-meta tables for each
// instruction (§6).
package ixcodec

// Discriminator identifies an instruction variant by the first 8 bytes
// of its instruction data.
type Discriminator [8]byte

var (
	InitProtocolFee        = Discriminator{225, 155, 167, 170, 29, 145, 165, 90}
	SetProtocolFee         = Discriminator{173, 239, 83, 242, 136, 43, 144, 217}
	CreatePool             = Discriminator{233, 146, 209, 142, 207, 104, 64, 188}
	AddLiquidity           = Discriminator{181, 157, 89, 67, 143, 182, 52, 72}
	RemoveLiquidity        = Discriminator{80, 85, 209, 72, 24, 206, 177, 108}
	SetFee                 = Discriminator{18, 154, 24, 18, 237, 214, 19, 80}
	SetFeeAuthority        = Discriminator{31, 1, 50, 87, 237, 101, 97, 132}
	SetLpTokenMetadata     = Discriminator{71, 73, 56, 155, 202, 142, 100, 150}
	DeactivateStakeAccount = Discriminator{217, 64, 76, 16, 216, 77, 123, 226}
	ReclaimStakeAccount    = Discriminator{47, 127, 90, 221, 10, 160, 183, 117}
	Unstake                = Discriminator{90, 95, 107, 42, 205, 124, 50, 225}
	UnstakeWsol            = Discriminator{125, 93, 190, 135, 89, 174, 142, 149}
	SetFlashLoanFee        = Discriminator{21, 27, 137, 29, 226, 149, 221, 100}
	TakeFlashLoan          = Discriminator{64, 124, 6, 57, 151, 155, 26, 195}
	RepayFlashLoan         = Discriminator{119, 239, 18, 45, 194, 107, 31, 238}
)

// Name returns the instruction name for a known discriminator, or ""
// if it doesn't match any.
func (d Discriminator) Name() string {
	switch d {
	case InitProtocolFee:
		return "init-protocol-fee"
	case SetProtocolFee:
		return "set-protocol-fee"
	case CreatePool:
		return "create-pool"
	case AddLiquidity:
		return "add-liquidity"
	case RemoveLiquidity:
		return "remove-liquidity"
	case SetFee:
		return "set-fee"
	case SetFeeAuthority:
		return "set-fee-authority"
	case SetLpTokenMetadata:
		return "set-lp-token-metadata"
	case DeactivateStakeAccount:
		return "deactivate-stake-account"
	case ReclaimStakeAccount:
		return "reclaim-stake-account"
	case Unstake:
		return "unstake"
	case UnstakeWsol:
		return "unstake-wsol"
	case SetFlashLoanFee:
		return "set-flash-loan-fee"
	case TakeFlashLoan:
		return "take-flash-loan"
	case RepayFlashLoan:
		return "repay-flash-loan"
	default:
		return ""
	}
}
