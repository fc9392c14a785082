// Package engine wires the domain packages (fee, protocolfee,
// pooldomain, stakerecord, flashloan) together with the external
// collaborators declared in internal/collab into the instruction
// handlers described in §4.5–§4.7 and §6. Every handler is the Go
// analogue of one on-chain instruction: validate, compute, move
// lamports/tokens through the collaborators, and report what happened.
package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/sanctumfi/unstake-pool/internal/collab"
	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/flashloan"
	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/stakerecord"
	"github.com/sanctumfi/unstake-pool/pkg/logger"
)

// Engine is the instruction-handler layer. It holds no chain state of
// its own; calls take most on-chain state already read by the caller,
// read the rest (stake authorities and lockup, token account mints)
// through the injected collaborators, and return what changed,
// performing the CPIs through those collaborators as well.
type Engine struct {
	ProgramID solana.PublicKey
	Stake     collab.StakeRuntime
	Token     collab.TokenRuntime
	System    collab.SystemRuntime
	Ixs       collab.InstructionsSysvar
	log       *logger.Logger
}

// New builds an Engine from its collaborators.
func New(programID solana.PublicKey, stake collab.StakeRuntime, token collab.TokenRuntime, system collab.SystemRuntime, ixs collab.InstructionsSysvar, log *logger.Logger) *Engine {
	return &Engine{ProgramID: programID, Stake: stake, Token: token, System: system, Ixs: ixs, log: log.Named("engine")}
}

// UnstakeRequest is everything Unstake/UnstakeWsol need from the
// caller: accounts plus the state already read off-chain. Lockup and
// stake-account authorization are read live from the stake-runtime
// collaborator rather than trusted on the request, per §4.8's
// stake-account pre-flight checks.
type UnstakeRequest struct {
	Unstaker, StakeAccount, Destination solana.PublicKey
	Pool                                pooldomain.Pool
	Reserves                            solana.PublicKey
	ReservesLamports                    uint64
	FeeModel                            fee.Fee
	Protocol                            protocolfee.ProtocolFee
	ProtocolFeeDestination              solana.PublicKey
	Referrer                            *solana.PublicKey
	StakeAccountLamports                uint64
	ClockUnixTimestamp                  int64
	CurrentEpoch                        uint64
}

// UnstakeResult reports what an unstake computed and paid out.
type UnstakeResult struct {
	Record           stakerecord.Record
	FeeLamports      uint64
	PayoutToUnstaker uint64
	ProtocolSplit    protocolfee.Split
	NewIncomingStake uint64
}

// Unstake runs §4.5's state machine: lockup pre-check, stake-account
// authorization hand-off, fee computation, protocol/referrer split,
// payouts, record creation, and the incoming_stake update.
func (e *Engine) Unstake(ctx context.Context, req UnstakeRequest) (UnstakeResult, error) {
	authorized, err := e.Stake.Authorized(ctx, req.StakeAccount)
	if err != nil {
		return UnstakeResult{}, poolerr.ErrStakeAccountAuthorizedNotRetrievable
	}
	if !authorized.Withdrawer.Equals(req.Unstaker) {
		return UnstakeResult{}, poolerr.ErrStakeAccountNotOwned
	}

	lockup, err := e.Stake.Lockup(ctx, req.StakeAccount)
	if err != nil {
		return UnstakeResult{}, poolerr.ErrStakeAccountLockupNotRetrievable
	}
	if lockup.IsInForce(req.ClockUnixTimestamp, req.CurrentEpoch) {
		return UnstakeResult{}, poolerr.ErrStakeAccountLockupInForce
	}

	if !req.ProtocolFeeDestination.Equals(req.Protocol.Destination) {
		return UnstakeResult{}, poolerr.ErrWrongProtocolFeeDestination
	}

	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool.Address)
	}); err != nil {
		return UnstakeResult{}, err
	}

	if err := e.Stake.AuthorizeStakerAndWithdrawer(ctx, req.StakeAccount, req.Unstaker, req.Reserves); err != nil {
		return UnstakeResult{}, fmt.Errorf("authorize reserves on stake account: %w", err)
	}

	feeLamports, err := req.FeeModel.Apply(fee.Balance{
		IncomingStake:    req.Pool.IncomingStake,
		ReservesLamports: req.ReservesLamports,
	}, req.StakeAccountLamports)
	if err != nil {
		return UnstakeResult{}, err
	}

	payout := req.StakeAccountLamports - feeLamports
	split, err := req.Protocol.Apply(feeLamports, req.Referrer != nil)
	if err != nil {
		return UnstakeResult{}, err
	}

	totalOut := payout + split.ProtocolPayout + split.ReferrerCut
	if totalOut > req.ReservesLamports {
		return UnstakeResult{}, poolerr.ErrNotEnoughLiquidity
	}

	if err := e.System.Transfer(ctx, req.Reserves, req.Destination, payout); err != nil {
		return UnstakeResult{}, fmt.Errorf("pay unstaker: %w", err)
	}
	if req.Referrer != nil && split.ReferrerCut > 0 {
		if err := e.System.Transfer(ctx, req.Reserves, *req.Referrer, split.ReferrerCut); err != nil {
			return UnstakeResult{}, fmt.Errorf("pay referrer: %w", err)
		}
	}
	if split.ProtocolPayout > 0 {
		if err := e.System.Transfer(ctx, req.Reserves, req.ProtocolFeeDestination, split.ProtocolPayout); err != nil {
			return UnstakeResult{}, fmt.Errorf("pay protocol: %w", err)
		}
	}

	newIncoming := req.Pool.IncomingStake + req.StakeAccountLamports
	if newIncoming < req.Pool.IncomingStake {
		return UnstakeResult{}, poolerr.ErrInternalError
	}

	record := stakerecord.New(req.Pool.Address, req.StakeAccount, req.StakeAccountLamports)

	e.log.Info("unstake",
		zap.String("unstaker", req.Unstaker.String()),
		zap.String("stake_account", req.StakeAccount.String()),
		zap.Uint64("recorded_lamports", req.StakeAccountLamports),
		zap.Uint64("paid_lamports", payout),
		zap.Uint64("fee_lamports", feeLamports),
	)

	return UnstakeResult{
		Record:           record,
		FeeLamports:      feeLamports,
		PayoutToUnstaker: payout,
		ProtocolSplit:    split,
		NewIncomingStake: newIncoming,
	}, nil
}

// UnstakeWsol runs Unstake, then syncs the destination wrapped-native
// token account so its token balance reflects the deposited lamports.
func (e *Engine) UnstakeWsol(ctx context.Context, req UnstakeRequest, destinationTokenAccount solana.PublicKey) (UnstakeResult, error) {
	isWsol, err := e.Token.IsWrappedNative(ctx, destinationTokenAccount)
	if err != nil {
		return UnstakeResult{}, err
	}
	if !isWsol {
		return UnstakeResult{}, poolerr.ErrDestinationNotWsol
	}

	result, err := e.Unstake(ctx, req)
	if err != nil {
		return UnstakeResult{}, err
	}

	if err := e.Token.SyncNative(ctx, destinationTokenAccount); err != nil {
		return UnstakeResult{}, fmt.Errorf("sync native destination: %w", err)
	}
	return result, nil
}

// ReclaimRequest is everything Reclaim needs.
type ReclaimRequest struct {
	StakeAccount    solana.PublicKey
	Pool            pooldomain.Pool
	Reserves        solana.PublicKey
	Withdrawer      solana.PublicKey
	Record          stakerecord.Record
	ActualWithdrawn uint64
}

// ReclaimResult reports the incoming_stake delta and any rewards
// accrued while the stake account was held.
type ReclaimResult struct {
	NewIncomingStake uint64
	RewardsAccrued   int64
}

// Reclaim runs §4.6: withdraw the stake account's lamports into
// reserves, close its record, and decrement incoming_stake by exactly
// what was recorded at unstake time (never by what was withdrawn).
func (e *Engine) Reclaim(ctx context.Context, req ReclaimRequest) (ReclaimResult, error) {
	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool.Address)
	}); err != nil {
		return ReclaimResult{}, err
	}
	if err := e.verifyPda(req.Record.Address, func() (solana.PublicKey, uint8, error) {
		return pooldomain.StakeAccountRecordAddress(e.ProgramID, req.Pool.Address, req.StakeAccount)
	}); err != nil {
		return ReclaimResult{}, err
	}

	if err := e.Stake.Withdraw(ctx, req.StakeAccount, req.Withdrawer, req.Reserves, req.ActualWithdrawn); err != nil {
		return ReclaimResult{}, fmt.Errorf("withdraw stake account: %w", err)
	}

	if err := e.System.CloseToSystem(ctx, req.Record.Address, req.Reserves); err != nil {
		return ReclaimResult{}, fmt.Errorf("close stake account record: %w", err)
	}

	if req.Record.LamportsAtCreation > req.Pool.IncomingStake {
		return ReclaimResult{}, poolerr.ErrInternalError
	}
	newIncoming := req.Pool.IncomingStake - req.Record.LamportsAtCreation

	e.log.Info("reclaim",
		zap.String("stake_account", req.StakeAccount.String()),
		zap.Uint64("recorded_lamports", req.Record.LamportsAtCreation),
		zap.Uint64("reclaimed_lamports", req.ActualWithdrawn),
	)

	return ReclaimResult{
		NewIncomingStake: newIncoming,
		RewardsAccrued:   req.Record.RewardsAccrued(req.ActualWithdrawn),
	}, nil
}

// AddLiquidityRequest is everything AddLiquidity needs.
type AddLiquidityRequest struct {
	From, Pool, Reserves, LpMint, MintTo solana.PublicKey
	OwnedLamports                       uint64
	LpSupply                             uint64
	Amount                               uint64
}

// AddLiquidity runs §4.4's mint-on-deposit path: compute to_mint before
// any mutation, transfer SOL, mint LP tokens.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (uint64, error) {
	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return 0, err
	}
	mintToMint, err := e.Token.MintOf(ctx, req.MintTo)
	if err != nil {
		return 0, fmt.Errorf("read lp token account mint: %w", err)
	}
	if !mintToMint.Equals(req.LpMint) {
		return 0, poolerr.ErrInvalidLpTokenAccount
	}

	toMint, err := pooldomain.LpTokensToMint(req.OwnedLamports, req.LpSupply, req.Amount)
	if err != nil {
		return 0, err
	}

	if err := e.System.Transfer(ctx, req.From, req.Reserves, req.Amount); err != nil {
		return 0, fmt.Errorf("transfer liquidity: %w", err)
	}
	if err := e.Token.MintTo(ctx, req.LpMint, req.MintTo, req.Reserves, toMint); err != nil {
		return 0, fmt.Errorf("mint lp tokens: %w", err)
	}

	e.log.Info("add-liquidity", zap.Uint64("amount", req.Amount), zap.Uint64("lp_minted", toMint))
	return toMint, nil
}

// RemoveLiquidityRequest is everything RemoveLiquidity needs.
type RemoveLiquidityRequest struct {
	Authority, To, Pool, Reserves, LpMint, BurnFrom solana.PublicKey
	OwnedLamports                                   uint64
	LpSupply                                        uint64
	AmountLp                                        uint64
}

// RemoveLiquidity runs §4.4's burn-on-withdraw path: compute
// to_return before any mutation, transfer SOL, burn LP tokens.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (uint64, error) {
	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return 0, err
	}
	burnFromMint, err := e.Token.MintOf(ctx, req.BurnFrom)
	if err != nil {
		return 0, fmt.Errorf("read lp token account mint: %w", err)
	}
	if !burnFromMint.Equals(req.LpMint) {
		return 0, poolerr.ErrInvalidLpTokenAccount
	}

	toReturn, err := pooldomain.LamportsToReturn(req.OwnedLamports, req.LpSupply, req.AmountLp)
	if err != nil {
		return 0, err
	}

	if err := e.System.Transfer(ctx, req.Reserves, req.To, toReturn); err != nil {
		return 0, fmt.Errorf("transfer liquidity out: %w", err)
	}
	if err := e.Token.Burn(ctx, req.LpMint, req.BurnFrom, req.Authority, req.AmountLp); err != nil {
		return 0, fmt.Errorf("burn lp tokens: %w", err)
	}

	e.log.Info("remove-liquidity", zap.Uint64("amount_lp", req.AmountLp), zap.Uint64("lamports_returned", toReturn))
	return toReturn, nil
}

// TakeFlashLoanRequest is everything TakeFlashLoan needs.
type TakeFlashLoanRequest struct {
	Receiver, Pool, Reserves, FlashAccountAddr solana.PublicKey
	InstructionsSysvarAccount                  solana.PublicKey
	Lamports                                   uint64
	FlashAccountAllocated                      bool
	FlashAccountSeeded                         bool
	CurrentFlashAccount                        flashloan.Account
}

// TakeFlashLoan runs §4.7's take path: require a paired repay later in
// this transaction, allocate the hot-potato PDA if needed, accumulate
// the borrowed amount, and pay the receiver.
func (e *Engine) TakeFlashLoan(ctx context.Context, req TakeFlashLoanRequest) (flashloan.Account, error) {
	if !req.InstructionsSysvarAccount.Equals(solana.SysVarInstructionsPubkey) {
		return flashloan.Account{}, poolerr.ErrInvalidInstructionsSysvar
	}
	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return flashloan.Account{}, err
	}
	if err := e.verifyPda(req.FlashAccountAddr, func() (solana.PublicKey, uint8, error) {
		return pooldomain.FlashAccountAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return flashloan.Account{}, err
	}

	if err := e.requireSucceedingRepay(ctx, req.Pool); err != nil {
		return flashloan.Account{}, err
	}

	if !req.FlashAccountAllocated {
		if err := e.System.AllocateAssign(ctx, req.FlashAccountAddr, 8, e.ProgramID); err != nil {
			return flashloan.Account{}, fmt.Errorf("allocate flash account: %w", err)
		}
	}
	if !req.FlashAccountSeeded {
		if err := e.System.Transfer(ctx, req.Reserves, req.FlashAccountAddr, flashloan.HotPotatoLamports); err != nil {
			return flashloan.Account{}, fmt.Errorf("seed flash account: %w", err)
		}
	}

	account, err := req.CurrentFlashAccount.Take(req.Lamports)
	if err != nil {
		return flashloan.Account{}, err
	}

	if err := e.System.Transfer(ctx, req.Reserves, req.Receiver, req.Lamports); err != nil {
		return flashloan.Account{}, fmt.Errorf("pay flash loan receiver: %w", err)
	}

	e.log.Info("take-flash-loan", zap.Uint64("lamports", req.Lamports), zap.Uint64("total_borrowed", account.LamportsBorrowed))
	return account, nil
}

// requireSucceedingRepay scans the instructions sysvar for an
// instruction matching repay-flash-loan targeting this pool, per
// §4.7's take-flash-loan step 1.
func (e *Engine) requireSucceedingRepay(ctx context.Context, pool solana.PublicKey) error {
	const poolAccountIdx = 1 // repay-flash-loan's account-meta position for pool, per §6.

	current, err := e.Ixs.CurrentIndex(ctx)
	if err != nil {
		return fmt.Errorf("read current instruction index: %w", err)
	}

	for idx := current + 1; ; idx++ {
		next, err := e.Ixs.InstructionAt(ctx, idx)
		if err != nil {
			return poolerr.ErrNoSucceedingRepay
		}
		if next.ProgramID.Equals(e.ProgramID) &&
			len(next.Data) >= 8 &&
			ixcodec.Discriminator(next.Data[:8]) == ixcodec.RepayFlashLoan &&
			len(next.Accounts) > poolAccountIdx &&
			next.Accounts[poolAccountIdx].Equals(pool) {
			return nil
		}
	}
}

// RepayFlashLoanRequest is everything RepayFlashLoan needs.
type RepayFlashLoanRequest struct {
	Repayer, Pool, Reserves, FlashAccountAddr solana.PublicKey
	ProtocolFeeDestination                    solana.PublicKey
	Referrer                                  *solana.PublicKey
	CurrentFlashAccount                       flashloan.Account
	FlashFee                                  flashloan.Fee
	Protocol                                  protocolfee.ProtocolFee
}

// RepayFlashLoan runs §4.7's repay path.
func (e *Engine) RepayFlashLoan(ctx context.Context, req RepayFlashLoanRequest) (flashloan.RepayBreakdown, error) {
	if !req.ProtocolFeeDestination.Equals(req.Protocol.Destination) {
		return flashloan.RepayBreakdown{}, poolerr.ErrWrongProtocolFeeDestination
	}
	if err := e.verifyPda(req.Reserves, func() (solana.PublicKey, uint8, error) {
		return pooldomain.ReservesAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return flashloan.RepayBreakdown{}, err
	}
	if err := e.verifyPda(req.FlashAccountAddr, func() (solana.PublicKey, uint8, error) {
		return pooldomain.FlashAccountAddress(e.ProgramID, req.Pool)
	}); err != nil {
		return flashloan.RepayBreakdown{}, err
	}

	breakdown, err := flashloan.Repay(req.CurrentFlashAccount, req.FlashFee, req.Protocol, req.Referrer != nil)
	if err != nil {
		return flashloan.RepayBreakdown{}, err
	}

	if err := e.System.Transfer(ctx, req.Repayer, req.Reserves, breakdown.RepayLamports); err != nil {
		return flashloan.RepayBreakdown{}, fmt.Errorf("collect repayment: %w", err)
	}

	lamportsToProtocol := breakdown.ProtocolSplit.ProtocolPayout
	if req.Referrer != nil && breakdown.ProtocolSplit.ReferrerCut > 0 {
		if err := e.System.Transfer(ctx, req.Reserves, *req.Referrer, breakdown.ProtocolSplit.ReferrerCut); err != nil {
			return flashloan.RepayBreakdown{}, fmt.Errorf("pay referrer: %w", err)
		}
	}
	if lamportsToProtocol > 0 {
		if err := e.System.Transfer(ctx, req.Reserves, req.ProtocolFeeDestination, lamportsToProtocol); err != nil {
			return flashloan.RepayBreakdown{}, fmt.Errorf("pay protocol: %w", err)
		}
	}

	if err := e.System.CloseToSystem(ctx, req.FlashAccountAddr, req.Reserves); err != nil {
		return flashloan.RepayBreakdown{}, fmt.Errorf("close flash account: %w", err)
	}

	e.log.Info("repay-flash-loan",
		zap.Uint64("borrowed", breakdown.Borrowed),
		zap.Uint64("fee", breakdown.FlashFee),
		zap.Uint64("protocol_payout", breakdown.ProtocolSplit.ProtocolPayout),
	)
	return breakdown, nil
}

// SetFee checks signer against the pool's fee authority, validates and
// returns a new fee for the pool to persist; it performs no CPIs of its
// own, matching §4.8's validation gate.
func (e *Engine) SetFee(pool pooldomain.Pool, signer solana.PublicKey, f fee.Fee) (fee.Fee, error) {
	if !signer.Equals(pool.FeeAuthority) {
		return fee.Fee{}, poolerr.ErrInvalidFeeAuthority
	}
	if err := f.Validate(); err != nil {
		return fee.Fee{}, err
	}
	return f, nil
}

// SetFlashLoanFee checks signer against the pool's fee authority,
// validates and returns a new flash-loan fee.
func (e *Engine) SetFlashLoanFee(pool pooldomain.Pool, signer solana.PublicKey, f flashloan.Fee) (flashloan.Fee, error) {
	if !signer.Equals(pool.FeeAuthority) {
		return flashloan.Fee{}, poolerr.ErrInvalidFeeAuthority
	}
	if err := f.Validate(); err != nil {
		return flashloan.Fee{}, err
	}
	return f, nil
}

// SetProtocolFee checks signer against the current protocol fee
// authority, validates and returns the new protocol fee parameters.
func (e *Engine) SetProtocolFee(current protocolfee.ProtocolFee, signer solana.PublicKey, next protocolfee.ProtocolFee) (protocolfee.ProtocolFee, error) {
	if !signer.Equals(current.Authority) {
		return protocolfee.ProtocolFee{}, poolerr.ErrInvalidProtocolFeeAuthority
	}
	if err := next.Validate(); err != nil {
		return protocolfee.ProtocolFee{}, err
	}
	return next, nil
}

// verifyPda re-derives a PDA via derive and requires it match supplied,
// per §4.9: every consumed PDA must verify its derivation bit-for-bit.
func (e *Engine) verifyPda(supplied solana.PublicKey, derive func() (solana.PublicKey, uint8, error)) error {
	expected, _, err := derive()
	if err != nil {
		return fmt.Errorf("derive pda: %w", err)
	}
	if !expected.Equals(supplied) {
		return poolerr.ErrPdaBumpNotCached
	}
	return nil
}
