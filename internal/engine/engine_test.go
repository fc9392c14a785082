package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanctumfi/unstake-pool/internal/collab"
	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/flashloan"
	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/poolerr"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
	"github.com/sanctumfi/unstake-pool/internal/stakerecord"
	"github.com/sanctumfi/unstake-pool/pkg/config"
	"github.com/sanctumfi/unstake-pool/pkg/logger"
)

// transfer is one recorded System.Transfer call, kept in order so
// tests can assert on payout sequencing.
type transfer struct {
	from, to solana.PublicKey
	lamports uint64
}

type fakeRuntime struct {
	transfers    []transfer
	authorized   []solana.PublicKey
	closed       []solana.PublicKey
	minted       uint64
	burned       uint64
	syncedNative bool
	isWrapped    bool
	instructions []collab.PendingInstruction
	currentIndex uint16

	authorizedResult collab.StakeAuthorized
	authorizedErr    error
	lockupResult     collab.StakeLockup
	lockupErr        error
	mintOfResult     solana.PublicKey
	mintOfErr        error
}

func (f *fakeRuntime) Lamports(ctx context.Context, stakeAccount solana.PublicKey) (uint64, error) {
	return 0, nil
}
func (f *fakeRuntime) Authorized(ctx context.Context, stakeAccount solana.PublicKey) (collab.StakeAuthorized, error) {
	return f.authorizedResult, f.authorizedErr
}
func (f *fakeRuntime) Lockup(ctx context.Context, stakeAccount solana.PublicKey) (collab.StakeLockup, error) {
	return f.lockupResult, f.lockupErr
}
func (f *fakeRuntime) AuthorizeStakerAndWithdrawer(ctx context.Context, stakeAccount, currentWithdrawer, newAuthority solana.PublicKey) error {
	f.authorized = append(f.authorized, stakeAccount)
	return nil
}
func (f *fakeRuntime) Deactivate(ctx context.Context, stakeAccount, staker solana.PublicKey) error {
	return nil
}
func (f *fakeRuntime) Withdraw(ctx context.Context, stakeAccount, withdrawer, destination solana.PublicKey, lamports uint64) error {
	f.transfers = append(f.transfers, transfer{stakeAccount, destination, lamports})
	return nil
}

func (f *fakeRuntime) MintTo(ctx context.Context, mint, destination, mintAuthority solana.PublicKey, amount uint64) error {
	f.minted += amount
	return nil
}
func (f *fakeRuntime) Burn(ctx context.Context, mint, source, owner solana.PublicKey, amount uint64) error {
	f.burned += amount
	return nil
}
func (f *fakeRuntime) SyncNative(ctx context.Context, tokenAccount solana.PublicKey) error {
	f.syncedNative = true
	return nil
}
func (f *fakeRuntime) IsWrappedNative(ctx context.Context, tokenAccount solana.PublicKey) (bool, error) {
	return f.isWrapped, nil
}
func (f *fakeRuntime) MintOf(ctx context.Context, tokenAccount solana.PublicKey) (solana.PublicKey, error) {
	return f.mintOfResult, f.mintOfErr
}

func (f *fakeRuntime) Transfer(ctx context.Context, from, to solana.PublicKey, lamports uint64) error {
	f.transfers = append(f.transfers, transfer{from, to, lamports})
	return nil
}
func (f *fakeRuntime) AllocateAssign(ctx context.Context, pda solana.PublicKey, space uint64, owner solana.PublicKey) error {
	return nil
}
func (f *fakeRuntime) CloseToSystem(ctx context.Context, pda, destination solana.PublicKey) error {
	f.closed = append(f.closed, pda)
	return nil
}
func (f *fakeRuntime) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	return false, nil
}

func (f *fakeRuntime) CurrentIndex(ctx context.Context) (uint16, error) {
	return f.currentIndex, nil
}
func (f *fakeRuntime) InstructionAt(ctx context.Context, index uint16) (collab.PendingInstruction, error) {
	i := int(index) - int(f.currentIndex) - 1
	if i < 0 || i >= len(f.instructions) {
		return collab.PendingInstruction{}, errInstructionIndexOutOfRange
	}
	return f.instructions[i], nil
}

var errInstructionIndexOutOfRange = errors.New("instruction index out of range")

func newTestEngine(rt *fakeRuntime) (*Engine, solana.PublicKey) {
	programID := solana.NewWallet().PublicKey()
	log := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	return New(programID, rt, rt, rt, rt, log), programID
}

func mustReserves(t *testing.T, programID, pool solana.PublicKey) solana.PublicKey {
	t.Helper()
	addr, _, err := pooldomain.ReservesAddress(programID, pool)
	require.NoError(t, err)
	return addr
}

func mustFlashAccount(t *testing.T, programID, pool solana.PublicKey) solana.PublicKey {
	t.Helper()
	addr, _, err := pooldomain.FlashAccountAddress(programID, pool)
	require.NoError(t, err)
	return addr
}

func mustStakeRecord(t *testing.T, programID, pool, stakeAccount solana.PublicKey) solana.PublicKey {
	t.Helper()
	addr, _, err := pooldomain.StakeAccountRecordAddress(programID, pool, stakeAccount)
	require.NoError(t, err)
	return addr
}

func TestUnstakeScenarioS2(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey(), IncomingStake: 0}
	req := UnstakeRequest{
		Unstaker:               unstaker,
		StakeAccount:           solana.NewWallet().PublicKey(),
		Destination:            solana.NewWallet().PublicKey(),
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool.Address),
		ReservesLamports:       10_000_000_000,
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest, FeeRatio: rational.Rational{Num: 0, Denom: 1}, ReferrerFeeRatio: rational.Rational{Num: 0, Denom: 1}},
		ProtocolFeeDestination: protocolDest,
		StakeAccountLamports:   1_000_000_000,
	}

	result, err := e.Unstake(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), result.FeeLamports)
	assert.Equal(t, uint64(990_000_000), result.PayoutToUnstaker)
	assert.Equal(t, uint64(1_000_000_000), result.NewIncomingStake)
	assert.Equal(t, req.StakeAccountLamports, result.Record.LamportsAtCreation)
	assert.Len(t, rt.authorized, 1)
}

func TestUnstakeWithProtocolAndReferrerSplit(t *testing.T) {
	referrer := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()
	unstaker := solana.NewWallet().PublicKey()

	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey()}
	req := UnstakeRequest{
		Unstaker:               unstaker,
		StakeAccount:           solana.NewWallet().PublicKey(),
		Destination:            destination,
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool.Address),
		ReservesLamports:       10_000_000_000,
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest, FeeRatio: rational.Rational{Num: 1, Denom: 10}, ReferrerFeeRatio: rational.Rational{Num: 1, Denom: 2}},
		ProtocolFeeDestination: protocolDest,
		Referrer:               &referrer,
		StakeAccountLamports:   1_000_000_000,
	}

	result, err := e.Unstake(context.Background(), req)
	require.NoError(t, err)
	// fee = 10M, protocol_cut = 1M, referrer_cut = 500k, protocol_payout = 500k, pool_retained = 9M
	assert.Equal(t, uint64(500_000), result.ProtocolSplit.ReferrerCut)
	assert.Equal(t, uint64(500_000), result.ProtocolSplit.ProtocolPayout)
	assert.Equal(t, uint64(9_000_000), result.ProtocolSplit.PoolRetained)

	require.Len(t, rt.transfers, 3)
	assert.Equal(t, destination, rt.transfers[0].to)
	assert.Equal(t, referrer, rt.transfers[1].to)
	assert.Equal(t, protocolDest, rt.transfers[2].to)
}

func TestUnstakeFailsWhenLockupInForce(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{
		authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker},
		lockupResult:     collab.StakeLockup{Epoch: 500},
	}
	e, _ := newTestEngine(rt)

	req := UnstakeRequest{
		Unstaker:             unstaker,
		Pool:                 pooldomain.Pool{},
		FeeModel:             fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:             protocolfee.ProtocolFee{},
		CurrentEpoch:         100,
		StakeAccountLamports: 1_000_000_000,
	}

	_, err := e.Unstake(context.Background(), req)
	assert.True(t, poolerr.As(err, poolerr.CodeStakeAccountLockupInForce))
}

func TestUnstakeFailsWhenStakeAccountNotOwned(t *testing.T) {
	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: solana.NewWallet().PublicKey()}}
	e, _ := newTestEngine(rt)

	req := UnstakeRequest{
		Unstaker:             solana.NewWallet().PublicKey(),
		Pool:                 pooldomain.Pool{},
		FeeModel:             fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:             protocolfee.ProtocolFee{},
		StakeAccountLamports: 1_000_000_000,
	}

	_, err := e.Unstake(context.Background(), req)
	assert.True(t, poolerr.As(err, poolerr.CodeStakeAccountNotOwned))
}

func TestUnstakeFailsWhenAuthorizedNotRetrievable(t *testing.T) {
	rt := &fakeRuntime{authorizedErr: errors.New("account not found")}
	e, _ := newTestEngine(rt)

	_, err := e.Unstake(context.Background(), UnstakeRequest{
		Pool:     pooldomain.Pool{},
		FeeModel: fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol: protocolfee.ProtocolFee{},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeStakeAccountAuthorizedNotRetrievable))
}

func TestUnstakeFailsWhenLockupNotRetrievable(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{
		authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker},
		lockupErr:        errors.New("account not found"),
	}
	e, _ := newTestEngine(rt)

	_, err := e.Unstake(context.Background(), UnstakeRequest{
		Unstaker: unstaker,
		Pool:     pooldomain.Pool{},
		FeeModel: fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol: protocolfee.ProtocolFee{},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeStakeAccountLockupNotRetrievable))
}

func TestUnstakeFailsWhenProtocolFeeDestinationWrong(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, _ := newTestEngine(rt)

	_, err := e.Unstake(context.Background(), UnstakeRequest{
		Unstaker:               unstaker,
		Pool:                   pooldomain.Pool{},
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: solana.NewWallet().PublicKey()},
		ProtocolFeeDestination: solana.NewWallet().PublicKey(),
	})
	assert.True(t, poolerr.As(err, poolerr.CodeWrongProtocolFeeDestination))
}

func TestUnstakeFailsWhenReservesPdaMismatch(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, _ := newTestEngine(rt)

	_, err := e.Unstake(context.Background(), UnstakeRequest{
		Unstaker:               unstaker,
		Pool:                   pooldomain.Pool{Address: solana.NewWallet().PublicKey()},
		Reserves:               solana.NewWallet().PublicKey(), // not a derived PDA
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest},
		ProtocolFeeDestination: protocolDest,
	})
	assert.True(t, poolerr.As(err, poolerr.CodePdaBumpNotCached))
}

func TestUnstakeFailsWhenReservesTooLow(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey()}
	req := UnstakeRequest{
		Unstaker:               unstaker,
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool.Address),
		ReservesLamports:       1,
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest, FeeRatio: rational.Rational{Num: 0, Denom: 1}},
		ProtocolFeeDestination: protocolDest,
		StakeAccountLamports:   1_000_000_000,
	}

	_, err := e.Unstake(context.Background(), req)
	assert.True(t, poolerr.As(err, poolerr.CodeNotEnoughLiquidity))
}

func TestUnstakeWsolRequiresWrappedDestination(t *testing.T) {
	rt := &fakeRuntime{isWrapped: false}
	e, _ := newTestEngine(rt)

	_, err := e.UnstakeWsol(context.Background(), UnstakeRequest{
		Pool:     pooldomain.Pool{},
		FeeModel: fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol: protocolfee.ProtocolFee{},
	}, solana.NewWallet().PublicKey())
	assert.True(t, poolerr.As(err, poolerr.CodeDestinationNotWsol))
}

func TestUnstakeWsolSyncsDestination(t *testing.T) {
	unstaker := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{isWrapped: true, authorizedResult: collab.StakeAuthorized{Withdrawer: unstaker}}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey()}
	req := UnstakeRequest{
		Unstaker:               unstaker,
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool.Address),
		ReservesLamports:       10_000_000_000,
		FeeModel:               fee.Flat(rational.Rational{Num: 1, Denom: 100}),
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest, FeeRatio: rational.Rational{Num: 0, Denom: 1}},
		ProtocolFeeDestination: protocolDest,
		StakeAccountLamports:   1_000_000_000,
	}

	_, err := e.UnstakeWsol(context.Background(), req, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.True(t, rt.syncedNative)
}

func TestReclaimDecrementsByRecordedNotActual(t *testing.T) {
	rt := &fakeRuntime{}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey(), IncomingStake: 5_000_000_000}
	stakeAccount := solana.NewWallet().PublicKey()
	req := ReclaimRequest{
		Pool:     pool,
		Reserves: mustReserves(t, programID, pool.Address),
		StakeAccount: stakeAccount,
		Record: stakerecord.Record{
			Address:            mustStakeRecord(t, programID, pool.Address, stakeAccount),
			LamportsAtCreation: 1_000_000_000,
		},
		ActualWithdrawn: 1_000_050_000,
	}

	result, err := e.Reclaim(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_000_000_000), result.NewIncomingStake)
	assert.Equal(t, int64(50_000), result.RewardsAccrued)
	assert.Len(t, rt.closed, 1)
}

func TestReclaimFailsWhenRecordPdaMismatch(t *testing.T) {
	rt := &fakeRuntime{}
	e, programID := newTestEngine(rt)

	pool := pooldomain.Pool{Address: solana.NewWallet().PublicKey(), IncomingStake: 5_000_000_000}
	req := ReclaimRequest{
		Pool:     pool,
		Reserves: mustReserves(t, programID, pool.Address),
		Record:   stakerecord.Record{Address: solana.NewWallet().PublicKey(), LamportsAtCreation: 1_000_000_000},
	}

	_, err := e.Reclaim(context.Background(), req)
	assert.True(t, poolerr.As(err, poolerr.CodePdaBumpNotCached))
}

func TestAddLiquidityEmptyPoolMintsOneToOne(t *testing.T) {
	lpMint := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{mintOfResult: lpMint}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	minted, err := e.AddLiquidity(context.Background(), AddLiquidityRequest{
		Pool:          pool,
		Reserves:      mustReserves(t, programID, pool),
		LpMint:        lpMint,
		MintTo:        solana.NewWallet().PublicKey(),
		OwnedLamports: 0,
		LpSupply:      0,
		Amount:        1_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), minted)
	assert.Equal(t, uint64(1_000_000_000), rt.minted)
}

func TestAddLiquidityRejectsWrongLpTokenAccount(t *testing.T) {
	rt := &fakeRuntime{mintOfResult: solana.NewWallet().PublicKey()}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	_, err := e.AddLiquidity(context.Background(), AddLiquidityRequest{
		Pool:     pool,
		Reserves: mustReserves(t, programID, pool),
		LpMint:   solana.NewWallet().PublicKey(),
		MintTo:   solana.NewWallet().PublicKey(),
		Amount:   1_000_000_000,
	})
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidLpTokenAccount))
}

func TestRemoveLiquidityProportional(t *testing.T) {
	lpMint := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{mintOfResult: lpMint}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	toReturn, err := e.RemoveLiquidity(context.Background(), RemoveLiquidityRequest{
		Pool:          pool,
		Reserves:      mustReserves(t, programID, pool),
		LpMint:        lpMint,
		BurnFrom:      solana.NewWallet().PublicKey(),
		OwnedLamports: 10_000_000_000,
		LpSupply:      10_000_000_000,
		AmountLp:      1_000_000_000,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), toReturn)
	assert.Equal(t, uint64(1_000_000_000), rt.burned)
}

func TestRemoveLiquidityRejectsWrongLpTokenAccount(t *testing.T) {
	rt := &fakeRuntime{mintOfResult: solana.NewWallet().PublicKey()}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	_, err := e.RemoveLiquidity(context.Background(), RemoveLiquidityRequest{
		Pool:     pool,
		Reserves: mustReserves(t, programID, pool),
		LpMint:   solana.NewWallet().PublicKey(),
		BurnFrom: solana.NewWallet().PublicKey(),
		AmountLp: 1_000_000_000,
	})
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidLpTokenAccount))
}

func TestTakeFlashLoanRequiresSucceedingRepay(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{currentIndex: 0, instructions: nil}
	log := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	e := New(programID, rt, rt, rt, rt, log)

	_, err := e.TakeFlashLoan(context.Background(), TakeFlashLoanRequest{
		Pool:                       pool,
		Reserves:                   mustReserves(t, programID, pool),
		FlashAccountAddr:           mustFlashAccount(t, programID, pool),
		InstructionsSysvarAccount:  solana.SysVarInstructionsPubkey,
		Lamports:                   1_000_000,
		FlashAccountAllocated:      false,
		FlashAccountSeeded:         false,
		CurrentFlashAccount:        flashloan.Account{Pool: pool},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeNoSucceedingRepay))
}

func TestTakeFlashLoanSucceedsWithMatchingRepay(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{
		currentIndex: 0,
		instructions: []collab.PendingInstruction{
			{ProgramID: programID, Data: ixcodec.RepayFlashLoan[:], Accounts: []solana.PublicKey{solana.NewWallet().PublicKey(), pool}},
		},
	}
	log := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	e := New(programID, rt, rt, rt, rt, log)

	account, err := e.TakeFlashLoan(context.Background(), TakeFlashLoanRequest{
		Pool:                      pool,
		Reserves:                  mustReserves(t, programID, pool),
		FlashAccountAddr:          mustFlashAccount(t, programID, pool),
		InstructionsSysvarAccount: solana.SysVarInstructionsPubkey,
		Lamports:                  1_000_000,
		FlashAccountAllocated:     false,
		FlashAccountSeeded:        false,
		CurrentFlashAccount:       flashloan.Account{Pool: pool},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), account.LamportsBorrowed)
}

// A later instruction can reference this pool at the right account slot
// (e.g. a second take-flash-loan) without being a repay; the discriminator
// check must reject it.
func TestTakeFlashLoanRejectsNonRepaySucceedingInstruction(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{
		currentIndex: 0,
		instructions: []collab.PendingInstruction{
			{ProgramID: programID, Data: make([]byte, 8), Accounts: []solana.PublicKey{solana.NewWallet().PublicKey(), pool}},
		},
	}
	log := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	e := New(programID, rt, rt, rt, rt, log)

	_, err := e.TakeFlashLoan(context.Background(), TakeFlashLoanRequest{
		Pool:                      pool,
		Reserves:                  mustReserves(t, programID, pool),
		FlashAccountAddr:          mustFlashAccount(t, programID, pool),
		InstructionsSysvarAccount: solana.SysVarInstructionsPubkey,
		Lamports:                  1_000_000,
		FlashAccountAllocated:     false,
		FlashAccountSeeded:        false,
		CurrentFlashAccount:       flashloan.Account{Pool: pool},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeNoSucceedingRepay))
}

func TestTakeFlashLoanRejectsWrongInstructionsSysvar(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	pool := solana.NewWallet().PublicKey()
	rt := &fakeRuntime{}
	log := logger.New(config.LoggingConfig{Level: "error", Format: "console", Output: "stdout"})
	e := New(programID, rt, rt, rt, rt, log)

	_, err := e.TakeFlashLoan(context.Background(), TakeFlashLoanRequest{
		Pool:                      pool,
		Reserves:                  mustReserves(t, programID, pool),
		FlashAccountAddr:          mustFlashAccount(t, programID, pool),
		InstructionsSysvarAccount: solana.NewWallet().PublicKey(),
		Lamports:                  1_000_000,
		CurrentFlashAccount:       flashloan.Account{Pool: pool},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidInstructionsSysvar))
}

func TestRepayFlashLoanScenarioS6(t *testing.T) {
	rt := &fakeRuntime{}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	protocolDest := solana.NewWallet().PublicKey()

	breakdown, err := e.RepayFlashLoan(context.Background(), RepayFlashLoanRequest{
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool),
		FlashAccountAddr:       mustFlashAccount(t, programID, pool),
		ProtocolFeeDestination: protocolDest,
		CurrentFlashAccount:    flashloan.Account{Pool: pool, LamportsBorrowed: 10_000_000_000},
		FlashFee:               flashloan.Fee{FeeRatio: rational.Rational{Num: 1, Denom: 1000}},
		Protocol:               protocolfee.ProtocolFee{Destination: protocolDest, FeeRatio: rational.Rational{Num: 1, Denom: 10}},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), breakdown.FlashFee)
	assert.Equal(t, uint64(10_010_000_000), breakdown.RepayLamports)
	assert.Equal(t, uint64(1_000_000), breakdown.ProtocolSplit.ProtocolPayout)
	assert.Len(t, rt.closed, 1)
}

func TestRepayFlashLoanRejectsWrongProtocolFeeDestination(t *testing.T) {
	rt := &fakeRuntime{}
	e, programID := newTestEngine(rt)

	pool := solana.NewWallet().PublicKey()
	_, err := e.RepayFlashLoan(context.Background(), RepayFlashLoanRequest{
		Pool:                   pool,
		Reserves:               mustReserves(t, programID, pool),
		FlashAccountAddr:       mustFlashAccount(t, programID, pool),
		ProtocolFeeDestination: solana.NewWallet().PublicKey(),
		Protocol:               protocolfee.ProtocolFee{Destination: solana.NewWallet().PublicKey()},
		CurrentFlashAccount:    flashloan.Account{Pool: pool, LamportsBorrowed: 10_000_000_000},
		FlashFee:               flashloan.Fee{FeeRatio: rational.Rational{Num: 1, Denom: 1000}},
	})
	assert.True(t, poolerr.As(err, poolerr.CodeWrongProtocolFeeDestination))
}

func TestSetFeeRejectsInvalid(t *testing.T) {
	rt := &fakeRuntime{}
	e, _ := newTestEngine(rt)

	signer := solana.NewWallet().PublicKey()
	pool := pooldomain.Pool{FeeAuthority: signer}

	_, err := e.SetFee(pool, signer, fee.Flat(rational.Rational{Num: 2, Denom: 1}))
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidFee))
}

func TestSetFeeRejectsWrongAuthority(t *testing.T) {
	rt := &fakeRuntime{}
	e, _ := newTestEngine(rt)

	pool := pooldomain.Pool{FeeAuthority: solana.NewWallet().PublicKey()}

	_, err := e.SetFee(pool, solana.NewWallet().PublicKey(), fee.Flat(rational.Rational{Num: 1, Denom: 100}))
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidFeeAuthority))
}

func TestSetFlashLoanFeeRejectsWrongAuthority(t *testing.T) {
	rt := &fakeRuntime{}
	e, _ := newTestEngine(rt)

	pool := pooldomain.Pool{FeeAuthority: solana.NewWallet().PublicKey()}

	_, err := e.SetFlashLoanFee(pool, solana.NewWallet().PublicKey(), flashloan.Fee{FeeRatio: rational.Rational{Num: 1, Denom: 100}})
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidFeeAuthority))
}

func TestSetProtocolFeeRejectsWrongAuthority(t *testing.T) {
	rt := &fakeRuntime{}
	e, _ := newTestEngine(rt)

	current := protocolfee.ProtocolFee{Authority: solana.NewWallet().PublicKey()}

	_, err := e.SetProtocolFee(current, solana.NewWallet().PublicKey(), protocolfee.ProtocolFee{
		Destination: solana.NewWallet().PublicKey(),
		Authority:   current.Authority,
	})
	assert.True(t, poolerr.As(err, poolerr.CodeInvalidProtocolFeeAuthority))
}
