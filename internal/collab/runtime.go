package collab

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/sanctumfi/unstake-pool/pkg/config"
	"github.com/sanctumfi/unstake-pool/pkg/logger"
)

// stake program instruction variants, bincode-encoded as a little-endian
// u32 tag followed by the variant's fields. These match the native
// stake program's wire format; the engine never constructs them
// directly, only through this collaborator.
const (
	stakeInstrAuthorize  uint32 = 1
	stakeInstrDeactivate uint32 = 5
	stakeInstrWithdraw   uint32 = 4
)

const (
	stakeAuthorizeStaker     uint32 = 0
	stakeAuthorizeWithdrawer uint32 = 1
)

// Runtime is the RPC-backed implementation of StakeRuntime, TokenRuntime,
// SystemRuntime and InstructionsSysvar, submitting real transactions to
// a Solana-family cluster on behalf of the pool's reserves signer.
type Runtime struct {
	rpcClient *rpc.Client
	signer    solana.PrivateKey
	cfg       config.SolanaNetworkConfig
	log       *logger.Logger
}

// NewRuntime dials the configured RPC endpoint and returns a Runtime
// that signs every submitted transaction with signer.
func NewRuntime(cfg config.SolanaNetworkConfig, signer solana.PrivateKey, log *logger.Logger) *Runtime {
	return &Runtime{
		rpcClient: rpc.New(cfg.RPCURL),
		signer:    signer,
		cfg:       cfg,
		log:       log.Named("collab"),
	}
}

func (r *Runtime) commitment() rpc.CommitmentType {
	if r.cfg.Commitment == "" {
		return rpc.CommitmentConfirmed
	}
	return rpc.CommitmentType(r.cfg.Commitment)
}

// submit builds, signs and sends a transaction containing ixs, paid for
// and signed by the runtime's signer plus any extra signers supplied.
func (r *Runtime) submit(ctx context.Context, ixs []solana.Instruction, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	recent, err := r.rpcClient.GetLatestBlockhash(ctx, r.commitment())
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(r.signer.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	signers := map[solana.PublicKey]solana.PrivateKey{r.signer.PublicKey(): r.signer}
	for _, s := range extraSigners {
		signers[s.PublicKey()] = s
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if s, ok := signers[key]; ok {
			return &s
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := r.rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	r.log.Info("submitted transaction", zap.String("signature", sig.String()))
	return sig, nil
}

// rawInstruction is a plain program call built from a raw account-meta
// list and opaque data, used for stake-program instructions this
// library's higher-level builders don't cover.
type rawInstruction struct {
	programID solana.PublicKey
	accounts  solana.AccountMetaSlice
	data      []byte
}

func (i rawInstruction) ProgramID() solana.PublicKey                { return i.programID }
func (i rawInstruction) Accounts() (solana.AccountMetaSlice, error) { return i.accounts, nil }
func (i rawInstruction) Data() ([]byte, error)                      { return i.data, nil }

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// Lamports reads a stake account's total lamport balance.
func (r *Runtime) Lamports(ctx context.Context, stakeAccount solana.PublicKey) (uint64, error) {
	info, err := r.rpcClient.GetBalance(ctx, stakeAccount, r.commitment())
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return info.Value, nil
}

// Native stake account layout: a 4-byte StakeStateV2 tag, then Meta
// (rent_exempt_reserve, Authorized{staker, withdrawer}, Lockup{unix_timestamp,
// epoch, custodian}). Both Initialized and Stake variants carry Meta at the
// same offset.
const (
	stakeMetaTagLen            = 4
	stakeMetaRentReserveLen    = 8
	stakeMetaStakerOffset      = stakeMetaTagLen + stakeMetaRentReserveLen
	stakeMetaWithdrawerOffset  = stakeMetaStakerOffset + 32
	stakeMetaLockupOffset      = stakeMetaWithdrawerOffset + 32
	stakeMetaLockupUnixTsLen   = 8
	stakeMetaLockupEpochOffset = stakeMetaLockupOffset + stakeMetaLockupUnixTsLen
	stakeMetaLen               = stakeMetaLockupEpochOffset + 8 + 32
)

func (r *Runtime) fetchStakeAccountData(ctx context.Context, stakeAccount solana.PublicKey) ([]byte, error) {
	info, err := r.rpcClient.GetAccountInfo(ctx, stakeAccount)
	if err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}
	data := info.Value.Data.GetBinary()
	if len(data) < stakeMetaLen {
		return nil, fmt.Errorf("stake account %s: data too short for a Meta", stakeAccount)
	}
	return data, nil
}

// Authorized decodes the stake account's Meta.Authorized field.
func (r *Runtime) Authorized(ctx context.Context, stakeAccount solana.PublicKey) (StakeAuthorized, error) {
	data, err := r.fetchStakeAccountData(ctx, stakeAccount)
	if err != nil {
		return StakeAuthorized{}, err
	}
	var staker, withdrawer solana.PublicKey
	copy(staker[:], data[stakeMetaStakerOffset:stakeMetaWithdrawerOffset])
	copy(withdrawer[:], data[stakeMetaWithdrawerOffset:stakeMetaLockupOffset])
	return StakeAuthorized{Staker: staker, Withdrawer: withdrawer}, nil
}

// Lockup decodes the stake account's Meta.Lockup field.
func (r *Runtime) Lockup(ctx context.Context, stakeAccount solana.PublicKey) (StakeLockup, error) {
	data, err := r.fetchStakeAccountData(ctx, stakeAccount)
	if err != nil {
		return StakeLockup{}, err
	}
	unixTimestamp := int64(binary.LittleEndian.Uint64(data[stakeMetaLockupOffset:stakeMetaLockupEpochOffset]))
	epoch := binary.LittleEndian.Uint64(data[stakeMetaLockupEpochOffset : stakeMetaLockupEpochOffset+8])
	var custodian solana.PublicKey
	copy(custodian[:], data[stakeMetaLockupEpochOffset+8:stakeMetaLen])
	return StakeLockup{UnixTimestamp: unixTimestamp, Epoch: epoch, Custodian: custodian}, nil
}

// AuthorizeStakerAndWithdrawer issues two native-stake-program Authorize
// CPIs, re-pointing both authorities at newAuthority.
func (r *Runtime) AuthorizeStakerAndWithdrawer(ctx context.Context, stakeAccount, currentWithdrawer, newAuthority solana.PublicKey) error {
	build := func(which uint32) rawInstruction {
		data := append(u32le(stakeInstrAuthorize), newAuthority.Bytes()...)
		data = append(data, u32le(which)...)
		return rawInstruction{
			programID: solana.StakeProgramID,
			accounts: solana.AccountMetaSlice{
				solana.NewAccountMeta(stakeAccount, true, false),
				solana.NewAccountMeta(solana.SysVarClockPubkey, false, false),
				solana.NewAccountMeta(currentWithdrawer, false, true),
			},
			data: data,
		}
	}

	ixs := []solana.Instruction{build(stakeAuthorizeStaker), build(stakeAuthorizeWithdrawer)}
	_, err := r.submit(ctx, ixs)
	return err
}

// Deactivate issues a native-stake-program Deactivate CPI.
func (r *Runtime) Deactivate(ctx context.Context, stakeAccount, staker solana.PublicKey) error {
	ix := rawInstruction{
		programID: solana.StakeProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(stakeAccount, true, false),
			solana.NewAccountMeta(solana.SysVarClockPubkey, false, false),
			solana.NewAccountMeta(staker, false, true),
		},
		data: u32le(stakeInstrDeactivate),
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// Withdraw issues a native-stake-program Withdraw CPI, moving lamports
// out of a fully-deactivated stake account.
func (r *Runtime) Withdraw(ctx context.Context, stakeAccount, withdrawer, destination solana.PublicKey, lamports uint64) error {
	data := append(u32le(stakeInstrWithdraw), u64le(lamports)...)
	ix := rawInstruction{
		programID: solana.StakeProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(stakeAccount, true, false),
			solana.NewAccountMeta(destination, true, false),
			solana.NewAccountMeta(solana.SysVarClockPubkey, false, false),
			solana.NewAccountMeta(solana.SysVarStakeHistoryPubkey, false, false),
			solana.NewAccountMeta(withdrawer, false, true),
		},
		data: data,
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// MintTo issues an SPL-token MintTo CPI.
func (r *Runtime) MintTo(ctx context.Context, mint, destination, mintAuthority solana.PublicKey, amount uint64) error {
	data := append([]byte{7}, u64le(amount)...) // TokenInstruction::MintTo = 7
	ix := rawInstruction{
		programID: solana.TokenProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(mint, true, false),
			solana.NewAccountMeta(destination, true, false),
			solana.NewAccountMeta(mintAuthority, false, true),
		},
		data: data,
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// Burn issues an SPL-token Burn CPI.
func (r *Runtime) Burn(ctx context.Context, mint, source, owner solana.PublicKey, amount uint64) error {
	data := append([]byte{8}, u64le(amount)...) // TokenInstruction::Burn = 8
	ix := rawInstruction{
		programID: solana.TokenProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(source, true, false),
			solana.NewAccountMeta(mint, true, false),
			solana.NewAccountMeta(owner, false, true),
		},
		data: data,
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// SyncNative issues an SPL-token SyncNative CPI.
func (r *Runtime) SyncNative(ctx context.Context, tokenAccount solana.PublicKey) error {
	ix := rawInstruction{
		programID: solana.TokenProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(tokenAccount, true, false),
		},
		data: []byte{17}, // TokenInstruction::SyncNative = 17
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// IsWrappedNative reads the token account and checks its mint against
// the well-known wrapped-SOL mint.
func (r *Runtime) IsWrappedNative(ctx context.Context, tokenAccount solana.PublicKey) (bool, error) {
	info, err := r.rpcClient.GetAccountInfo(ctx, tokenAccount)
	if err != nil {
		return false, fmt.Errorf("get account info: %w", err)
	}
	if info.Value == nil || len(info.Value.Data.GetBinary()) < 32 {
		return false, fmt.Errorf("token account not found or malformed")
	}
	var mint solana.PublicKey
	copy(mint[:], info.Value.Data.GetBinary()[:32])
	return mint.Equals(solana.WrappedSol), nil
}

// MintOf reads an SPL-token account's mint field, the first 32 bytes
// of its data.
func (r *Runtime) MintOf(ctx context.Context, tokenAccount solana.PublicKey) (solana.PublicKey, error) {
	info, err := r.rpcClient.GetAccountInfo(ctx, tokenAccount)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get account info: %w", err)
	}
	if info.Value == nil || len(info.Value.Data.GetBinary()) < 32 {
		return solana.PublicKey{}, fmt.Errorf("token account not found or malformed")
	}
	var mint solana.PublicKey
	copy(mint[:], info.Value.Data.GetBinary()[:32])
	return mint, nil
}

// Transfer issues a system-program Transfer CPI.
func (r *Runtime) Transfer(ctx context.Context, from, to solana.PublicKey, lamports uint64) error {
	data := append(u32le(2), u64le(lamports)...) // SystemInstruction::Transfer = 2
	ix := rawInstruction{
		programID: solana.SystemProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(from, true, true),
			solana.NewAccountMeta(to, true, false),
		},
		data: data,
	}
	_, err := r.submit(ctx, []solana.Instruction{ix})
	return err
}

// AllocateAssign issues system-program Allocate and Assign CPIs against
// a PDA, the split-up equivalent of CreateAccount used when the payer
// cannot sign for the new account (it has no private key).
func (r *Runtime) AllocateAssign(ctx context.Context, pda solana.PublicKey, space uint64, owner solana.PublicKey) error {
	allocate := rawInstruction{
		programID: solana.SystemProgramID,
		accounts:  solana.AccountMetaSlice{solana.NewAccountMeta(pda, true, true)},
		data:      append(u32le(8), u64le(space)...), // SystemInstruction::Allocate = 8
	}
	assign := rawInstruction{
		programID: solana.SystemProgramID,
		accounts:  solana.AccountMetaSlice{solana.NewAccountMeta(pda, true, true)},
		data:      append(u32le(1), owner.Bytes()...), // SystemInstruction::Assign = 1
	}
	_, err := r.submit(ctx, []solana.Instruction{allocate, assign})
	return err
}

// CloseToSystem zeroes a PDA's data, drains its lamports to destination
// and reassigns it back to the system program. Solana has no single
// "close" system instruction; this is modeled as a transfer of the
// remaining lamports followed by an Assign back to the system program,
// which only succeeds once the account's data has already been
// reallocated to zero length by its owning program.
func (r *Runtime) CloseToSystem(ctx context.Context, pda, destination solana.PublicKey) error {
	lamports, err := r.rpcClient.GetBalance(ctx, pda, r.commitment())
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}
	transfer := rawInstruction{
		programID: solana.SystemProgramID,
		accounts: solana.AccountMetaSlice{
			solana.NewAccountMeta(pda, true, true),
			solana.NewAccountMeta(destination, true, false),
		},
		data: append(u32le(2), u64le(lamports.Value)...),
	}
	assign := rawInstruction{
		programID: solana.SystemProgramID,
		accounts:  solana.AccountMetaSlice{solana.NewAccountMeta(pda, true, true)},
		data:      append(u32le(1), solana.SystemProgramID.Bytes()...),
	}
	_, err = r.submit(ctx, []solana.Instruction{transfer, assign})
	return err
}

// AccountExists reports whether the account has been allocated data.
func (r *Runtime) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := r.rpcClient.GetAccountInfo(ctx, account)
	if err != nil {
		if err == rpc.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("get account info: %w", err)
	}
	return info.Value != nil && len(info.Value.Data.GetBinary()) > 0, nil
}

// CurrentIndex reads the index of the currently-executing instruction
// from the instructions sysvar.
func (r *Runtime) CurrentIndex(ctx context.Context) (uint16, error) {
	info, err := r.rpcClient.GetAccountInfo(ctx, solana.SysVarInstructionsPubkey)
	if err != nil {
		return 0, fmt.Errorf("get instructions sysvar: %w", err)
	}
	data := info.Value.Data.GetBinary()
	if len(data) < 2 {
		return 0, fmt.Errorf("instructions sysvar too short")
	}
	return binary.LittleEndian.Uint16(data[len(data)-2:]), nil
}

// InstructionAt does not decode the instructions sysvar: it returns an
// error for every index, so a take-flash-loan check run through this
// Runtime never finds a succeeding repay.
func (r *Runtime) InstructionAt(ctx context.Context, index uint16) (PendingInstruction, error) {
	return PendingInstruction{}, fmt.Errorf("instruction sysvar decode at index %d not implemented by this collaborator", index)
}
