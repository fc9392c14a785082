package ixcodec

import (
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// instruction is the generic solana.Instruction implementation every
// builder below returns: a discriminator, Borsh-encoded args, and a
// positional account-meta list built to match §6's tables exactly.
type instruction struct {
	programID solana.PublicKey
	discrim   Discriminator
	args      interface{}
	accounts  solana.AccountMetaSlice
}

func (i instruction) ProgramID() solana.PublicKey { return i.programID }

func (i instruction) Accounts() (solana.AccountMetaSlice, error) {
	return i.accounts, nil
}

func (i instruction) Data() ([]byte, error) {
	buf := make([]byte, 0, 8+64)
	buf = append(buf, i.discrim[:]...)
	if i.args == nil {
		return buf, nil
	}
	encoded, err := bin.MarshalBorsh(i.args)
	if err != nil {
		return nil, err
	}
	return append(buf, encoded...), nil
}

// DataV2 is the Borsh layout of the metadata-program argument used by
// set-lp-token-metadata.
type DataV2 struct {
	Name   string
	Symbol string
	Uri    string
}

// metaBuilder is a small helper for building the positional account-meta
// slices in §6's table, signer/writable read left to right exactly as
// listed there.
type metaBuilder struct {
	metas solana.AccountMetaSlice
}

func (b *metaBuilder) add(pubkey solana.PublicKey, writable, signer bool) *metaBuilder {
	b.metas = append(b.metas, solana.NewAccountMeta(pubkey, writable, signer))
	return b
}

// NewInitProtocolFee builds init-protocol-fee:
// payer(WS), protocol_fee(W), system.
func NewInitProtocolFee(programID, payer, protocolFee solana.PublicKey) solana.Instruction {
	b := &metaBuilder{}
	b.add(payer, true, true).add(protocolFee, true, false).add(solana.SystemProgramID, false, false)
	return instruction{programID: programID, discrim: InitProtocolFee, accounts: b.metas}
}

// NewSetProtocolFee builds set-protocol-fee: authority(S), protocol_fee(W).
func NewSetProtocolFee(programID, authority, protocolFee solana.PublicKey, fee ProtocolFeeAccount) solana.Instruction {
	b := &metaBuilder{}
	b.add(authority, false, true).add(protocolFee, true, false)
	args := struct {
		FeeRatio         RationalWire
		ReferrerFeeRatio RationalWire
	}{fee.FeeRatio, fee.ReferrerFeeRatio}
	return instruction{programID: programID, discrim: SetProtocolFee, args: args, accounts: b.metas}
}

// NewCreatePool builds create-pool:
// payer(WS), fee_authority(S), pool(WS), reserves, fee_account(W),
// lp_mint(WS), token, system, rent.
func NewCreatePool(programID, payer, feeAuthority, pool, reserves, feeAccount, lpMint solana.PublicKey, f FeeWire) solana.Instruction {
	b := &metaBuilder{}
	b.add(payer, true, true).
		add(feeAuthority, false, true).
		add(pool, true, true).
		add(reserves, false, false).
		add(feeAccount, true, false).
		add(lpMint, true, true).
		add(solana.TokenProgramID, false, false).
		add(solana.SystemProgramID, false, false).
		add(solana.SysVarRentPubkey, false, false)
	return instruction{programID: programID, discrim: CreatePool, args: f, accounts: b.metas}
}

// NewAddLiquidity builds add-liquidity:
// from(WS), pool(W), reserves(W), lp_mint(W), mint_to(W), token, system.
func NewAddLiquidity(programID, from, pool, reserves, lpMint, mintTo solana.PublicKey, amount uint64) solana.Instruction {
	b := &metaBuilder{}
	b.add(from, true, true).
		add(pool, true, false).
		add(reserves, true, false).
		add(lpMint, true, false).
		add(mintTo, true, false).
		add(solana.TokenProgramID, false, false).
		add(solana.SystemProgramID, false, false)
	args := struct{ Amount uint64 }{amount}
	return instruction{programID: programID, discrim: AddLiquidity, args: args, accounts: b.metas}
}

// NewRemoveLiquidity builds remove-liquidity:
// authority(S), to(W), pool(W), reserves(W), lp_mint(W), burn_from(W), token, system.
func NewRemoveLiquidity(programID, authority, to, pool, reserves, lpMint, burnFrom solana.PublicKey, amountLp uint64) solana.Instruction {
	b := &metaBuilder{}
	b.add(authority, false, true).
		add(to, true, false).
		add(pool, true, false).
		add(reserves, true, false).
		add(lpMint, true, false).
		add(burnFrom, true, false).
		add(solana.TokenProgramID, false, false).
		add(solana.SystemProgramID, false, false)
	args := struct{ AmountLp uint64 }{amountLp}
	return instruction{programID: programID, discrim: RemoveLiquidity, args: args, accounts: b.metas}
}

// NewSetFee builds set-fee:
// fee_authority(S), pool, fee_account(W), system, rent.
func NewSetFee(programID, feeAuthority, pool, feeAccount solana.PublicKey, f FeeWire) solana.Instruction {
	b := &metaBuilder{}
	b.add(feeAuthority, false, true).
		add(pool, false, false).
		add(feeAccount, true, false).
		add(solana.SystemProgramID, false, false).
		add(solana.SysVarRentPubkey, false, false)
	return instruction{programID: programID, discrim: SetFee, args: f, accounts: b.metas}
}

// NewSetFeeAuthority builds set-fee-authority:
// fee_authority(S), pool(W), new_authority.
func NewSetFeeAuthority(programID, feeAuthority, pool, newAuthority solana.PublicKey) solana.Instruction {
	b := &metaBuilder{}
	b.add(feeAuthority, false, true).add(pool, true, false).add(newAuthority, false, false)
	return instruction{programID: programID, discrim: SetFeeAuthority, accounts: b.metas}
}

// NewSetLpTokenMetadata builds set-lp-token-metadata:
// payer(WS), fee_authority(S), pool, reserves, lp_mint, metadata(W),
// metadata_program, system, rent.
func NewSetLpTokenMetadata(programID, payer, feeAuthority, pool, reserves, lpMint, metadata, metadataProgram solana.PublicKey, data DataV2) solana.Instruction {
	b := &metaBuilder{}
	b.add(payer, true, true).
		add(feeAuthority, false, true).
		add(pool, false, false).
		add(reserves, false, false).
		add(lpMint, false, false).
		add(metadata, true, false).
		add(metadataProgram, false, false).
		add(solana.SystemProgramID, false, false).
		add(solana.SysVarRentPubkey, false, false)
	return instruction{programID: programID, discrim: SetLpTokenMetadata, args: data, accounts: b.metas}
}

// NewDeactivateStakeAccount builds deactivate-stake-account:
// stake(W), pool, reserves, clock, stake_program.
func NewDeactivateStakeAccount(programID, stake, pool, reserves solana.PublicKey) solana.Instruction {
	b := &metaBuilder{}
	b.add(stake, true, false).
		add(pool, false, false).
		add(reserves, false, false).
		add(solana.SysVarClockPubkey, false, false).
		add(solana.StakeProgramID, false, false)
	return instruction{programID: programID, discrim: DeactivateStakeAccount, accounts: b.metas}
}

// NewReclaimStakeAccount builds reclaim-stake-account:
// stake(W), pool(W), reserves(W), record(W), clock, stake_history, stake_program.
func NewReclaimStakeAccount(programID, stake, pool, reserves, record solana.PublicKey) solana.Instruction {
	b := &metaBuilder{}
	b.add(stake, true, false).
		add(pool, true, false).
		add(reserves, true, false).
		add(record, true, false).
		add(solana.SysVarClockPubkey, false, false).
		add(solana.SysVarStakeHistoryPubkey, false, false).
		add(solana.StakeProgramID, false, false)
	return instruction{programID: programID, discrim: ReclaimStakeAccount, accounts: b.metas}
}

// UnstakeAccounts are the common positional accounts shared by unstake
// and unstake-wsol.
type UnstakeAccounts struct {
	Unstaker, Stake, Destination, Pool, Reserves    solana.PublicKey
	FeeAccount, Record, ProtocolFee, ProtocolFeeDest solana.PublicKey
	Referrer                                         *solana.PublicKey
}

func unstakeMetas(a UnstakeAccounts) solana.AccountMetaSlice {
	b := &metaBuilder{}
	b.add(a.Unstaker, false, true).
		add(a.Stake, true, false).
		add(a.Destination, true, false).
		add(a.Pool, true, false).
		add(a.Reserves, true, false).
		add(a.FeeAccount, false, false).
		add(a.Record, true, false).
		add(a.ProtocolFee, false, false).
		add(a.ProtocolFeeDest, true, false).
		add(solana.SysVarClockPubkey, false, false).
		add(solana.StakeProgramID, false, false).
		add(solana.SystemProgramID, false, false)
	if a.Referrer != nil {
		b.add(*a.Referrer, true, false)
	}
	return b.metas
}

// NewUnstake builds unstake: see UnstakeAccounts for the positional
// account list; a supplied Referrer is appended as a remaining account.
func NewUnstake(programID solana.PublicKey, a UnstakeAccounts) solana.Instruction {
	return instruction{programID: programID, discrim: Unstake, accounts: unstakeMetas(a)}
}

// NewUnstakeWsol builds unstake-wsol: same as unstake, plus token_program.
func NewUnstakeWsol(programID solana.PublicKey, a UnstakeAccounts) solana.Instruction {
	metas := unstakeMetas(a)
	metas = append(metas, solana.NewAccountMeta(solana.TokenProgramID, false, false))
	return instruction{programID: programID, discrim: UnstakeWsol, accounts: metas}
}

// NewSetFlashLoanFee builds set-flash-loan-fee:
// payer(WS), fee_authority(S), pool, flash_fee(W), system.
func NewSetFlashLoanFee(programID, payer, feeAuthority, pool, flashFee solana.PublicKey, f RationalWire) solana.Instruction {
	b := &metaBuilder{}
	b.add(payer, true, true).
		add(feeAuthority, false, true).
		add(pool, false, false).
		add(flashFee, true, false).
		add(solana.SystemProgramID, false, false)
	args := struct{ FeeRatio RationalWire }{f}
	return instruction{programID: programID, discrim: SetFlashLoanFee, args: args, accounts: b.metas}
}

// NewTakeFlashLoan builds take-flash-loan:
// receiver(W), pool, reserves(W), flash_account(W), system, instructions-sysvar.
func NewTakeFlashLoan(programID, receiver, pool, reserves, flashAccount solana.PublicKey, lamports uint64) solana.Instruction {
	b := &metaBuilder{}
	b.add(receiver, true, false).
		add(pool, false, false).
		add(reserves, true, false).
		add(flashAccount, true, false).
		add(solana.SystemProgramID, false, false).
		add(solana.SysVarInstructionsPubkey, false, false)
	args := struct{ Lamports uint64 }{lamports}
	return instruction{programID: programID, discrim: TakeFlashLoan, args: args, accounts: b.metas}
}

// NewRepayFlashLoan builds repay-flash-loan:
// repayer(WS), pool, reserves(W), flash_account(W), flash_fee,
// protocol_fee, protocol_fee_destination(W), system. A supplied
// referrer is appended as a remaining account, matching the source's
// ctx.remaining_accounts.first() convention.
func NewRepayFlashLoan(programID, repayer, pool, reserves, flashAccount, flashFee, protocolFee, protocolFeeDest solana.PublicKey, referrer *solana.PublicKey) solana.Instruction {
	b := &metaBuilder{}
	b.add(repayer, true, true).
		add(pool, false, false).
		add(reserves, true, false).
		add(flashAccount, true, false).
		add(flashFee, false, false).
		add(protocolFee, false, false).
		add(protocolFeeDest, true, false).
		add(solana.SystemProgramID, false, false)
	if referrer != nil {
		b.add(*referrer, true, false)
	}
	return instruction{programID: programID, discrim: RepayFlashLoan, accounts: b.metas}
}
