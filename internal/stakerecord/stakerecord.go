// Package stakerecord models the per-absorbed-stake-account bookkeeping
// created by unstake and closed by reclaim (§3, §4.5, §4.6).
package stakerecord

import "github.com/gagliardetto/solana-go"

// Record tracks one stake account the pool has absorbed but not yet
// reclaimed. LamportsAtCreation is what drove pool.incoming_stake's
// increment at unstake time; reclaim must decrement by exactly this
// value regardless of what the stake account actually paid out.
type Record struct {
	Address            solana.PublicKey
	Pool               solana.PublicKey
	StakeAccount       solana.PublicKey
	LamportsAtCreation uint64
}

// New builds the record created during unstake, before its PDA creation
// CPI lands.
func New(pool, stakeAccount solana.PublicKey, lamportsAtCreation uint64) Record {
	return Record{Pool: pool, StakeAccount: stakeAccount, LamportsAtCreation: lamportsAtCreation}
}

// RewardsAccrued returns the stake rewards (or slashing loss, in
// practice impossible on this chain family) the pool earned while it
// held the stake account: the gap between what the stake account
// actually paid out on withdrawal and what was recorded at creation.
func (r Record) RewardsAccrued(actualWithdrawn uint64) int64 {
	return int64(actualWithdrawn) - int64(r.LamportsAtCreation)
}
