package commands

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
)

// batchSize caps how many per-stake-account instructions ride in a single
// transaction; chosen well under the packet size limit.
const batchSize = 7

// stakeAccountWithdrawerOffset is the byte offset of the withdraw
// authority within a native stake account: a 4-byte state tag, an 8-byte
// rent_exempt_reserve, then the 32-byte stake authority precede it.
const stakeAccountWithdrawerOffset = 44

const stakeStateTagStake = uint32(2)

// decodeStakeDelegation reads the activation/deactivation epochs out of a
// delegated stake account's raw data, per the native stake program's
// StakeStateV2 layout (tag, Meta{rent_exempt_reserve, Authorized, Lockup},
// Stake{Delegation{voter, stake, activation_epoch, deactivation_epoch,
// warmup_cooldown_rate}, credits_observed}).
func decodeStakeDelegation(data []byte) (activationEpoch, deactivationEpoch uint64, ok bool) {
	const (
		tagLen          = 4
		metaLen         = 8 + 32 + 32 + (8 + 8 + 32)
		delegationStart = tagLen + metaLen
		voterLen        = 32
		stakeAmountLen  = 8
	)
	if len(data) < tagLen {
		return 0, 0, false
	}
	if binary.LittleEndian.Uint32(data[:4]) != stakeStateTagStake {
		return 0, 0, false
	}
	activationOff := delegationStart + voterLen + stakeAmountLen
	deactivationOff := activationOff + 8
	if len(data) < deactivationOff+8 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint64(data[activationOff : activationOff+8]),
		binary.LittleEndian.Uint64(data[deactivationOff : deactivationOff+8]), true
}

// poolStakeAccounts fetches every native stake account whose withdraw
// authority is the pool's reserves PDA, then sorts them by delegation
// state relative to the current epoch.
func poolStakeAccounts(ctx context.Context, client *rpc.Client, reserves solana.PublicKey) (active, deactivating, inactive []solana.PublicKey, err error) {
	accounts, err := client.GetProgramAccountsWithOpts(ctx, solana.StakeProgramID, &rpc.GetProgramAccountsOpts{
		Encoding: solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: stakeAccountWithdrawerOffset,
					Bytes:  solana.Base58(reserves.Bytes()),
				},
			},
		},
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch pool stake accounts: %w", err)
	}

	epochInfo, err := client.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch epoch info: %w", err)
	}
	currentEpoch := epochInfo.Epoch

	for _, acc := range accounts {
		activationEpoch, deactivationEpoch, ok := decodeStakeDelegation(acc.Account.Data.GetBinary())
		if !ok {
			continue
		}
		switch {
		case activationEpoch >= currentEpoch:
			continue // activating or not yet delegated; not actionable here
		case deactivationEpoch >= currentEpoch:
			active = append(active, acc.Pubkey)
		case deactivationEpoch == currentEpoch-1:
			deactivating = append(deactivating, acc.Pubkey)
		default:
			inactive = append(inactive, acc.Pubkey)
		}
	}
	return active, deactivating, inactive, nil
}

func chunkPubkeys(keys []solana.PublicKey, size int) [][]solana.PublicKey {
	var chunks [][]solana.PublicKey
	for size < len(keys) {
		keys, chunks = keys[size:], append(chunks, keys[:size:size])
	}
	return append(chunks, keys)
}

var deactivateAllCmd = &cobra.Command{
	Use:   "deactivate-all",
	Short: "Deactivate every active stake account currently held by a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		ctx := context.Background()
		active, _, _, err := poolStakeAccounts(ctx, rpcClient(), reserves)
		if err != nil {
			return err
		}
		fmt.Printf("found %d active stake accounts to deactivate\n", len(active))
		if len(active) == 0 {
			return nil
		}

		for _, batch := range chunkPubkeys(active, batchSize) {
			ixs := make([]solana.Instruction, 0, len(batch))
			for _, stakeAccount := range batch {
				ixs = append(ixs, ixcodec.NewDeactivateStakeAccount(programID, stakeAccount, pool, reserves))
			}
			if err := submitOrPrint(signer, ixs); err != nil {
				return err
			}
		}
		return nil
	},
}

var reclaimAllCmd = &cobra.Command{
	Use:   "reclaim-all",
	Short: "Reclaim every fully-deactivated stake account currently held by a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		ctx := context.Background()
		_, _, inactive, err := poolStakeAccounts(ctx, rpcClient(), reserves)
		if err != nil {
			return err
		}
		fmt.Printf("found %d fully-deactivated stake accounts to reclaim\n", len(inactive))
		if len(inactive) == 0 {
			return nil
		}

		for _, batch := range chunkPubkeys(inactive, batchSize) {
			ixs := make([]solana.Instruction, 0, len(batch))
			for _, stakeAccount := range batch {
				record, _, err := pooldomain.StakeAccountRecordAddress(programID, pool, stakeAccount)
				if err != nil {
					return err
				}
				ixs = append(ixs, ixcodec.NewReclaimStakeAccount(programID, stakeAccount, pool, reserves, record))
			}
			if err := submitOrPrint(signer, ixs); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	deactivateAllCmd.Flags().String("pool", "", "pool address")
	reclaimAllCmd.Flags().String("pool", "", "pool address")
}
