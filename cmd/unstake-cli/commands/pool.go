package commands

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/stakerecord"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Inspect pool and related accounts",
}

var poolShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Fetch and decode a pool account, its derived reserves balance and fee account",
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
		feeAccount, _, err := pooldomain.FeeAddress(programID, pool)
		if err != nil {
			return err
		}

		client := rpcClient()
		ctx := context.Background()

		var poolAccount ixcodec.PoolAccount
		if err := fetchAndDecode(ctx, client, pool, &poolAccount); err != nil {
			return fmt.Errorf("fetch pool account: %w", err)
		}

		reservesBalance, err := client.GetBalance(ctx, reserves, rpc.CommitmentConfirmed)
		if err != nil {
			return fmt.Errorf("fetch reserves balance: %w", err)
		}

		var feeAccountDecoded ixcodec.FeeWire
		if err := fetchAndDecode(ctx, client, feeAccount, &feeAccountDecoded); err != nil {
			return fmt.Errorf("fetch fee account: %w", err)
		}

		domain := poolAccount.ToDomain(pool)
		fmt.Printf("pool:            %s\n", pool)
		fmt.Printf("fee_authority:   %s\n", domain.FeeAuthority)
		fmt.Printf("lp_mint:         %s\n", domain.LpMint)
		fmt.Printf("incoming_stake:  %d\n", domain.IncomingStake)
		fmt.Printf("reserves:        %s (%d lamports)\n", reserves, reservesBalance.Value)
		fmt.Printf("fee:             %+v\n", feeAccountDecoded.ToDomain())
		return nil
	},
}

var poolShowRecordCmd = &cobra.Command{
	Use:   "show-record",
	Short: "Fetch and decode a stake account's record within a pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		stakeAccount, err := mustPubkey(cmd, "stake-account")
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		record, _, err := pooldomain.StakeAccountRecordAddress(programID, pool, stakeAccount)
		if err != nil {
			return err
		}

		var recordAccount ixcodec.StakeAccountRecordAccount
		if err := fetchAndDecode(context.Background(), rpcClient(), record, &recordAccount); err != nil {
			return fmt.Errorf("fetch stake account record: %w", err)
		}
		fmt.Println(describeRecord(recordAccount.ToDomain(pool, stakeAccount, record)))
		return nil
	},
}

var fetchProtocolFeeCmd = &cobra.Command{
	Use:   "fetch-protocol-fee",
	Short: "Fetch and decode the process-wide protocol fee singleton",
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		protocolFeeAddr, _, err := protocolfee.Address(programID)
		if err != nil {
			return err
		}

		var account ixcodec.ProtocolFeeAccount
		if err := fetchAndDecode(context.Background(), rpcClient(), protocolFeeAddr, &account); err != nil {
			return fmt.Errorf("fetch protocol fee: %w", err)
		}
		pf := account.ToDomain()
		fmt.Printf("destination:         %s\n", pf.Destination)
		fmt.Printf("authority:           %s\n", pf.Authority)
		fmt.Printf("fee_ratio:           %d/%d\n", pf.FeeRatio.Num, pf.FeeRatio.Denom)
		fmt.Printf("referrer_fee_ratio:  %d/%d\n", pf.ReferrerFeeRatio.Num, pf.ReferrerFeeRatio.Denom)
		return nil
	},
}

// describeRecord formats a stake account record for `pool show-record`.
func describeRecord(r stakerecord.Record) string {
	return fmt.Sprintf("pool=%s stake_account=%s lamports_at_creation=%d", r.Pool, r.StakeAccount, r.LamportsAtCreation)
}

// fetchAndDecode reads an account's data via GetAccountInfo and
// Borsh-decodes it into v.
func fetchAndDecode(ctx context.Context, client *rpc.Client, account solana.PublicKey, v interface{}) error {
	info, err := client.GetAccountInfo(ctx, account)
	if err != nil {
		return err
	}
	return bin.UnmarshalBorsh(v, info.Value.Data.GetBinary())
}

func init() {
	poolCmd.AddCommand(poolShowCmd)
	poolShowCmd.Flags().String("pool", "", "pool address")

	poolCmd.AddCommand(poolShowRecordCmd)
	poolShowRecordCmd.Flags().String("pool", "", "pool address")
	poolShowRecordCmd.Flags().String("stake-account", "", "stake account whose record to fetch")
}
