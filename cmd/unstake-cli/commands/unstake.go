package commands

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
)

// unstakeAccountsFromFlags derives every account unstake/unstake-wsol
// need from the pool, stake account and an optional referrer.
func unstakeAccountsFromFlags(cmd *cobra.Command, programID solana.PublicKey) (ixcodec.UnstakeAccounts, error) {
	pool, err := mustPubkey(cmd, "pool")
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	stakeAccount, err := mustPubkey(cmd, "stake-account")
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	destination, err := mustPubkey(cmd, "destination")
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}

	reserves, _, err := pooldomain.ReservesAddress(programID, pool)
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	feeAccount, _, err := pooldomain.FeeAddress(programID, pool)
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	record, _, err := pooldomain.StakeAccountRecordAddress(programID, pool, stakeAccount)
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	protocolFeeAddr, _, err := protocolfee.Address(programID)
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}

	protocolFeeDest, err := cmd.Flags().GetString("protocol-fee-destination")
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	var protocolFeeDestPk solana.PublicKey
	if protocolFeeDest != "" {
		protocolFeeDestPk, err = solana.PublicKeyFromBase58(protocolFeeDest)
		if err != nil {
			return ixcodec.UnstakeAccounts{}, err
		}
	}

	signer, err := loadSigner()
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}

	accounts := ixcodec.UnstakeAccounts{
		Unstaker:        signer.PublicKey(),
		Stake:           stakeAccount,
		Destination:     destination,
		Pool:            pool,
		Reserves:        reserves,
		FeeAccount:      feeAccount,
		Record:          record,
		ProtocolFee:     protocolFeeAddr,
		ProtocolFeeDest: protocolFeeDestPk,
	}

	referrer, err := cmd.Flags().GetString("referrer")
	if err != nil {
		return ixcodec.UnstakeAccounts{}, err
	}
	if referrer != "" {
		ref, err := solana.PublicKeyFromBase58(referrer)
		if err != nil {
			return ixcodec.UnstakeAccounts{}, err
		}
		accounts.Referrer = &ref
	}

	return accounts, nil
}

var unstakeCmd = &cobra.Command{
	Use:   "unstake",
	Short: "Swap a stake account for immediate SOL from a pool's reserves",
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		accounts, err := unstakeAccountsFromFlags(cmd, programID)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		ix := ixcodec.NewUnstake(programID, accounts)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var unstakeWsolCmd = &cobra.Command{
	Use:   "unstake-wsol",
	Short: "Unstake, paying out into a wrapped-SOL token account",
	RunE: func(cmd *cobra.Command, args []string) error {
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		accounts, err := unstakeAccountsFromFlags(cmd, programID)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		ix := ixcodec.NewUnstakeWsol(programID, accounts)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate-stake-account",
	Short: "Begin deactivating a stake account the pool already absorbed",
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
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		ix := ixcodec.NewDeactivateStakeAccount(programID, stakeAccount, pool, reserves)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var reclaimCmd = &cobra.Command{
	Use:   "reclaim-stake-account",
	Short: "Withdraw a fully-deactivated stake account back into reserves and close its record",
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
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}
		record, _, err := pooldomain.StakeAccountRecordAddress(programID, pool, stakeAccount)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		ix := ixcodec.NewReclaimStakeAccount(programID, stakeAccount, pool, reserves, record)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

func init() {
	for _, c := range []*cobra.Command{unstakeCmd, unstakeWsolCmd} {
		c.Flags().String("pool", "", "pool address")
		c.Flags().String("stake-account", "", "stake account to unstake")
		c.Flags().String("destination", "", "lamport/token destination")
		c.Flags().String("protocol-fee-destination", "", "protocol fee destination account; must match the protocol-fee singleton's (the singleton is not read, and the zero key is sent when omitted)")
		c.Flags().String("referrer", "", "optional referrer account receiving a carve-out of the protocol fee")
	}

	deactivateCmd.Flags().String("pool", "", "pool address")
	deactivateCmd.Flags().String("stake-account", "", "stake account to deactivate")

	reclaimCmd.Flags().String("pool", "", "pool address")
	reclaimCmd.Flags().String("stake-account", "", "stake account to reclaim")
}
