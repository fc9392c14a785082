package commands

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
)

var takeFlashLoanCmd = &cobra.Command{
	Use:   "take-flash-loan",
	Short: "Borrow lamports from a pool's reserves; must be paired with repay-flash-loan later in the same transaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		receiver, err := mustPubkey(cmd, "receiver")
		if err != nil {
			return err
		}
		lamports, err := cmd.Flags().GetUint64("lamports")
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
		flashAccount, _, err := pooldomain.FlashAccountAddress(programID, pool)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		ix := ixcodec.NewTakeFlashLoan(programID, receiver, pool, reserves, flashAccount, lamports)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var repayFlashLoanCmd = &cobra.Command{
	Use:   "repay-flash-loan",
	Short: "Repay an outstanding flash loan plus fee, splitting the fee with the protocol and an optional referrer",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		protocolFeeDest, err := mustPubkey(cmd, "protocol-fee-destination")
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
		flashAccount, _, err := pooldomain.FlashAccountAddress(programID, pool)
		if err != nil {
			return err
		}
		flashFee, _, err := pooldomain.FlashLoanFeeAddress(programID, pool)
		if err != nil {
			return err
		}
		protocolFeeAddr, _, err := protocolfee.Address(programID)
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}

		var referrer *solana.PublicKey
		referrerFlag, err := cmd.Flags().GetString("referrer")
		if err != nil {
			return err
		}
		if referrerFlag != "" {
			ref, err := solana.PublicKeyFromBase58(referrerFlag)
			if err != nil {
				return err
			}
			referrer = &ref
		}

		ix := ixcodec.NewRepayFlashLoan(programID, signer.PublicKey(), pool, reserves, flashAccount, flashFee, protocolFeeAddr, protocolFeeDest, referrer)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

func init() {
	takeFlashLoanCmd.Flags().String("pool", "", "pool address")
	takeFlashLoanCmd.Flags().String("receiver", "", "account to receive the borrowed lamports")
	takeFlashLoanCmd.Flags().Uint64("lamports", 0, "lamports to borrow")

	repayFlashLoanCmd.Flags().String("pool", "", "pool address")
	repayFlashLoanCmd.Flags().String("protocol-fee-destination", "", "protocol fee destination account")
	repayFlashLoanCmd.Flags().String("referrer", "", "optional referrer account receiving a carve-out of the protocol fee")
}
