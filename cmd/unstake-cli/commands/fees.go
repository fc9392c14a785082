package commands

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/cmd/unstake-cli/feefile"
	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/protocolfee"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

// protocolFeeAddress derives the protocol fee singleton's PDA.
func protocolFeeAddress(programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	return protocolfee.Address(programID)
}

var setFeeCmd = &cobra.Command{
	Use:   "set-fee",
	Short: "Set a pool's unstake fee to a flat ratio or a liquidity-linear curve",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		feeFilePath, _ := cmd.Flags().GetString("fee-file")

		var f fee.Fee
		if feeFilePath != "" {
			loaded, err := feefile.Load(feeFilePath)
			if err != nil {
				return err
			}
			f = loaded
		} else {
			num, _ := cmd.Flags().GetUint64("num")
			denom, _ := cmd.Flags().GetUint64("denom")
			zeroNum, _ := cmd.Flags().GetUint64("zero-liq-num")
			zeroDenom, _ := cmd.Flags().GetUint64("zero-liq-denom")
			if zeroDenom > 0 {
				f = fee.LiquidityLinear(
					rational.Rational{Num: num, Denom: denom},
					rational.Rational{Num: zeroNum, Denom: zeroDenom},
				)
			} else {
				f = fee.Flat(rational.Rational{Num: num, Denom: denom})
			}
			if err := f.Validate(); err != nil {
				return err
			}
		}

		signer, err := loadSigner()
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		feeAccount, _, err := pooldomain.FeeAddress(programID, pool)
		if err != nil {
			return err
		}

		ix := ixcodec.NewSetFee(programID, signer.PublicKey(), pool, feeAccount, ixcodec.FeeToWire(f))
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var setFeeAuthorityCmd = &cobra.Command{
	Use:   "set-fee-authority",
	Short: "Transfer a pool's fee authority to a new signer",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		newAuthority, err := mustPubkey(cmd, "new-authority")
		if err != nil {
			return err
		}
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		ix := ixcodec.NewSetFeeAuthority(programID, signer.PublicKey(), pool, newAuthority)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var setFlashLoanFeeCmd = &cobra.Command{
	Use:   "set-flash-loan-fee",
	Short: "Set or update a pool's flash-loan fee ratio",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		num, _ := cmd.Flags().GetUint64("num")
		denom, _ := cmd.Flags().GetUint64("denom")

		signer, err := loadSigner()
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		flashFee, _, err := pooldomain.FlashLoanFeeAddress(programID, pool)
		if err != nil {
			return err
		}

		ix := ixcodec.NewSetFlashLoanFee(programID, signer.PublicKey(), signer.PublicKey(), pool, flashFee,
			ixcodec.RationalToWire(rational.Rational{Num: num, Denom: denom}))
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var setProtocolFeeCmd = &cobra.Command{
	Use:   "set-protocol-fee",
	Short: "Update the process-wide protocol fee singleton",
	RunE: func(cmd *cobra.Command, args []string) error {
		num, _ := cmd.Flags().GetUint64("num")
		denom, _ := cmd.Flags().GetUint64("denom")
		refNum, _ := cmd.Flags().GetUint64("referrer-num")
		refDenom, _ := cmd.Flags().GetUint64("referrer-denom")

		signer, err := loadSigner()
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		protocolFeeAddr, _, err := protocolFeeAddress(programID)
		if err != nil {
			return err
		}

		ix := ixcodec.NewSetProtocolFee(programID, signer.PublicKey(), protocolFeeAddr, ixcodec.ProtocolFeeAccount{
			FeeRatio:         ixcodec.RationalToWire(rational.Rational{Num: num, Denom: denom}),
			ReferrerFeeRatio: ixcodec.RationalToWire(rational.Rational{Num: refNum, Denom: refDenom}),
		})
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var initProtocolFeeCmd = &cobra.Command{
	Use:   "init-protocol-fee",
	Short: "Create the process-wide protocol fee singleton",
	RunE: func(cmd *cobra.Command, args []string) error {
		signer, err := loadSigner()
		if err != nil {
			return err
		}
		programID, err := resolveProgramID()
		if err != nil {
			return err
		}
		protocolFeeAddr, _, err := protocolFeeAddress(programID)
		if err != nil {
			return err
		}
		ix := ixcodec.NewInitProtocolFee(programID, signer.PublicKey(), protocolFeeAddr)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

func init() {
	setFeeCmd.Flags().String("pool", "", "pool address")
	setFeeCmd.Flags().Uint64("num", 0, "fee numerator (flat fee, or max-liquidity-remaining fee for liquidity-linear)")
	setFeeCmd.Flags().Uint64("denom", 1, "fee denominator")
	setFeeCmd.Flags().Uint64("zero-liq-num", 0, "zero-liquidity-remaining fee numerator (liquidity-linear only)")
	setFeeCmd.Flags().Uint64("zero-liq-denom", 0, "zero-liquidity-remaining fee denominator; set to select liquidity-linear")
	setFeeCmd.Flags().String("fee-file", "", "path to a JSON fee file (overrides --num/--denom/--zero-liq-*)")

	setFeeAuthorityCmd.Flags().String("pool", "", "pool address")
	setFeeAuthorityCmd.Flags().String("new-authority", "", "new fee authority pubkey")

	setFlashLoanFeeCmd.Flags().String("pool", "", "pool address")
	setFlashLoanFeeCmd.Flags().Uint64("num", 0, "flash-loan fee numerator")
	setFlashLoanFeeCmd.Flags().Uint64("denom", 1, "flash-loan fee denominator")

	setProtocolFeeCmd.Flags().Uint64("num", 1, "protocol fee numerator")
	setProtocolFeeCmd.Flags().Uint64("denom", 10, "protocol fee denominator")
	setProtocolFeeCmd.Flags().Uint64("referrer-num", 1, "referrer carve-out numerator")
	setProtocolFeeCmd.Flags().Uint64("referrer-denom", 2, "referrer carve-out denominator")
}
