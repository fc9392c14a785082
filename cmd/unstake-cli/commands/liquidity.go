package commands

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/sanctumfi/unstake-pool/internal/fee"
	"github.com/sanctumfi/unstake-pool/internal/ixcodec"
	"github.com/sanctumfi/unstake-pool/internal/pooldomain"
	"github.com/sanctumfi/unstake-pool/internal/rational"
)

var createPoolCmd = &cobra.Command{
	Use:   "create-pool",
	Short: "Create a new pool with an initial fee and LP mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		lpMintKeypair, err := cmd.Flags().GetString("lp-mint-keypair")
		if err != nil {
			return err
		}
		poolKeypair, err := cmd.Flags().GetString("pool-keypair")
		if err != nil {
			return err
		}
		num, _ := cmd.Flags().GetUint64("num")
		denom, _ := cmd.Flags().GetUint64("denom")

		pool, err := solana.PrivateKeyFromSolanaKeygenFile(poolKeypair)
		if err != nil {
			return err
		}
		lpMint, err := solana.PrivateKeyFromSolanaKeygenFile(lpMintKeypair)
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

		reserves, _, err := pooldomain.ReservesAddress(programID, pool.PublicKey())
		if err != nil {
			return err
		}
		feeAccount, _, err := pooldomain.FeeAddress(programID, pool.PublicKey())
		if err != nil {
			return err
		}

		f := fee.Flat(rational.Rational{Num: num, Denom: denom})
		ix := ixcodec.NewCreatePool(programID, signer.PublicKey(), signer.PublicKey(), pool.PublicKey(), reserves, feeAccount, lpMint.PublicKey(), ixcodec.FeeToWire(f))
		return submitOrPrint(signer, []solana.Instruction{ix}, pool, lpMint)
	},
}

var addLiquidityCmd = &cobra.Command{
	Use:   "add-liquidity",
	Short: "Deposit SOL into a pool's reserves and mint LP tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		lpMint, err := mustPubkey(cmd, "lp-mint")
		if err != nil {
			return err
		}
		mintTo, err := mustPubkey(cmd, "mint-to")
		if err != nil {
			return err
		}
		amount, err := cmd.Flags().GetUint64("amount")
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
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}

		ix := ixcodec.NewAddLiquidity(programID, signer.PublicKey(), pool, reserves, lpMint, mintTo, amount)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var removeLiquidityCmd = &cobra.Command{
	Use:   "remove-liquidity",
	Short: "Burn LP tokens and withdraw a proportional share of the pool's reserves",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		lpMint, err := mustPubkey(cmd, "lp-mint")
		if err != nil {
			return err
		}
		to, err := mustPubkey(cmd, "to")
		if err != nil {
			return err
		}
		burnFrom, err := mustPubkey(cmd, "burn-from")
		if err != nil {
			return err
		}
		amountLp, err := cmd.Flags().GetUint64("amount-lp")
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
		reserves, _, err := pooldomain.ReservesAddress(programID, pool)
		if err != nil {
			return err
		}

		ix := ixcodec.NewRemoveLiquidity(programID, signer.PublicKey(), to, pool, reserves, lpMint, burnFrom, amountLp)
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

var setLpTokenMetadataCmd = &cobra.Command{
	Use:   "set-lp-token-metadata",
	Short: "Attach Metaplex token metadata to a pool's LP mint",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := mustPubkey(cmd, "pool")
		if err != nil {
			return err
		}
		lpMint, err := mustPubkey(cmd, "lp-mint")
		if err != nil {
			return err
		}
		metadata, err := mustPubkey(cmd, "metadata")
		if err != nil {
			return err
		}
		metadataProgram, err := mustPubkey(cmd, "metadata-program")
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		symbol, _ := cmd.Flags().GetString("symbol")
		uri, _ := cmd.Flags().GetString("uri")

		signer, err := loadSigner()
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

		ix := ixcodec.NewSetLpTokenMetadata(programID, signer.PublicKey(), signer.PublicKey(), pool, reserves, lpMint, metadata, metadataProgram,
			ixcodec.DataV2{Name: name, Symbol: symbol, Uri: uri})
		return submitOrPrint(signer, []solana.Instruction{ix})
	},
}

func init() {
	createPoolCmd.Flags().String("pool-keypair", "", "path to the new pool's keypair file")
	createPoolCmd.Flags().String("lp-mint-keypair", "", "path to the new LP mint's keypair file")
	createPoolCmd.Flags().Uint64("num", 0, "initial flat fee numerator")
	createPoolCmd.Flags().Uint64("denom", 1000, "initial flat fee denominator")

	addLiquidityCmd.Flags().String("pool", "", "pool address")
	addLiquidityCmd.Flags().String("lp-mint", "", "pool's LP mint")
	addLiquidityCmd.Flags().String("mint-to", "", "LP token account to receive minted tokens")
	addLiquidityCmd.Flags().Uint64("amount", 0, "lamports to deposit")

	removeLiquidityCmd.Flags().String("pool", "", "pool address")
	removeLiquidityCmd.Flags().String("lp-mint", "", "pool's LP mint")
	removeLiquidityCmd.Flags().String("to", "", "account to receive withdrawn lamports")
	removeLiquidityCmd.Flags().String("burn-from", "", "LP token account to burn from")
	removeLiquidityCmd.Flags().Uint64("amount-lp", 0, "LP tokens to burn")

	setLpTokenMetadataCmd.Flags().String("pool", "", "pool address")
	setLpTokenMetadataCmd.Flags().String("lp-mint", "", "pool's LP mint")
	setLpTokenMetadataCmd.Flags().String("metadata", "", "metadata account PDA")
	setLpTokenMetadataCmd.Flags().String("metadata-program", "", "Metaplex token-metadata program ID")
	setLpTokenMetadataCmd.Flags().String("name", "", "token name")
	setLpTokenMetadataCmd.Flags().String("symbol", "", "token symbol")
	setLpTokenMetadataCmd.Flags().String("uri", "", "token metadata URI")
}
