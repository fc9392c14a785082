// Package commands implements the unstake-cli subcommands: one per
// pool instruction (§6), plus config and view helpers.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sanctumfi/unstake-pool/pkg/config"
	"github.com/sanctumfi/unstake-pool/pkg/logger"
)

var (
	cfgFile    string
	keypairPath string
	programID  string
	dryRun     bool

	cfg *config.Config
	log *logger.Logger

	version   = "0.1.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "unstake-cli",
	Short: "Drive the unstake pool's instructions against a Solana-family cluster",
	Long: `unstake-cli builds and submits the pool's instructions: unstake,
reclaim, add/remove liquidity, flash loans, and fee/authority management.

Examples:
  unstake-cli unstake --pool <pubkey> --stake-account <pubkey> --destination <pubkey>
  unstake-cli pool show --pool <pubkey>
  unstake-cli add-liquidity --pool <pubkey> --lp-mint <pubkey> --mint-to <pubkey> --amount 1000000000`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeApp()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults when omitted)")
	rootCmd.PersistentFlags().StringVar(&keypairPath, "keypair", "", "path to a solana-keygen JSON keypair file, used as the transaction signer")
	rootCmd.PersistentFlags().StringVar(&programID, "program-id", "", "pool program ID (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "build instructions and print them without submitting")

	viper.BindPFlag("keypair", rootCmd.PersistentFlags().Lookup("keypair"))
	viper.BindPFlag("program_id", rootCmd.PersistentFlags().Lookup("program-id"))

	rootCmd.AddCommand(unstakeCmd)
	rootCmd.AddCommand(unstakeWsolCmd)
	rootCmd.AddCommand(reclaimCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(addLiquidityCmd)
	rootCmd.AddCommand(removeLiquidityCmd)
	rootCmd.AddCommand(createPoolCmd)
	rootCmd.AddCommand(setFeeCmd)
	rootCmd.AddCommand(setFeeAuthorityCmd)
	rootCmd.AddCommand(setLpTokenMetadataCmd)
	rootCmd.AddCommand(initProtocolFeeCmd)
	rootCmd.AddCommand(setProtocolFeeCmd)
	rootCmd.AddCommand(setFlashLoanFeeCmd)
	rootCmd.AddCommand(takeFlashLoanCmd)
	rootCmd.AddCommand(repayFlashLoanCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(fetchProtocolFeeCmd)
	rootCmd.AddCommand(deactivateAllCmd)
	rootCmd.AddCommand(reclaimAllCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initializeApp() error {
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}
	log = logger.New(cfg.Logging)
	return nil
}

// rpcClient dials the configured cluster.
func rpcClient() *rpc.Client {
	return rpc.New(cfg.Solana.RPCURL)
}

// loadSigner reads the transaction signer's keypair from --keypair or
// the config file's pool.fee_authority_path.
func loadSigner() (solana.PrivateKey, error) {
	path := keypairPath
	if path == "" {
		path = cfg.Pool.FeeAuthorityPath
	}
	if path == "" {
		return solana.PrivateKey{}, fmt.Errorf("no keypair path supplied; pass --keypair or set pool.fee_authority_path")
	}
	return solana.PrivateKeyFromSolanaKeygenFile(path)
}

// resolveProgramID returns the pool program ID from --program-id; the
// config file carries no program ID.
func resolveProgramID() (solana.PublicKey, error) {
	id := programID
	if id == "" {
		id = viper.GetString("program_id")
	}
	if id == "" {
		return solana.PublicKey{}, fmt.Errorf("no program ID supplied; pass --program-id")
	}
	return solana.PublicKeyFromBase58(id)
}

func mustPubkey(cmd *cobra.Command, flag string) (solana.PublicKey, error) {
	raw, err := cmd.Flags().GetString(flag)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("--%s is required", flag)
	}
	return solana.PublicKeyFromBase58(raw)
}

// submitOrPrint either sends ixs as a transaction paid by signer, or
// (when --dry-run is set) prints the instructions without sending.
// extraSigners co-sign the transaction, e.g. a freshly-keypaired pool
// or LP mint account that create-pool must initialize.
func submitOrPrint(signer solana.PrivateKey, ixs []solana.Instruction, extraSigners ...solana.PrivateKey) error {
	if dryRun {
		batchID := uuid.New()
		for _, ix := range ixs {
			data, _ := ix.Data()
			fmt.Printf("[dry-run batch=%s] program=%s accounts=%d data_len=%d\n", batchID, ix.ProgramID(), mustAccountCount(ix), len(data))
		}
		log.Debug("dry-run batch built", zap.String("batch_id", batchID.String()), zap.Int("instruction_count", len(ixs)))
		return nil
	}

	recent, err := rpcClient().GetLatestBlockhash(context.Background(), rpc.CommitmentConfirmed)
	if err != nil {
		return fmt.Errorf("get latest blockhash: %w", err)
	}
	tx, err := solana.NewTransaction(ixs, recent.Value.Blockhash, solana.TransactionPayer(signer.PublicKey()))
	if err != nil {
		return fmt.Errorf("build transaction: %w", err)
	}

	signers := map[solana.PublicKey]solana.PrivateKey{signer.PublicKey(): signer}
	for _, s := range extraSigners {
		signers[s.PublicKey()] = s
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if s, ok := signers[key]; ok {
			return &s
		}
		return nil
	}); err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	sig, err := rpcClient().SendTransaction(context.Background(), tx)
	if err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}
	fmt.Println(sig.String())
	return nil
}

func mustAccountCount(ix solana.Instruction) int {
	metas, err := ix.Accounts()
	if err != nil {
		return 0
	}
	return len(metas)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("unstake-cli v%s (commit %s, built %s)\n", version, gitCommit, buildTime)
	},
}
