package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the CLI's resolved configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the currently loaded configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("solana:\n")
		fmt.Printf("  network:    %s\n", cfg.Solana.Network)
		fmt.Printf("  rpc_url:    %s\n", cfg.Solana.RPCURL)
		fmt.Printf("  commitment: %s\n", cfg.Solana.Commitment)
		fmt.Printf("pool:\n")
		fmt.Printf("  address: %s\n", cfg.Pool.Address)
		fmt.Printf("  lp_mint: %s\n", cfg.Pool.LpMint)
		fmt.Printf("  dry_run: %t\n", cfg.Pool.DryRun)
		fmt.Printf("logging:\n")
		fmt.Printf("  level:  %s\n", cfg.Logging.Level)
		fmt.Printf("  format: %s\n", cfg.Logging.Format)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
