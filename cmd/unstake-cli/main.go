// Command unstake-cli builds and submits the unstake pool's
// instructions against a Solana-family RPC endpoint.
package main

import "github.com/sanctumfi/unstake-pool/cmd/unstake-cli/commands"

func main() {
	commands.Execute()
}
