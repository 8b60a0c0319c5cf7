// Package main provides the entry point for the soldrop CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nematoken/soldrop/cmd/soldrop/commands"
	"github.com/nematoken/soldrop/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "soldrop",
		Short: "Soldrop - resumable batch token distribution for Solana",
		Long: `Soldrop distributes SPL tokens to a recipient list in checkpointed
batches, with funding pre-flight checks, automatic token account creation,
and batch-then-per-item retry.

Commands:
  run       Execute a distribution phase
  allocate  Compute phase allocations from a balance snapshot
  holdings  Check recipient retention after a run
  status    Inspect the checkpoint for a phase`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewAllocateCommand())
	rootCmd.AddCommand(commands.NewHoldingsCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "soldrop %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
