package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nematoken/soldrop/pkg/allocation"
)

// AllocateCommand holds configuration for the allocate command.
type AllocateCommand struct {
	snapshotPath string
	outputPath   string
}

// NewAllocateCommand creates the allocation calculator command.
func NewAllocateCommand() *cobra.Command {
	ac := &AllocateCommand{}

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Compute phase allocations from a balance snapshot",
		Long: "Compute each wallet's share of every phase pool from an\n" +
			"ownership-balance snapshot and write the allocation CSV that\n" +
			"the run command consumes.",
		RunE: ac.run,
	}

	cmd.Flags().StringVarP(&ac.snapshotPath, "snapshot", "s", "", "Balance snapshot CSV (wallet,balance) (required)")
	cmd.Flags().StringVarP(&ac.outputPath, "output", "o", "sol_nema_airdrop.csv", "Output allocation CSV path")

	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func (ac *AllocateCommand) run(cmd *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))

	rows, loadErr := allocation.LoadSnapshot(ac.snapshotPath)
	if loadErr != nil {
		return loadErr
	}

	result, calcErr := allocation.Calculate(rows, logger)
	if calcErr != nil {
		return calcErr
	}

	saveErr := allocation.SaveCSV(ac.outputPath, result)
	if saveErr != nil {
		return saveErr
	}

	printAllocationSummary(cmd.OutOrStdout(), result)
	fmt.Fprintf(cmd.OutOrStdout(), "Allocation written to %s\n", ac.outputPath)

	return nil
}

func printAllocationSummary(out io.Writer, result allocation.Result) {
	fmt.Fprintf(out, "Wallets:        %s (%d excluded)\n",
		humanize.Comma(int64(len(result.Entries))), result.Excluded)
	fmt.Fprintf(out, "Total claimed:  %s\n", humanize.Comma(result.TotalClaimed))

	for phase := 1; phase <= 4; phase++ {
		fmt.Fprintf(out, "Phase %d total:  %s\n", phase, result.PhaseTotals[phase-1].StringFixed(2))
	}

	fmt.Fprintf(out, "Grand total:    %s\n", result.Total.StringFixed(2))
}
