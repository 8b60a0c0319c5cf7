package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nematoken/soldrop/pkg/checkpoint"
)

// StatusCommand holds configuration for the status command.
type StatusCommand struct {
	checkpointDir string
	phase         int
	clear         bool
}

// NewStatusCommand creates the checkpoint inspection command.
func NewStatusCommand() *cobra.Command {
	sc := &StatusCommand{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Inspect the checkpoint for a phase",
		Long: "Show the saved progress of a distribution phase, or clear it to\n" +
			"force the next run to start fresh.",
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.checkpointDir, "checkpoint-dir", "", "Checkpoint directory (default: ~/.soldrop/checkpoints)")
	cmd.Flags().IntVarP(&sc.phase, "phase", "p", 0, "Distribution phase (1-4, required)")
	cmd.Flags().BoolVar(&sc.clear, "clear", false, "Remove the checkpoint for this phase")

	_ = cmd.MarkFlagRequired("phase")

	return cmd
}

func (sc *StatusCommand) run(cmd *cobra.Command, _ []string) error {
	dir := sc.checkpointDir
	if dir == "" {
		dir = checkpoint.DefaultDir()
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
	store := checkpoint.NewStore(checkpoint.FilePath(dir, sc.phase), logger)
	out := cmd.OutOrStdout()

	if sc.clear {
		clearErr := store.Clear()
		if clearErr != nil {
			return clearErr
		}

		fmt.Fprintf(out, "Checkpoint for phase %d cleared\n", sc.phase)

		return nil
	}

	if !store.Exists() {
		fmt.Fprintf(out, "No checkpoint for phase %d (%s)\n", sc.phase, store.Path())

		return nil
	}

	snap, peekErr := store.Peek()
	if peekErr != nil {
		return fmt.Errorf("checkpoint at %s is unreadable: %w", store.Path(), peekErr)
	}

	printSnapshot(out, store.Path(), snap)

	return nil
}

func printSnapshot(out io.Writer, path string, snap *checkpoint.Snapshot) {
	terminal := snap.Counters.Success + snap.Counters.Failed

	fmt.Fprintf(out, "Checkpoint: %s\n", path)
	fmt.Fprintf(out, "  Phase:      %d\n", snap.Phase)
	fmt.Fprintf(out, "  Saved at:   %s\n", snap.SavedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(out, "  Recipients: %d (%d processed, %d pending)\n",
		snap.RecipientCount, terminal, snap.RecipientCount-terminal)
	fmt.Fprintf(out, "  Success:    %d\n", snap.Counters.Success)
	fmt.Fprintf(out, "  Failed:     %d\n", snap.Counters.Failed)
	fmt.Fprintf(out, "  Skipped:    %d\n", snap.Counters.Skipped)
}
