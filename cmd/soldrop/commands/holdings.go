package commands

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/nematoken/soldrop/pkg/config"
	"github.com/nematoken/soldrop/pkg/holdings"
	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/report"
)

// HoldingsCommand holds configuration for the holdings command.
type HoldingsCommand struct {
	configPath  string
	recordsPath string
	outputPath  string
}

// NewHoldingsCommand creates the retention analysis command.
func NewHoldingsCommand() *cobra.Command {
	hc := &HoldingsCommand{}

	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Check recipient retention after a run",
		Long: "Read the successful-transfer records of a completed run, fetch each\n" +
			"recipient's current token balance, and categorize how much of the\n" +
			"airdrop they still hold.",
		RunE: hc.run,
	}

	cmd.Flags().StringVarP(&hc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().StringVarP(&hc.recordsPath, "records", "r", "", "Successful-transfer CSV from a run report (required)")
	cmd.Flags().StringVarP(&hc.outputPath, "output", "o", "holdings_analysis.csv", "Output analysis CSV path")

	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func (hc *HoldingsCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := config.LoadConfigOverride(hc.configPath, func(cfg *config.Config) {
		// Holdings checks never transfer; satisfy run-oriented validation.
		if cfg.Distribution.Phase == 0 {
			cfg.Distribution.Phase = 1
		}

		if cfg.Distribution.CSVPath == "" {
			cfg.Distribution.CSVPath = hc.recordsPath
		}
	})
	if cfgErr != nil {
		return cfgErr
	}

	logger, _, shutdown, obsErr := initObservability(cfg)
	if obsErr != nil {
		return obsErr
	}
	defer shutdown()

	mint, mintErr := cfg.Mint()
	if mintErr != nil {
		return mintErr
	}

	records, loadErr := holdings.LoadAirdropped(hc.recordsPath)
	if loadErr != nil {
		return loadErr
	}

	// Balance reads need no signer.
	client := ledger.NewRPCClient(cfg.RPC.URL, solana.PrivateKey{}, logger,
		ledger.WithConfirmTimeout(cfg.RPC.ConfirmTimeout))

	checker := holdings.NewChecker(client, mint, holdings.Options{
		Decimals:   cfg.Token.Decimals,
		PaceDelay:  cfg.Distribution.ExistenceCheckDelay,
		FlushEvery: 25,
		OnPartial: func(partial []holdings.Holding) {
			partialErr := holdings.SaveCSV(hc.outputPath+".partial", partial)
			if partialErr != nil {
				logger.Warn("partial holdings save failed", "error", partialErr)
			}
		},
	}, logger)

	started := time.Now()

	summary, checkErr := checker.Check(cmd.Context(), records)
	if checkErr != nil {
		return checkErr
	}

	saveErr := holdings.SaveCSV(hc.outputPath, summary.Holdings)
	if saveErr != nil {
		return saveErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.RenderHoldings(summary))
	fmt.Fprintf(cmd.OutOrStdout(), "Checked %d recipients in %s; analysis written to %s\n",
		len(summary.Holdings), time.Since(started).Round(time.Second), hc.outputPath)

	return nil
}
