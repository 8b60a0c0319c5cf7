// Package commands implements CLI command handlers for soldrop.
package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nematoken/soldrop/pkg/airdrop"
	"github.com/nematoken/soldrop/pkg/config"
	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/observability"
	"github.com/nematoken/soldrop/pkg/report"
)

// ErrRunAborted indicates the operator declined the live-run confirmation.
var ErrRunAborted = errors.New("run aborted by operator")

// runExecutor performs the distribution pipeline for a loaded configuration.
type runExecutor func(ctx context.Context, cfg *config.Config, logger *slog.Logger,
	metrics *observability.RunMetrics, out io.Writer) error

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	configPath string
	phase      int
	dryRun     bool
	yes        bool

	exec runExecutor
}

// NewRunCommand creates the distribution run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(executeRun)
}

func newRunCommandWithDeps(exec runExecutor) *cobra.Command {
	rc := &RunCommand{exec: exec}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a distribution phase",
		Long: "Execute one checkpointed distribution phase against the configured\n" +
			"recipient list. Interrupted runs resume from the last saved batch.",
		RunE: rc.run,
	}

	cmd.Flags().StringVarP(&rc.configPath, "config", "c", "", "Config file path")
	cmd.Flags().IntVarP(&rc.phase, "phase", "p", 0, "Distribution phase (1-4, required)")
	cmd.Flags().BoolVar(&rc.dryRun, "dry-run", false, "Log intended actions without any network mutation")
	cmd.Flags().BoolVarP(&rc.yes, "yes", "y", false, "Skip the live-run confirmation prompt")

	_ = cmd.MarkFlagRequired("phase")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := rc.loadConfig()
	if err != nil {
		return err
	}

	if !cfg.Distribution.DryRun && !rc.yes {
		confirmErr := confirmLiveRun(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		if confirmErr != nil {
			return confirmErr
		}
	}

	logger, metrics, shutdown, obsErr := initObservability(cfg)
	if obsErr != nil {
		return obsErr
	}
	defer shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rc.exec(ctx, cfg, logger, metrics, cmd.OutOrStdout())
}

// loadConfig loads configuration with flag overrides applied. Flags win over
// both file and environment.
func (rc *RunCommand) loadConfig() (*config.Config, error) {
	return config.LoadConfigOverride(rc.configPath, func(cfg *config.Config) {
		if rc.phase != 0 {
			cfg.Distribution.Phase = rc.phase
		}

		if rc.dryRun {
			cfg.Distribution.DryRun = true
		}
	})
}

// confirmLiveRun prompts before a live run mutates the ledger.
func confirmLiveRun(in io.Reader, out io.Writer, cfg *config.Config) error {
	warn := color.New(color.FgYellow, color.Bold)

	warn.Fprintln(out, "LIVE RUN - tokens will be transferred on the ledger")
	fmt.Fprintf(out, "  Phase:     %d\n", cfg.Distribution.Phase)
	fmt.Fprintf(out, "  Mint:      %s\n", cfg.Token.Mint)
	fmt.Fprintf(out, "  RPC:       %s\n", cfg.RPC.URL)
	fmt.Fprintf(out, "  Recipients: %s\n", cfg.Distribution.CSVPath)
	fmt.Fprint(out, "Type 'yes' to continue: ")

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "yes" {
		return ErrRunAborted
	}

	return nil
}

// initObservability builds the logger, run metrics, and telemetry providers
// from config.
func initObservability(cfg *config.Config) (*slog.Logger, *observability.RunMetrics, func(), error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.LogLevel = observability.ParseLogLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.Format == "json"

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init observability: %w", err)
	}

	metrics, metricsErr := observability.NewRunMetrics(providers.Meter)
	if metricsErr != nil {
		return nil, nil, nil, fmt.Errorf("init run metrics: %w", metricsErr)
	}

	var diag *observability.DiagnosticsServer

	if cfg.Diagnostics.Enabled {
		diag, err = observability.NewDiagnosticsServer(cfg.Diagnostics.Addr)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("start diagnostics server: %w", err)
		}

		providers.Logger.Info("diagnostics server listening", "addr", diag.Addr())
	}

	shutdown := func() {
		if diag != nil {
			_ = diag.Close()
		}

		_ = providers.Shutdown(context.Background())
	}

	return providers.Logger, metrics, shutdown, nil
}

// executeRun is the production pipeline behind the run command.
func executeRun(ctx context.Context, cfg *config.Config, logger *slog.Logger,
	metrics *observability.RunMetrics, out io.Writer,
) error {
	signerErr := cfg.RequireSigner()
	if signerErr != nil {
		return signerErr
	}

	keypair, keyErr := cfg.Keypair()
	if keyErr != nil {
		return keyErr
	}

	mint, mintErr := cfg.Mint()
	if mintErr != nil {
		return mintErr
	}

	client := ledger.NewRPCClient(cfg.RPC.URL, keypair, logger,
		ledger.WithConfirmTimeout(cfg.RPC.ConfirmTimeout))

	runner := airdrop.NewRunner(cfg, client, keypair.PublicKey(), mint,
		report.NewWriter("reports"), metrics, logger)

	outcome, runErr := runner.Run(ctx)

	if outcome.Summary.TotalRecipients > 0 {
		fmt.Fprintln(out, report.RenderSummary(outcome.Summary))

		if outcome.ReportDir != "" {
			fmt.Fprintf(out, "Reports: %s\n", outcome.ReportDir)
		}
	}

	return runErr
}
