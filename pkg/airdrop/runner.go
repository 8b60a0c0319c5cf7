// Package airdrop orchestrates a full distribution run: recipient loading and
// validation, the funding pre-flight gate, account provisioning, the
// checkpointed transfer loop, and report generation.
package airdrop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/nematoken/soldrop/pkg/checkpoint"
	"github.com/nematoken/soldrop/pkg/config"
	"github.com/nematoken/soldrop/pkg/executor"
	"github.com/nematoken/soldrop/pkg/funding"
	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/observability"
	"github.com/nematoken/soldrop/pkg/provision"
	"github.com/nematoken/soldrop/pkg/recipient"
	"github.com/nematoken/soldrop/pkg/report"
	"github.com/nematoken/soldrop/pkg/retry"
)

// Stage-level failure errors. Each marks where the run stopped.
var (
	ErrLoadFailed      = errors.New("recipient loading failed")
	ErrFundingFailed   = errors.New("funding pre-flight failed")
	ErrProvisionFailed = errors.New("account provisioning failed")
	ErrExecutionFailed = errors.New("transfer execution failed")
)

// Outcome is what a completed (or failed-late) run hands back to the CLI.
type Outcome struct {
	Summary   report.Summary
	ReportDir string
}

// Runner wires the run pipeline together.
type Runner struct {
	cfg         *config.Config
	client      ledger.Client
	logger      *slog.Logger
	metrics     *observability.RunMetrics
	reports     *report.Writer
	distributor solana.PublicKey
	mint        solana.PublicKey
}

// NewRunner creates a runner. distributor is the fee payer and transfer
// authority; metrics may be nil.
func NewRunner(
	cfg *config.Config,
	client ledger.Client,
	distributor, mint solana.PublicKey,
	reports *report.Writer,
	metrics *observability.RunMetrics,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		cfg:         cfg,
		client:      client,
		logger:      logger,
		metrics:     metrics,
		reports:     reports,
		distributor: distributor,
		mint:        mint,
	}
}

// Run executes the full pipeline for the configured phase. Reports are
// written even when the transfer loop ends in total failure, so a failed run
// still leaves a usable record.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	dist := r.cfg.Distribution

	r.logger.Info("starting distribution run",
		"phase", dist.Phase,
		"csv", dist.CSVPath,
		"dry_run", dist.DryRun)

	validated, err := r.loadRecipients()
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	sourceAccount, deriveErr := ledger.DeriveTokenAccount(r.distributor, r.mint)
	if deriveErr != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrFundingFailed, deriveErr)
	}

	fundingErr := funding.NewValidator(r.client, dist.FeeEstimateLamports, r.cfg.Token.Decimals, r.logger).
		Check(ctx, r.distributor, sourceAccount, validated.Recipients, dist.Phase)
	if fundingErr != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrFundingFailed, fundingErr)
	}

	provisionErr := r.provision(ctx, validated.Recipients)
	if provisionErr != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrProvisionFailed, provisionErr)
	}

	result, runErr := r.execute(ctx, sourceAccount, validated)

	outcome, reportErr := r.report(validated.Recipients, result)
	if reportErr != nil {
		r.logger.Error("report generation failed", "error", reportErr)
	}

	if runErr != nil {
		return outcome, fmt.Errorf("%w: %w", ErrExecutionFailed, runErr)
	}

	return outcome, nil
}

func (r *Runner) loadRecipients() (recipient.Result, error) {
	rows, loadErr := recipient.LoadCSV(r.cfg.Distribution.CSVPath, r.cfg.Distribution.Phase)
	if loadErr != nil {
		return recipient.Result{}, loadErr
	}

	validated := recipient.ValidateRows(rows, r.logger)

	r.logger.Info("recipients loaded",
		"validated", len(validated.Recipients),
		"skipped", validated.Skipped)

	return validated, nil
}

func (r *Runner) provision(ctx context.Context, recipients []*recipient.Recipient) error {
	dist := r.cfg.Distribution

	provisioner := provision.NewProvisioner(r.client, r.distributor, r.mint, provision.Options{
		BatchSize:           dist.AccountBatchSize,
		ExistenceCheckBatch: dist.ExistenceCheckBatch,
		ExistenceCheckDelay: dist.ExistenceCheckDelay,
		InterBatchDelay:     dist.InterBatchDelay,
		Retry:               r.retryPolicy(),
		DryRun:              dist.DryRun,
	}, r.logger)

	created, err := provisioner.EnsureAccounts(ctx, recipients)
	if err != nil {
		return err
	}

	r.metrics.RecordAccountsCreated(ctx, created)

	return nil
}

func (r *Runner) execute(ctx context.Context, sourceAccount solana.PublicKey, validated recipient.Result) (executor.Result, error) {
	dist := r.cfg.Distribution

	checkpointDir := r.cfg.Checkpoint.Dir
	if checkpointDir == "" {
		checkpointDir = checkpoint.DefaultDir()
	}

	store := checkpoint.NewStore(checkpoint.FilePath(checkpointDir, dist.Phase), r.logger)

	exec := executor.NewExecutor(r.client, store, sourceAccount, r.mint, r.distributor, executor.Options{
		BatchSize:       dist.BatchSize,
		InterBatchDelay: dist.InterBatchDelay,
		Retry:           r.retryPolicy(),
		Decimals:        r.cfg.Token.Decimals,
		DryRun:          dist.DryRun,
	}, r.metrics, r.logger)

	return exec.Run(ctx, dist.Phase, validated.Recipients, validated.Skipped)
}

func (r *Runner) report(recipients []*recipient.Recipient, result executor.Result) (Outcome, error) {
	summary := report.BuildSummary(recipients, result.Counters, report.Meta{
		Phase:     r.cfg.Distribution.Phase,
		DryRun:    r.cfg.Distribution.DryRun,
		TokenMint: r.cfg.Token.Mint,
		RPCURL:    r.cfg.RPC.URL,
	})

	outcome := Outcome{Summary: summary}

	if r.reports == nil {
		return outcome, nil
	}

	runDir, writeErr := r.reports.Write(recipients, summary)
	if writeErr != nil {
		return outcome, writeErr
	}

	outcome.ReportDir = runDir
	r.logger.Info("reports written", "dir", runDir)

	return outcome, nil
}

func (r *Runner) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: r.cfg.Distribution.MaxRetries,
		Delay:       r.cfg.Distribution.RetryDelay,
	}
}
