// Package executor drives the batched transfer loop at the core of a
// distribution run: sequential fixed-size batches over the pending working
// set, batch-then-per-item retry, and a checkpoint write after every batch.
package executor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/nematoken/soldrop/pkg/checkpoint"
	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/observability"
	"github.com/nematoken/soldrop/pkg/recipient"
	"github.com/nematoken/soldrop/pkg/retry"
)

// ErrAllTransfersFailed indicates the run processed pending recipients but
// not a single transfer succeeded.
var ErrAllTransfersFailed = errors.New("all transfers failed")

// Options tunes the transfer loop.
type Options struct {
	// BatchSize is the number of transfers packed into one atomic submission.
	BatchSize int

	// InterBatchDelay is the pause between consecutive batches. No delay
	// follows the final batch.
	InterBatchDelay time.Duration

	// Retry governs the per-item fallback after a batch-level failure.
	Retry retry.Policy

	// Decimals is the token's decimal scale for raw-unit conversion.
	Decimals int

	// DryRun logs intended transfers without network mutation and without
	// touching the checkpoint.
	DryRun bool
}

// Result summarizes a completed run.
type Result struct {
	Counters  checkpoint.Counters
	Processed int
	Resumed   int
}

// Executor processes pending recipients in sequential batches.
type Executor struct {
	client  ledger.Client
	store   *checkpoint.Store
	logger  *slog.Logger
	metrics *observability.RunMetrics
	source  solana.PublicKey
	mint    solana.PublicKey
	owner   solana.PublicKey
	opts    Options
}

// NewExecutor creates a transfer executor. source is the distributor's token
// account, owner its wallet authority. metrics may be nil.
func NewExecutor(
	client ledger.Client,
	store *checkpoint.Store,
	source, mint, owner solana.PublicKey,
	opts Options,
	metrics *observability.RunMetrics,
	logger *slog.Logger,
) *Executor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}

	return &Executor{
		client:  client,
		store:   store,
		logger:  logger,
		metrics: metrics,
		source:  source,
		mint:    mint,
		owner:   owner,
		opts:    opts,
	}
}

// Run restores any matching checkpoint, then processes every still-pending
// recipient in order. It returns ErrAllTransfersFailed when pending work
// existed and none of it succeeded. Context cancellation aborts the loop;
// recipients caught mid-batch keep their pending status so a resumed run
// retries them instead of inheriting a failure they never earned.
func (e *Executor) Run(ctx context.Context, phase int, recipients []*recipient.Recipient, skipped int) (Result, error) {
	result := Result{Counters: checkpoint.Counters{Skipped: skipped}}

	if !e.opts.DryRun {
		snap, ok := e.store.Load(phase, len(recipients))
		if ok {
			result.Resumed = snap.Restore(recipients)
			result.Counters = snap.Counters

			e.logger.Info("resumed from checkpoint",
				"restored", result.Resumed,
				"success", result.Counters.Success,
				"failed", result.Counters.Failed)
		}
	}

	pending := recipient.Pending(recipients)
	if len(pending) == 0 {
		e.logger.Info("no pending recipients, nothing to do")

		return result, nil
	}

	e.logger.Info("starting transfer loop",
		"pending", len(pending),
		"batch_size", e.opts.BatchSize,
		"dry_run", e.opts.DryRun)

	batches := (len(pending) + e.opts.BatchSize - 1) / e.opts.BatchSize

	for start := 0; start < len(pending); start += e.opts.BatchSize {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return result, ctxErr
		}

		end := min(start+e.opts.BatchSize, len(pending))
		batch := pending[start:end]
		batchNum := start/e.opts.BatchSize + 1

		e.processBatch(ctx, batch, batchNum, batches, &result.Counters)

		for _, r := range batch {
			if r.Status != recipient.StatusPending {
				result.Processed++
			}
		}

		if !e.opts.DryRun {
			saveErr := e.store.Save(checkpoint.NewSnapshot(phase, recipients, result.Counters))
			if saveErr != nil {
				// Degrades resume granularity only; the run continues.
				e.logger.Error("checkpoint save failed", "error", saveErr)
			}
		}

		if end < len(pending) && e.opts.InterBatchDelay > 0 {
			waitErr := retry.Wait(ctx, e.opts.InterBatchDelay)
			if waitErr != nil {
				return result, waitErr
			}
		}
	}

	ctxErr := ctx.Err()
	if ctxErr != nil {
		return result, ctxErr
	}

	e.logger.Info("transfer loop finished",
		"processed", result.Processed,
		"success", result.Counters.Success,
		"failed", result.Counters.Failed)

	if result.Counters.Success == 0 {
		return result, ErrAllTransfersFailed
	}

	return result, nil
}

// processBatch attempts one atomic batch submission and falls back to
// per-recipient retries on failure. Every member leaves with a terminal
// status.
func (e *Executor) processBatch(ctx context.Context, batch []*recipient.Recipient, batchNum, batches int, counters *checkpoint.Counters) {
	started := time.Now()

	e.logger.Info("processing batch",
		"batch", batchNum,
		"of", batches,
		"size", len(batch))

	if e.opts.DryRun {
		for _, r := range batch {
			e.logger.Info("dry run: would transfer",
				"recipient", r.Address,
				"amount", r.Amount.String(),
				"raw_units", r.RawUnits(e.opts.Decimals))

			e.markSuccess(ctx, r, counters)
		}

		e.recordBatch(ctx, "dry_run", started)

		return
	}

	signature, submitErr := e.client.SubmitAndConfirm(ctx, e.batchInstructions(batch))
	if submitErr == nil {
		for _, r := range batch {
			e.markSuccess(ctx, r, counters)
		}

		e.logger.Info("batch confirmed",
			"batch", batchNum,
			"size", len(batch),
			"signature", signature.String())
		e.recordBatch(ctx, "success", started)

		return
	}

	if ctx.Err() != nil {
		// Interrupted, not rejected. Members stay pending for the next run.
		e.logger.Warn("batch interrupted",
			"batch", batchNum,
			"pending", len(batch))
		e.recordBatch(ctx, "interrupted", started)

		return
	}

	e.logger.Warn("batch failed, falling back to individual transfers",
		"batch", batchNum,
		"error", submitErr)

	e.transferIndividually(ctx, batch, counters)
	e.recordBatch(ctx, "fallback", started)
}

// transferIndividually retries each member of a failed batch on its own.
// Only retry exhaustion marks a recipient failed; an interrupt mid-fallback
// leaves the current and remaining members pending.
func (e *Executor) transferIndividually(ctx context.Context, batch []*recipient.Recipient, counters *checkpoint.Counters) {
	for _, r := range batch {
		instruction := e.transferInstruction(r)

		attemptErr := e.opts.Retry.Do(ctx, func(ctx context.Context) error {
			_, submitErr := e.client.SubmitAndConfirm(ctx, []solana.Instruction{instruction})

			return submitErr
		})
		if attemptErr != nil {
			if ctx.Err() != nil {
				e.logger.Warn("individual transfers interrupted",
					"recipient", r.Address)

				return
			}

			e.logger.Error("transfer failed",
				"recipient", r.Address,
				"amount", r.Amount.String(),
				"error", attemptErr)
			e.markFailed(ctx, r, counters)

			continue
		}

		e.markSuccess(ctx, r, counters)
	}
}

func (e *Executor) batchInstructions(batch []*recipient.Recipient) []solana.Instruction {
	instructions := make([]solana.Instruction, 0, len(batch))
	for _, r := range batch {
		instructions = append(instructions, e.transferInstruction(r))
	}

	return instructions
}

func (e *Executor) transferInstruction(r *recipient.Recipient) solana.Instruction {
	return ledger.TransferInstruction(
		e.source,
		e.mint,
		*r.TokenAccount,
		e.owner,
		r.RawUnits(e.opts.Decimals),
		uint8(e.opts.Decimals),
	)
}

func (e *Executor) markSuccess(ctx context.Context, r *recipient.Recipient, counters *checkpoint.Counters) {
	r.Status = recipient.StatusSuccess
	counters.Success++
	e.metrics.RecordTransfer(ctx, "success")
}

func (e *Executor) markFailed(ctx context.Context, r *recipient.Recipient, counters *checkpoint.Counters) {
	r.Status = recipient.StatusFailed
	counters.Failed++
	e.metrics.RecordTransfer(ctx, "failed")
}

func (e *Executor) recordBatch(ctx context.Context, outcome string, started time.Time) {
	e.metrics.RecordBatch(ctx, outcome, time.Since(started))
}
