// Package provision ensures every recipient has a receiving token account on
// the ledger before transfers begin, creating missing accounts in batches
// with a per-item fallback.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/recipient"
	"github.com/nematoken/soldrop/pkg/retry"
)

// ErrProvisionIncomplete indicates at least one recipient still lacks a
// receiving account after all creation attempts. Transfers cannot proceed.
var ErrProvisionIncomplete = errors.New("account provisioning incomplete")

// Options tunes pacing and batching of the provisioning pass.
type Options struct {
	// BatchSize is the number of account creations packed into one atomic
	// submission. Account creation is heavier per unit than a transfer, so
	// this is smaller than the transfer batch size.
	BatchSize int

	// ExistenceCheckBatch is how many existence reads run between pacing
	// delays.
	ExistenceCheckBatch int

	// ExistenceCheckDelay is the pause inserted after each read batch to
	// respect read-rate limits.
	ExistenceCheckDelay time.Duration

	// InterBatchDelay is the pause between consecutive creation batches. No
	// delay follows the final batch.
	InterBatchDelay time.Duration

	// Retry governs the per-item fallback after a batch-level failure.
	Retry retry.Policy

	// DryRun logs intended creations without touching the network.
	DryRun bool
}

// Provisioner derives, checks, and creates recipient token accounts.
type Provisioner struct {
	client ledger.Client
	logger *slog.Logger
	payer  solana.PublicKey
	mint   solana.PublicKey
	opts   Options
}

// NewProvisioner creates a provisioner. payer funds account creation rent.
func NewProvisioner(client ledger.Client, payer, mint solana.PublicKey, opts Options, logger *slog.Logger) *Provisioner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}

	if opts.ExistenceCheckBatch <= 0 {
		opts.ExistenceCheckBatch = 3
	}

	return &Provisioner{
		client: client,
		logger: logger,
		payer:  payer,
		mint:   mint,
		opts:   opts,
	}
}

// EnsureAccounts derives each recipient's token account, finds the missing
// ones, and creates them. It returns the number of accounts created, and
// ErrProvisionIncomplete if any recipient still lacks an account afterwards.
func (p *Provisioner) EnsureAccounts(ctx context.Context, recipients []*recipient.Recipient) (int, error) {
	missing, deriveErr := p.findMissing(ctx, recipients)
	if deriveErr != nil {
		return 0, deriveErr
	}

	if len(missing) == 0 {
		p.logger.Info("all recipient accounts exist", "recipients", len(recipients))

		return 0, nil
	}

	p.logger.Info("creating missing token accounts",
		"missing", len(missing),
		"recipients", len(recipients))

	if p.opts.DryRun {
		for _, r := range missing {
			p.logger.Info("dry run: would create token account",
				"owner", r.Address,
				"token_account", r.TokenAccount.String())
		}

		return 0, nil
	}

	created := p.createAccounts(ctx, missing)
	if created < len(missing) {
		return created, fmt.Errorf("%w: created %d of %d missing accounts",
			ErrProvisionIncomplete, created, len(missing))
	}

	return created, nil
}

// findMissing derives every token account and collects the recipients whose
// account is absent. An errored existence check counts as missing: creating
// an account that already exists is recoverable, skipping one that does not
// exist is not.
func (p *Provisioner) findMissing(ctx context.Context, recipients []*recipient.Recipient) ([]*recipient.Recipient, error) {
	var missing []*recipient.Recipient

	checks := 0

	for _, r := range recipients {
		account, deriveErr := ledger.DeriveTokenAccount(r.Owner, p.mint)
		if deriveErr != nil {
			return nil, deriveErr
		}

		r.TokenAccount = &account

		exists, checkErr := p.client.AccountExists(ctx, account)
		if checkErr != nil {
			p.logger.Warn("existence check failed, assuming missing",
				"owner", r.Address, "error", checkErr)

			missing = append(missing, r)
		} else if !exists {
			missing = append(missing, r)
		}

		checks++
		if checks%p.opts.ExistenceCheckBatch == 0 && p.opts.ExistenceCheckDelay > 0 {
			waitErr := retry.Wait(ctx, p.opts.ExistenceCheckDelay)
			if waitErr != nil {
				return nil, waitErr
			}
		}
	}

	return missing, nil
}

// createAccounts creates accounts in batches with per-item fallback and
// returns how many were created.
func (p *Provisioner) createAccounts(ctx context.Context, missing []*recipient.Recipient) int {
	created := 0

	for start := 0; start < len(missing); start += p.opts.BatchSize {
		end := min(start+p.opts.BatchSize, len(missing))
		batch := missing[start:end]

		instructions := make([]solana.Instruction, 0, len(batch))
		for _, r := range batch {
			instructions = append(instructions, ledger.CreateAccountInstruction(p.payer, r.Owner, p.mint))
		}

		signature, submitErr := p.client.SubmitAndConfirm(ctx, instructions)
		if submitErr == nil {
			p.logger.Info("account batch created",
				"batch_size", len(batch),
				"signature", signature.String())

			created += len(batch)
		} else {
			p.logger.Warn("account batch failed, falling back to individual creation",
				"batch_size", len(batch),
				"error", submitErr)

			created += p.createIndividually(ctx, batch)
		}

		if end < len(missing) && p.opts.InterBatchDelay > 0 {
			waitErr := retry.Wait(ctx, p.opts.InterBatchDelay)
			if waitErr != nil {
				return created
			}
		}
	}

	return created
}

func (p *Provisioner) createIndividually(ctx context.Context, batch []*recipient.Recipient) int {
	created := 0

	for _, r := range batch {
		instruction := ledger.CreateAccountInstruction(p.payer, r.Owner, p.mint)

		attemptErr := p.opts.Retry.Do(ctx, func(ctx context.Context) error {
			_, submitErr := p.client.SubmitAndConfirm(ctx, []solana.Instruction{instruction})

			return submitErr
		})
		if attemptErr != nil {
			// Creating an account that already exists fails the transaction.
			// That happens when an earlier existence check errored and the
			// account was presumed missing, so re-check before giving up.
			exists, checkErr := p.client.AccountExists(ctx, *r.TokenAccount)
			if checkErr == nil && exists {
				p.logger.Info("token account already exists",
					"owner", r.Address,
					"token_account", r.TokenAccount.String())

				created++

				continue
			}

			p.logger.Error("account creation failed",
				"owner", r.Address,
				"error", attemptErr)

			continue
		}

		created++
	}

	return created
}
