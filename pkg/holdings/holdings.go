// Package holdings compares recipients' current token balances against their
// airdropped amounts and categorizes retention behavior after a completed
// distribution.
package holdings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/retry"
)

// Category classifies how much of an airdrop a recipient still holds.
type Category string

// Retention categories.
const (
	// CategoryFullHolder marks balances at or above 95% of the airdropped
	// amount. The 5% slack absorbs rounding in the original allocation.
	CategoryFullHolder Category = "full_holder"

	CategoryPartialHolder Category = "partial_holder"
	CategorySoldAll       Category = "sold_all"
)

// fullHolderThreshold is the retained fraction above which a recipient
// counts as a full holder.
var fullHolderThreshold = decimal.NewFromFloat(0.95)

// Airdropped is one recipient's recorded distribution outcome from a
// completed run.
type Airdropped struct {
	Wallet string
	Amount decimal.Decimal
}

// Holding is the current-balance observation for one recipient.
type Holding struct {
	Wallet     string
	Airdropped decimal.Decimal
	Current    decimal.Decimal
	Retention  decimal.Decimal // percentage, two decimal places
	Category   Category
}

// Summary aggregates a full holdings check.
type Summary struct {
	Holdings         []Holding
	FullHolders      int
	PartialHolders   int
	SoldAll          int
	TotalAirdropped  decimal.Decimal
	TotalRemaining   decimal.Decimal
	OverallRetention decimal.Decimal // percentage
}

// Options tunes pacing and partial flushing of the holdings check.
type Options struct {
	// Decimals is the token's decimal scale.
	Decimals int

	// PaceEvery inserts PaceDelay after this many balance reads.
	PaceEvery int

	// PaceDelay is the pause between read groups.
	PaceDelay time.Duration

	// FlushEvery triggers the partial-results callback after this many
	// checked wallets. Zero disables partial flushing.
	FlushEvery int

	// OnPartial receives the results so far at every flush point. Failures
	// there only cost the partial file, never the check.
	OnPartial func(holdings []Holding)
}

// Checker reads current balances and categorizes retention.
type Checker struct {
	client ledger.Client
	logger *slog.Logger
	mint   solana.PublicKey
	opts   Options
}

// NewChecker creates a holdings checker for one token mint.
func NewChecker(client ledger.Client, mint solana.PublicKey, opts Options, logger *slog.Logger) *Checker {
	if opts.PaceEvery <= 0 {
		opts.PaceEvery = 5
	}

	return &Checker{
		client: client,
		logger: logger,
		mint:   mint,
		opts:   opts,
	}
}

// Check reads every recipient's current balance and builds the retention
// summary. A read failure for one wallet records a zero balance for that
// wallet only.
func (c *Checker) Check(ctx context.Context, airdropped []Airdropped) (Summary, error) {
	summary := Summary{Holdings: make([]Holding, 0, len(airdropped))}

	for i, record := range airdropped {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return summary, ctxErr
		}

		current := c.currentBalance(ctx, record.Wallet)
		holding := categorize(record, current)
		summary.Holdings = append(summary.Holdings, holding)

		c.logger.Info("checked holdings",
			"wallet", record.Wallet,
			"current", current.String(),
			"airdropped", record.Amount.String(),
			"category", string(holding.Category))

		checked := i + 1
		if checked%c.opts.PaceEvery == 0 && c.opts.PaceDelay > 0 {
			waitErr := retry.Wait(ctx, c.opts.PaceDelay)
			if waitErr != nil {
				return summary, waitErr
			}
		}

		if c.opts.FlushEvery > 0 && checked%c.opts.FlushEvery == 0 && c.opts.OnPartial != nil {
			c.opts.OnPartial(summary.Holdings)
		}
	}

	summarize(&summary)

	return summary, nil
}

// currentBalance reads a wallet's token balance in whole tokens. Missing
// accounts and read errors both observe as zero.
func (c *Checker) currentBalance(ctx context.Context, wallet string) decimal.Decimal {
	owner, parseErr := solana.PublicKeyFromBase58(wallet)
	if parseErr != nil {
		c.logger.Warn("unparseable wallet in airdrop record", "wallet", wallet, "error", parseErr)

		return decimal.Zero
	}

	account, deriveErr := ledger.DeriveTokenAccount(owner, c.mint)
	if deriveErr != nil {
		c.logger.Warn("token account derivation failed", "wallet", wallet, "error", deriveErr)

		return decimal.Zero
	}

	exists, existsErr := c.client.AccountExists(ctx, account)
	if existsErr != nil || !exists {
		return decimal.Zero
	}

	raw, balanceErr := c.client.TokenBalance(ctx, account)
	if balanceErr != nil {
		c.logger.Warn("balance read failed", "wallet", wallet, "error", balanceErr)

		return decimal.Zero
	}

	return decimal.NewFromUint64(raw).Shift(int32(-c.opts.Decimals))
}

func categorize(record Airdropped, current decimal.Decimal) Holding {
	holding := Holding{
		Wallet:     record.Wallet,
		Airdropped: record.Amount,
		Current:    current,
	}

	if record.Amount.IsPositive() {
		holding.Retention = current.Div(record.Amount).Mul(decimal.NewFromInt(100)).Round(2)
	}

	switch {
	case record.Amount.IsPositive() && current.GreaterThanOrEqual(record.Amount.Mul(fullHolderThreshold)):
		holding.Category = CategoryFullHolder
	case current.IsPositive():
		holding.Category = CategoryPartialHolder
	default:
		holding.Category = CategorySoldAll
	}

	return holding
}

func summarize(summary *Summary) {
	for _, holding := range summary.Holdings {
		switch holding.Category {
		case CategoryFullHolder:
			summary.FullHolders++
		case CategoryPartialHolder:
			summary.PartialHolders++
		case CategorySoldAll:
			summary.SoldAll++
		}

		summary.TotalAirdropped = summary.TotalAirdropped.Add(holding.Airdropped)
		summary.TotalRemaining = summary.TotalRemaining.Add(holding.Current)
	}

	if summary.TotalAirdropped.IsPositive() {
		summary.OverallRetention = summary.TotalRemaining.
			Div(summary.TotalAirdropped).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
}

// String describes a holding for log lines and tables.
func (h Holding) String() string {
	return fmt.Sprintf("%s: %s / %s (%s%%) %s",
		h.Wallet, h.Current, h.Airdropped, h.Retention, h.Category)
}
