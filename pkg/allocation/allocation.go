// Package allocation computes phase-weighted token allocations from an
// ownership-balance snapshot. Each wallet receives a share of every phase pool
// proportional to its share of the total claimed balance.
package allocation

import (
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"
)

// TotalSupply is the full token supply the phase pools are carved from.
const TotalSupply = 1_000_000_000

// amountPlaces is the decimal precision of computed allocations.
const amountPlaces = 2

// Phase pool percentages of total supply. The four phases together
// distribute 30% of supply.
var phaseShares = [4]decimal.Decimal{
	decimal.NewFromFloat(0.05), // phase 1, 1 day after bond
	decimal.NewFromFloat(0.10), // phase 2, 2 weeks after bond
	decimal.NewFromFloat(0.10), // phase 3, 2 months after bond
	decimal.NewFromFloat(0.05), // phase 4, holders from bonding to 3 months
}

// ErrNoClaimedBalance indicates no wallet in the snapshot holds a positive
// balance, so there is nothing to allocate against.
var ErrNoClaimedBalance = errors.New("no claimed balance in snapshot")

// BalanceRow is one wallet's ownership balance in the input snapshot.
type BalanceRow struct {
	Wallet  string
	Balance int64
}

// Entry is one wallet's computed allocation across all phases.
type Entry struct {
	Wallet        string
	SourceBalance int64
	Phases        [4]decimal.Decimal
	Total         decimal.Decimal
}

// Result is the full allocation outcome plus verification totals.
type Result struct {
	Entries      []Entry
	PhaseTotals  [4]decimal.Decimal
	Total        decimal.Decimal
	TotalClaimed int64
	Excluded     int
}

// PhasePool returns the token pool for a phase (1-4) in whole tokens.
func PhasePool(phase int) decimal.Decimal {
	return decimal.NewFromInt(TotalSupply).Mul(phaseShares[phase-1])
}

// Calculate allocates each phase pool across wallets in
// proportion to their balance share, rounded to two decimal places. Wallets
// with a zero or negative balance are excluded with a warning. Entry order
// matches input order; duplicate wallets keep their first row.
func Calculate(rows []BalanceRow, logger *slog.Logger) (Result, error) {
	var result Result

	seen := make(map[string]bool, len(rows))
	eligible := make([]BalanceRow, 0, len(rows))

	for _, row := range rows {
		if seen[row.Wallet] {
			continue
		}

		seen[row.Wallet] = true

		if row.Balance <= 0 {
			logger.Warn("wallet has no claimed balance, excluding", "wallet", row.Wallet)
			result.Excluded++

			continue
		}

		eligible = append(eligible, row)
		result.TotalClaimed += row.Balance
	}

	if result.TotalClaimed == 0 {
		return Result{}, ErrNoClaimedBalance
	}

	totalClaimed := decimal.NewFromInt(result.TotalClaimed)
	result.Entries = make([]Entry, 0, len(eligible))

	for _, row := range eligible {
		share := decimal.NewFromInt(row.Balance).Div(totalClaimed)

		entry := Entry{
			Wallet:        row.Wallet,
			SourceBalance: row.Balance,
		}

		for phase := 1; phase <= 4; phase++ {
			amount := PhasePool(phase).Mul(share).Round(amountPlaces)
			entry.Phases[phase-1] = amount
			entry.Total = entry.Total.Add(amount)
			result.PhaseTotals[phase-1] = result.PhaseTotals[phase-1].Add(amount)
		}

		result.Total = result.Total.Add(entry.Total)
		result.Entries = append(result.Entries, entry)
	}

	logger.Info("allocation computed",
		"wallets", len(result.Entries),
		"excluded", result.Excluded,
		"total_claimed", result.TotalClaimed,
		"total_allocated", result.Total.String())

	return result, nil
}
