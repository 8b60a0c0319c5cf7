package recipient

import (
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Row is one raw allocation row before validation.
type Row struct {
	// Address is the raw wallet address string.
	Address string

	// SourceBalance is the informational ownership balance column.
	SourceBalance int64

	// Amount is the raw allocation value for the selected phase.
	Amount string

	// Line is the 1-based source line for log context.
	Line int
}

// Result holds the outcome of validating a row set.
type Result struct {
	// Recipients are the validated targets, initialized to pending, in the
	// same order as the input rows.
	Recipients []*Recipient

	// Skipped counts rows rejected during validation.
	Skipped int
}

// ValidateRows converts raw rows into typed recipients. Rows with a malformed
// address, a non-positive amount, or a duplicate address are counted as
// skipped and logged; they are never fatal. Output order matches input order,
// so downstream batch grouping is deterministic.
func ValidateRows(rows []Row, logger *slog.Logger) Result {
	var result Result

	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		r, ok := validateRow(row, seen, logger)
		if !ok {
			result.Skipped++

			continue
		}

		seen[r.Address] = true
		result.Recipients = append(result.Recipients, r)
	}

	return result
}

func validateRow(row Row, seen map[string]bool, logger *slog.Logger) (*Recipient, bool) {
	owner, err := solana.PublicKeyFromBase58(row.Address)
	if err != nil {
		logger.Error("invalid wallet address, skipping row",
			"line", row.Line, "address", row.Address, "error", err)

		return nil, false
	}

	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		logger.Error("unparseable allocation amount, skipping row",
			"line", row.Line, "address", row.Address, "amount", row.Amount, "error", err)

		return nil, false
	}

	if !amount.IsPositive() {
		logger.Warn("non-positive allocation amount, skipping row",
			"line", row.Line, "address", row.Address, "amount", amount)

		return nil, false
	}

	if seen[row.Address] {
		logger.Warn("duplicate wallet address, skipping row",
			"line", row.Line, "address", row.Address)

		return nil, false
	}

	return &Recipient{
		Address:       row.Address,
		Owner:         owner,
		SourceBalance: row.SourceBalance,
		Amount:        amount,
		Status:        StatusPending,
	}, true
}
