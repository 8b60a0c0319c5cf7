// Package funding implements the pre-flight balance gate that runs before any
// ledger mutation: the distributor must hold enough fee currency for the whole
// run and enough tokens to cover every allocation.
package funding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/nematoken/soldrop/pkg/ledger"
	"github.com/nematoken/soldrop/pkg/recipient"
)

// Sentinel errors. Both are fatal: the run aborts before provisioning.
var (
	ErrInsufficientFees   = errors.New("insufficient fee balance for transaction fees")
	ErrInsufficientTokens = errors.New("insufficient token balance for distribution")
)

// phaseExpectedTotals maps each phase to its planned allocation total in
// whole tokens. Used only for a warning-level sanity check.
var phaseExpectedTotals = map[int]decimal.Decimal{
	1: decimal.NewFromInt(50_000_000),
	2: decimal.NewFromInt(100_000_000),
	3: decimal.NewFromInt(100_000_000),
	4: decimal.NewFromInt(50_000_000),
}

// expectedTotalTolerance is the allowed drift between the allocation sum and
// the phase plan before a warning is logged.
var expectedTotalTolerance = decimal.NewFromInt(1000)

// Validator checks distributor balances against the run's requirements.
type Validator struct {
	client              ledger.Client
	logger              *slog.Logger
	feeEstimateLamports uint64
	decimals            int
}

// NewValidator creates a funding validator. feeEstimateLamports is the coarse
// per-transfer fee heuristic, not a network-derived figure.
func NewValidator(client ledger.Client, feeEstimateLamports uint64, decimals int, logger *slog.Logger) *Validator {
	return &Validator{
		client:              client,
		logger:              logger,
		feeEstimateLamports: feeEstimateLamports,
		decimals:            decimals,
	}
}

// Check verifies the distributor can fund the run. distributor is the fee
// payer; sourceTokenAccount holds the tokens under distribution. Both balance
// checks are fatal on shortfall; the phase-total comparison only warns.
func (v *Validator) Check(ctx context.Context, distributor, sourceTokenAccount solana.PublicKey, recipients []*recipient.Recipient, phase int) error {
	feeBalance, balanceErr := v.client.Balance(ctx, distributor)
	if balanceErr != nil {
		return fmt.Errorf("read fee balance: %w", balanceErr)
	}

	needed := v.feeEstimateLamports * uint64(len(recipients))
	if feeBalance < needed {
		return fmt.Errorf("%w: need ~%s lamports, have %s",
			ErrInsufficientFees, humanize.Comma(int64(needed)), humanize.Comma(int64(feeBalance)))
	}

	v.logger.Info("fee balance sufficient",
		"balance_lamports", feeBalance,
		"estimated_lamports", needed,
		"recipients", len(recipients))

	tokenBalanceRaw, tokenErr := v.client.TokenBalance(ctx, sourceTokenAccount)
	if tokenErr != nil {
		return fmt.Errorf("read source token balance: %w", tokenErr)
	}

	tokenBalance := decimal.NewFromUint64(tokenBalanceRaw).Shift(int32(-v.decimals))
	total := recipient.TotalAmount(recipients)

	if tokenBalance.LessThan(total) {
		return fmt.Errorf("%w: need %s tokens, have %s",
			ErrInsufficientTokens, total.String(), tokenBalance.String())
	}

	v.logger.Info("token balance sufficient",
		"balance_tokens", tokenBalance.String(),
		"total_allocation", total.String())

	v.warnOnPhaseDrift(phase, total)

	return nil
}

// warnOnPhaseDrift compares the allocation sum to the phase plan. Allocation
// arithmetic is upstream of this component, so drift never aborts the run.
func (v *Validator) warnOnPhaseDrift(phase int, total decimal.Decimal) {
	expected, ok := phaseExpectedTotals[phase]
	if !ok {
		return
	}

	drift := total.Sub(expected).Abs()
	if drift.GreaterThan(expectedTotalTolerance) {
		v.logger.Warn("allocation total differs from phase plan",
			"phase", phase,
			"total", total.String(),
			"expected", expected.String(),
			"drift", drift.String())
	}
}
