// Package recipient defines the typed distribution target record and the
// validation step that turns raw allocation rows into status-tagged recipients.
package recipient

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a recipient within a run. Once a recipient
// reaches a terminal status it never reverts to pending in the same run.
type Status string

// Recipient lifecycle states.
const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Terminal reports whether the status is final for this run.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// Recipient is one distribution target.
type Recipient struct {
	// Address is the base58 wallet address, unique within a run.
	Address string

	// Owner is the parsed wallet public key.
	Owner solana.PublicKey

	// SourceBalance is the informational ownership balance the allocation
	// was derived from.
	SourceBalance int64

	// Amount is the token quantity owed for the selected phase.
	Amount decimal.Decimal

	// TokenAccount is the derived associated token account. Nil until the
	// provisioner computes it.
	TokenAccount *solana.PublicKey

	// Status tracks run progress for this recipient.
	Status Status
}

// RawUnits converts the allocation amount to the token's smallest integer
// unit, truncating toward zero.
func (r *Recipient) RawUnits(decimals int) uint64 {
	return RawUnits(r.Amount, decimals)
}

// RawUnits converts a human-readable token amount to raw units at the given
// decimal scale. The fractional remainder beyond the scale is truncated, not
// rounded: 1.2345675 at 6 decimals yields 1234567.
func RawUnits(amount decimal.Decimal, decimals int) uint64 {
	raw := amount.Shift(int32(decimals)).Truncate(0).BigInt()
	if raw.Sign() < 0 {
		return 0
	}

	if !raw.IsUint64() {
		// Saturate rather than wrap; amounts near uint64 range indicate
		// bad input and are caught by the funding gate before submission.
		return ^uint64(0)
	}

	return raw.Uint64()
}

// Pending returns the subset of recipients still awaiting processing,
// preserving input order.
func Pending(recipients []*Recipient) []*Recipient {
	var pending []*Recipient

	for _, r := range recipients {
		if r.Status == StatusPending {
			pending = append(pending, r)
		}
	}

	return pending
}

// TotalAmount sums allocation amounts over all recipients.
func TotalAmount(recipients []*Recipient) decimal.Decimal {
	total := decimal.Zero

	for _, r := range recipients {
		total = total.Add(r.Amount)
	}

	return total
}
