package recipient

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusSuccess.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusSkipped.Terminal())
}

func TestStatus_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusSuccess.Valid())
	assert.False(t, Status("done").Valid())
	assert.False(t, Status("").Valid())
}

func TestRawUnits_Truncates(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("1.2345675")

	// Truncation toward zero, never rounding.
	assert.Equal(t, uint64(1234567), RawUnits(amount, 6))
}

func TestRawUnits_WholeAmount(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("250000")

	assert.Equal(t, uint64(250_000_000_000), RawUnits(amount, 6))
}

func TestRawUnits_ZeroDecimals(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("99.99")

	assert.Equal(t, uint64(99), RawUnits(amount, 0))
}

func TestRawUnits_NegativeIsZero(t *testing.T) {
	t.Parallel()

	amount := decimal.RequireFromString("-5")

	assert.Equal(t, uint64(0), RawUnits(amount, 6))
}

func TestPending_PreservesOrder(t *testing.T) {
	t.Parallel()

	recipients := []*Recipient{
		{Address: "a", Status: StatusSuccess},
		{Address: "b", Status: StatusPending},
		{Address: "c", Status: StatusFailed},
		{Address: "d", Status: StatusPending},
	}

	pending := Pending(recipients)
	require.Len(t, pending, 2)
	assert.Equal(t, "b", pending[0].Address)
	assert.Equal(t, "d", pending[1].Address)
}

func TestTotalAmount(t *testing.T) {
	t.Parallel()

	recipients := []*Recipient{
		{Amount: decimal.RequireFromString("100.5")},
		{Amount: decimal.RequireFromString("49.5")},
	}

	assert.True(t, TotalAmount(recipients).Equal(decimal.RequireFromString("150")))
}
