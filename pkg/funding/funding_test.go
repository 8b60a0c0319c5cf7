package funding

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nematoken/soldrop/pkg/recipient"
)

type fakeClient struct {
	feeBalance   uint64
	tokenBalance uint64
	balanceErr   error
	tokenErr     error
}

func (f *fakeClient) Balance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return f.feeBalance, f.balanceErr
}

func (f *fakeClient) TokenBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return f.tokenBalance, f.tokenErr
}

func (f *fakeClient) AccountExists(_ context.Context, _ solana.PublicKey) (bool, error) {
	return true, nil
}

func (f *fakeClient) SubmitAndConfirm(_ context.Context, _ []solana.Instruction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecipients(t *testing.T, amounts ...string) []*recipient.Recipient {
	t.Helper()

	recipients := make([]*recipient.Recipient, 0, len(amounts))

	for _, amount := range amounts {
		value, err := decimal.NewFromString(amount)
		require.NoError(t, err)

		wallet := solana.NewWallet()
		recipients = append(recipients, &recipient.Recipient{
			Address: wallet.PublicKey().String(),
			Owner:   wallet.PublicKey(),
			Amount:  value,
			Status:  recipient.StatusPending,
		})
	}

	return recipients
}

func TestValidator_Check_Passes(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		feeBalance:   30_000_000,          // covers 2 recipients at 0.01 SOL each
		tokenBalance: 300_000_000_000_000, // 300M tokens at 6 decimals
	}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	recipients := testRecipients(t, "100.5", "200")

	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), recipients, 1)
	assert.NoError(t, err)
}

func TestValidator_Check_InsufficientFees(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		feeBalance:   5_000_000, // below 2 x 0.01 SOL
		tokenBalance: 1_000_000_000,
	}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), testRecipients(t, "1", "2"), 1)
	assert.ErrorIs(t, err, ErrInsufficientFees)
}

func TestValidator_Check_InsufficientTokens(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		feeBalance:   100_000_000,
		tokenBalance: 1_000_000, // 1 token at 6 decimals
	}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), testRecipients(t, "100"), 1)
	assert.ErrorIs(t, err, ErrInsufficientTokens)
}

func TestValidator_Check_BalanceReadFails(t *testing.T) {
	t.Parallel()

	client := &fakeClient{balanceErr: errors.New("rpc unavailable")}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), testRecipients(t, "1"), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientFees)
}

func TestValidator_Check_TokenReadFails(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		feeBalance: 100_000_000,
		tokenErr:   errors.New("account not found"),
	}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), testRecipients(t, "1"), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInsufficientTokens)
}

func TestValidator_Check_PhaseDriftOnlyWarns(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		feeBalance:   100_000_000,
		tokenBalance: ^uint64(0), // plenty
	}
	validator := NewValidator(client, 10_000_000, 6, discardLogger())

	// Far from the 50M phase-1 plan, but drift is advisory only.
	err := validator.Check(context.Background(), solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(), testRecipients(t, "123"), 1)
	assert.NoError(t, err)
}
