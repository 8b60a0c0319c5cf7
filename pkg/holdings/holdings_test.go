package holdings

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
)

type fakeClient struct {
	balances map[string]uint64
	readErr  map[string]error
}

func (f *fakeClient) Balance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) TokenBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	if err, ok := f.readErr[account.String()]; ok {
		return 0, err
	}

	return f.balances[account.String()], nil
}

func (f *fakeClient) AccountExists(_ context.Context, account solana.PublicKey) (bool, error) {
	_, hasBalance := f.balances[account.String()]
	_, hasErr := f.readErr[account.String()]

	return hasBalance || hasErr, nil
}

func (f *fakeClient) SubmitAndConfirm(_ context.Context, _ []solana.Instruction) (solana.Signature, error) {
	return solana.Signature{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setBalance(t *testing.T, client *fakeClient, wallet string, mint solana.PublicKey, raw uint64) {
	t.Helper()

	owner, err := solana.PublicKeyFromBase58(wallet)
	require.NoError(t, err)

	account, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	client.balances[account.String()] = raw
}

func TestChecker_Check_Categories(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey()
	client := &fakeClient{balances: map[string]uint64{}}

	full := solana.NewWallet().PublicKey().String()
	partial := solana.NewWallet().PublicKey().String()
	sold := solana.NewWallet().PublicKey().String()

	// Airdropped 100 tokens each at 6 decimals.
	setBalance(t, client, full, mint, 96_000_000)    // 96 tokens, above the 95% line
	setBalance(t, client, partial, mint, 40_000_000) // 40 tokens

	checker := NewChecker(client, mint, Options{Decimals: 6}, discardLogger())

	amount := decimal.NewFromInt(100)
	summary, err := checker.Check(context.Background(), []Airdropped{
		{Wallet: full, Amount: amount},
		{Wallet: partial, Amount: amount},
		{Wallet: sold, Amount: amount},
	})
	require.NoError(t, err)

	require.Len(t, summary.Holdings, 3)
	assert.Equal(t, CategoryFullHolder, summary.Holdings[0].Category)
	assert.Equal(t, CategoryPartialHolder, summary.Holdings[1].Category)
	assert.Equal(t, CategorySoldAll, summary.Holdings[2].Category)

	assert.Equal(t, 1, summary.FullHolders)
	assert.Equal(t, 1, summary.PartialHolders)
	assert.Equal(t, 1, summary.SoldAll)

	assert.True(t, summary.TotalAirdropped.Equal(decimal.NewFromInt(300)))
	assert.True(t, summary.TotalRemaining.Equal(decimal.NewFromInt(136)))
}

func TestChecker_Check_RetentionPercentage(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey()
	client := &fakeClient{balances: map[string]uint64{}}

	wallet := solana.NewWallet().PublicKey().String()
	setBalance(t, client, wallet, mint, 25_000_000) // 25 of 100 tokens

	checker := NewChecker(client, mint, Options{Decimals: 6}, discardLogger())

	summary, err := checker.Check(context.Background(), []Airdropped{
		{Wallet: wallet, Amount: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)
	assert.True(t, summary.Holdings[0].Retention.Equal(decimal.NewFromInt(25)),
		"got %s", summary.Holdings[0].Retention)
}

func TestChecker_Check_ReadErrorObservesZero(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey()
	wallet := solana.NewWallet().PublicKey().String()

	owner, err := solana.PublicKeyFromBase58(wallet)
	require.NoError(t, err)

	account, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	client := &fakeClient{
		balances: map[string]uint64{},
		readErr:  map[string]error{account.String(): errors.New("rpc timeout")},
	}

	checker := NewChecker(client, mint, Options{Decimals: 6}, discardLogger())

	summary, checkErr := checker.Check(context.Background(), []Airdropped{
		{Wallet: wallet, Amount: decimal.NewFromInt(100)},
	})
	require.NoError(t, checkErr)
	assert.Equal(t, CategorySoldAll, summary.Holdings[0].Category)
}

func TestChecker_Check_PartialFlush(t *testing.T) {
	t.Parallel()

	mint := solana.NewWallet().PublicKey()
	client := &fakeClient{balances: map[string]uint64{}}

	var flushes [][]Holding

	opts := Options{
		Decimals:   6,
		FlushEvery: 2,
		OnPartial: func(holdings []Holding) {
			snapshot := make([]Holding, len(holdings))
			copy(snapshot, holdings)
			flushes = append(flushes, snapshot)
		},
	}
	checker := NewChecker(client, mint, opts, discardLogger())

	records := make([]Airdropped, 5)
	for i := range records {
		records[i] = Airdropped{
			Wallet: solana.NewWallet().PublicKey().String(),
			Amount: decimal.NewFromInt(10),
		}
	}

	_, err := checker.Check(context.Background(), records)
	require.NoError(t, err)

	// Flush after wallets 2 and 4, not after the final odd wallet.
	require.Len(t, flushes, 2)
	assert.Len(t, flushes[0], 2)
	assert.Len(t, flushes[1], 4)
}

func TestChecker_Check_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mint := solana.NewWallet().PublicKey()
	checker := NewChecker(&fakeClient{balances: map[string]uint64{}}, mint,
		Options{Decimals: 6}, discardLogger())

	_, err := checker.Check(ctx, []Airdropped{
		{Wallet: solana.NewWallet().PublicKey().String(), Amount: decimal.NewFromInt(1)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
