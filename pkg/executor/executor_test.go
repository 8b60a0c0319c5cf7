package executor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nematoken/soldrop/pkg/checkpoint"
	"github.com/nematoken/soldrop/pkg/recipient"
	"github.com/nematoken/soldrop/pkg/retry"
)

type fakeClient struct {
	submitErr   []error // consumed per SubmitAndConfirm call, nil past the end
	submissions [][]solana.Instruction
	onSubmit    func(call int)
}

func (f *fakeClient) Balance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) TokenBalance(_ context.Context, _ solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (f *fakeClient) AccountExists(_ context.Context, _ solana.PublicKey) (bool, error) {
	return true, nil
}

func (f *fakeClient) SubmitAndConfirm(_ context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	call := len(f.submissions)
	f.submissions = append(f.submissions, instructions)

	if f.onSubmit != nil {
		f.onSubmit(call)
	}

	if call < len(f.submitErr) && f.submitErr[call] != nil {
		return solana.Signature{}, f.submitErr[call]
	}

	return solana.Signature{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecipients(t *testing.T, n int) []*recipient.Recipient {
	t.Helper()

	mint := solana.NewWallet().PublicKey()
	recipients := make([]*recipient.Recipient, 0, n)

	for range n {
		wallet := solana.NewWallet()

		account, _, err := solana.FindAssociatedTokenAddress(wallet.PublicKey(), mint)
		require.NoError(t, err)

		recipients = append(recipients, &recipient.Recipient{
			Address:      wallet.PublicKey().String(),
			Owner:        wallet.PublicKey(),
			Amount:       decimal.NewFromInt(100),
			TokenAccount: &account,
			Status:       recipient.StatusPending,
		})
	}

	return recipients
}

func testStore(t *testing.T) *checkpoint.Store {
	t.Helper()

	return checkpoint.NewStore(filepath.Join(t.TempDir(), "phase1.json"), discardLogger())
}

func newTestExecutor(client *fakeClient, store *checkpoint.Store, opts Options) *Executor {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Policy{MaxAttempts: 2, Delay: 0}
	}

	opts.Decimals = 6

	return NewExecutor(client, store,
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		opts, nil, discardLogger())
}

func TestExecutor_Run_AllBatchesSucceed(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 2})

	recipients := testRecipients(t, 5)

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Processed)
	assert.Equal(t, 5, result.Counters.Success)
	assert.Equal(t, 0, result.Counters.Failed)
	require.Len(t, client.submissions, 3)
	assert.Len(t, client.submissions[0], 2)
	assert.Len(t, client.submissions[2], 1)

	for _, r := range recipients {
		assert.Equal(t, recipient.StatusSuccess, r.Status)
	}

	// Checkpoint reflects the final state.
	snap, ok := store.Load(1, 5)
	require.True(t, ok)
	assert.Equal(t, 5, snap.Counters.Success)
}

func TestExecutor_Run_BatchFailureFallsBackPerItem(t *testing.T) {
	t.Parallel()

	permanent := errors.New("instruction error")
	client := &fakeClient{
		// Batch fails, first member succeeds individually, second member
		// exhausts both retry attempts.
		submitErr: []error{permanent, nil, permanent, permanent},
	}
	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 2})

	recipients := testRecipients(t, 2)

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Counters.Success)
	assert.Equal(t, 1, result.Counters.Failed)
	assert.Equal(t, recipient.StatusSuccess, recipients[0].Status)
	assert.Equal(t, recipient.StatusFailed, recipients[1].Status)
}

func TestExecutor_Run_AllTransfersFailed(t *testing.T) {
	t.Parallel()

	permanent := errors.New("node down")
	client := &fakeClient{
		submitErr: []error{permanent, permanent, permanent},
	}
	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 1})

	recipients := testRecipients(t, 1)

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	assert.ErrorIs(t, err, ErrAllTransfersFailed)
	assert.Equal(t, 1, result.Counters.Failed)
}

func TestExecutor_Run_ResumeSkipsTerminalRecipients(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	recipients := testRecipients(t, 3)

	// Simulate a prior run that finished the first recipient and failed the
	// second before being interrupted.
	recipients[0].Status = recipient.StatusSuccess
	recipients[1].Status = recipient.StatusFailed
	snap := checkpoint.NewSnapshot(1, recipients, checkpoint.Counters{Success: 1, Failed: 1})
	require.NoError(t, store.Save(snap))
	recipients[0].Status = recipient.StatusPending
	recipients[1].Status = recipient.StatusPending

	client := &fakeClient{}
	exec := newTestExecutor(client, store, Options{BatchSize: 10})

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	require.NoError(t, err)

	// Only the third recipient was still pending.
	assert.Equal(t, 2, result.Resumed)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 2, result.Counters.Success)
	assert.Equal(t, 1, result.Counters.Failed)
	require.Len(t, client.submissions, 1)
	assert.Len(t, client.submissions[0], 1)

	// Terminal statuses never revert.
	assert.Equal(t, recipient.StatusFailed, recipients[1].Status)
}

func TestExecutor_Run_MismatchedCheckpointIgnored(t *testing.T) {
	t.Parallel()

	store := testStore(t)
	recipients := testRecipients(t, 2)

	// Checkpoint for a different recipient count.
	other := testRecipients(t, 3)
	require.NoError(t, store.Save(checkpoint.NewSnapshot(1, other, checkpoint.Counters{Success: 3})))

	client := &fakeClient{}
	exec := newTestExecutor(client, store, Options{BatchSize: 10})

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Resumed)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 2, result.Counters.Success)
}

func TestExecutor_Run_DryRunTouchesNothing(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 2, DryRun: true})

	recipients := testRecipients(t, 3)

	result, err := exec.Run(context.Background(), 1, recipients, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Counters.Success)
	assert.Equal(t, 1, result.Counters.Skipped)
	assert.Empty(t, client.submissions)
	assert.False(t, store.Exists())
}

func TestExecutor_Run_CancellationStopsBetweenBatches(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	client := &fakeClient{}
	client.onSubmit = func(call int) {
		if call == 0 {
			cancel()
		}
	}

	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 1})

	recipients := testRecipients(t, 3)

	result, err := exec.Run(ctx, 1, recipients, 0)
	assert.ErrorIs(t, err, context.Canceled)

	// First batch completed and was checkpointed; no further submissions.
	assert.Equal(t, 1, result.Counters.Success)
	require.Len(t, client.submissions, 1)

	snap, ok := store.Load(1, 3)
	require.True(t, ok)
	assert.Equal(t, 1, snap.Counters.Success)
}

func TestExecutor_Run_InterruptedBatchStaysPending(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	// The interrupt lands during the batch submission itself.
	client := &fakeClient{
		submitErr: []error{context.Canceled},
	}
	client.onSubmit = func(call int) {
		if call == 0 {
			cancel()
		}
	}

	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 10})

	recipients := testRecipients(t, 3)

	result, err := exec.Run(ctx, 1, recipients, 0)
	assert.ErrorIs(t, err, context.Canceled)

	// No member of the interrupted batch inherits a terminal status.
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 0, result.Counters.Failed)

	for _, r := range recipients {
		assert.Equal(t, recipient.StatusPending, r.Status)
	}

	// The saved checkpoint re-derives the whole batch as pending on resume.
	snap, ok := store.Load(1, 3)
	require.True(t, ok)
	assert.Equal(t, 0, snap.Counters.Failed)
	assert.Equal(t, 0, snap.Restore(recipients))
}

func TestExecutor_Run_InterruptDuringFallbackStaysPending(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	permanent := errors.New("instruction error")
	client := &fakeClient{
		// Batch fails, first member succeeds individually, then the interrupt
		// arrives during the second member's attempt.
		submitErr: []error{permanent, nil, context.Canceled},
	}
	client.onSubmit = func(call int) {
		if call == 2 {
			cancel()
		}
	}

	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 10})

	recipients := testRecipients(t, 3)

	result, err := exec.Run(ctx, 1, recipients, 0)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 1, result.Counters.Success)
	assert.Equal(t, 0, result.Counters.Failed)
	assert.Equal(t, recipient.StatusSuccess, recipients[0].Status)
	assert.Equal(t, recipient.StatusPending, recipients[1].Status)
	assert.Equal(t, recipient.StatusPending, recipients[2].Status)
}

func TestExecutor_Run_NoPendingWork(t *testing.T) {
	t.Parallel()

	client := &fakeClient{}
	store := testStore(t)
	exec := newTestExecutor(client, store, Options{BatchSize: 2})

	recipients := testRecipients(t, 2)
	recipients[0].Status = recipient.StatusSuccess
	recipients[1].Status = recipient.StatusSuccess

	result, err := exec.Run(context.Background(), 1, recipients, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, client.submissions)
}
