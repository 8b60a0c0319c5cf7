package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/nematoken/soldrop/pkg/retry"
)

// Confirmation polling defaults.
const (
	DefaultConfirmTimeout      = 60 * time.Second
	DefaultConfirmPollInterval = 2 * time.Second
)

// RPCClient implements Client against a Solana JSON-RPC endpoint. All calls
// use confirmed commitment. Confirmation is established by polling signature
// statuses under a deadline rather than holding a websocket open.
type RPCClient struct {
	rpc             *rpc.Client
	signer          solana.PrivateKey
	confirmTimeout  time.Duration
	pollInterval    time.Duration
	logger          *slog.Logger
}

// RPCOption configures an RPCClient.
type RPCOption func(*RPCClient)

// WithConfirmTimeout overrides the confirmation deadline.
func WithConfirmTimeout(d time.Duration) RPCOption {
	return func(c *RPCClient) { c.confirmTimeout = d }
}

// WithConfirmPollInterval overrides the signature-status polling interval.
func WithConfirmPollInterval(d time.Duration) RPCOption {
	return func(c *RPCClient) { c.pollInterval = d }
}

// NewRPCClient creates a ledger client for the given endpoint. The signer
// both pays fees and signs every submitted transaction.
func NewRPCClient(endpoint string, signer solana.PrivateKey, logger *slog.Logger, opts ...RPCOption) *RPCClient {
	client := &RPCClient{
		rpc:            rpc.New(endpoint),
		signer:         signer,
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultConfirmPollInterval,
		logger:         logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Signer returns the public key of the signing keypair.
func (c *RPCClient) Signer() solana.PublicKey {
	return c.signer.PublicKey()
}

// Balance implements Client.Balance.
func (c *RPCClient) Balance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", account, err)
	}

	return result.Value, nil
}

// TokenBalance implements Client.TokenBalance.
func (c *RPCClient) TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, tokenAccount, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get token balance for %s: %w", tokenAccount, err)
	}

	raw, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", result.Value.Amount, err)
	}

	return raw, nil
}

// AccountExists implements Client.AccountExists.
func (c *RPCClient) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	result, err := c.rpc.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("get account info for %s: %w", account, err)
	}

	return result.Value != nil, nil
}

// SubmitAndConfirm implements Client.SubmitAndConfirm. The transaction is
// built against the most recent known blockhash, signed by the client's
// keypair, submitted with preflight checks, and then polled to confirmed
// commitment.
func (c *RPCClient) SubmitAndConfirm(
	ctx context.Context,
	instructions []solana.Instruction,
) (solana.Signature, error) {
	blockhash, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		blockhash.Value.Blockhash,
		solana.TransactionPayer(c.signer.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(c.signer.PublicKey()) {
			return &c.signer
		}

		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}

	confirmErr := c.awaitConfirmation(ctx, sig)
	if confirmErr != nil {
		return sig, confirmErr
	}

	return sig, nil
}

// awaitConfirmation polls signature statuses until the transaction reaches
// confirmed or finalized commitment, errors on-chain, or the deadline passes.
func (c *RPCClient) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadlineCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	for {
		statuses, err := c.rpc.GetSignatureStatuses(deadlineCtx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]

			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, sig, status.Err)
			}

			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		if err != nil {
			c.logger.Debug("signature status poll failed", "signature", sig, "error", err)
		}

		waitErr := retry.Wait(deadlineCtx, c.pollInterval)
		if waitErr != nil {
			if errors.Is(waitErr, context.DeadlineExceeded) && ctx.Err() == nil {
				return fmt.Errorf("%w: %s", ErrConfirmationTimeout, sig)
			}

			return waitErr
		}
	}
}
