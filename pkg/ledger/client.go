// Package ledger is the boundary to the remote network: balance and account
// reads, transaction assembly, and submission with confirmation. The rest of
// the engine depends only on the Client interface, never on the RPC transport.
package ledger

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Sentinel errors for submission outcomes.
var (
	// ErrConfirmationTimeout indicates a submitted transaction was not
	// confirmed before the deadline. The transaction may still land later.
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")

	// ErrTransactionFailed indicates the network processed the transaction
	// and rejected it.
	ErrTransactionFailed = errors.New("transaction failed on ledger")
)

// Client exposes the three ledger primitives the engine needs: balance
// queries, account-existence queries, and transaction submission with
// confirmation.
type Client interface {
	// Balance returns the fee-currency balance of an account in lamports.
	Balance(ctx context.Context, account solana.PublicKey) (uint64, error)

	// TokenBalance returns the raw token balance of a token account.
	TokenBalance(ctx context.Context, tokenAccount solana.PublicKey) (uint64, error)

	// AccountExists reports whether the account is present on the ledger.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)

	// SubmitAndConfirm assembles the instructions into one atomic
	// transaction, signs it, submits it, and waits for confirmation. All
	// instructions apply or none do.
	SubmitAndConfirm(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error)
}
