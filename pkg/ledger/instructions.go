package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
)

// DeriveTokenAccount computes the associated token account that holds mint
// tokens for owner. The derivation is a pure function; no network call is
// involved.
func DeriveTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	account, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive token account for %s: %w", owner, err)
	}

	return account, nil
}

// TransferInstruction builds a checked token transfer of amount raw units
// from source to destination. The decimals argument is validated on-chain
// against the mint, guarding against scale mistakes.
func TransferInstruction(
	source, mint, destination, owner solana.PublicKey,
	amount uint64,
	decimals uint8,
) solana.Instruction {
	return token.NewTransferCheckedInstruction(
		amount,
		decimals,
		source,
		mint,
		destination,
		owner,
		nil,
	).Build()
}

// CreateAccountInstruction builds an associated-token-account creation for
// owner, funded by payer. Creating an account that already exists fails the
// transaction; the provisioner re-checks existence after a failed creation
// before treating the recipient as unprovisioned.
func CreateAccountInstruction(payer, owner, mint solana.PublicKey) solana.Instruction {
	return associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build()
}
