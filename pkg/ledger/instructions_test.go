package ledger

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeys(t *testing.T) (owner, mint, payer solana.PublicKey) {
	t.Helper()

	owner = solana.NewWallet().PublicKey()
	mint = solana.NewWallet().PublicKey()
	payer = solana.NewWallet().PublicKey()

	return owner, mint, payer
}

func TestDeriveTokenAccount_Deterministic(t *testing.T) {
	t.Parallel()

	owner, mint, _ := testKeys(t)

	first, err := DeriveTokenAccount(owner, mint)
	require.NoError(t, err)

	second, err := DeriveTokenAccount(owner, mint)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.False(t, first.IsZero())
}

func TestDeriveTokenAccount_DiffersPerOwner(t *testing.T) {
	t.Parallel()

	owner, mint, payer := testKeys(t)

	forOwner, err := DeriveTokenAccount(owner, mint)
	require.NoError(t, err)

	forPayer, err := DeriveTokenAccount(payer, mint)
	require.NoError(t, err)

	assert.NotEqual(t, forOwner, forPayer)
}

func TestTransferInstruction_ProgramAndAccounts(t *testing.T) {
	t.Parallel()

	owner, mint, _ := testKeys(t)

	source, err := DeriveTokenAccount(owner, mint)
	require.NoError(t, err)

	destOwner := solana.NewWallet().PublicKey()

	dest, err := DeriveTokenAccount(destOwner, mint)
	require.NoError(t, err)

	ix := TransferInstruction(source, mint, dest, owner, 1_000_000, 6)

	assert.Equal(t, solana.TokenProgramID, ix.ProgramID())
	require.NotEmpty(t, ix.Accounts())
	assert.Equal(t, source, ix.Accounts()[0].PublicKey)
}

func TestCreateAccountInstruction_Program(t *testing.T) {
	t.Parallel()

	owner, mint, payer := testKeys(t)

	ix := CreateAccountInstruction(payer, owner, mint)

	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, ix.ProgramID())
}
