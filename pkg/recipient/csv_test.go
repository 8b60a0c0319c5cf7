package recipient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `sol_wallet,worm_balance,phase1_tokens,phase2_tokens
` + testWalletA + `,1000,100.5,201.0
` + testWalletB + `,250,25.125,50.25
`

func TestReadRows_SelectsPhaseColumn(t *testing.T) {
	t.Parallel()

	rows, err := ReadRows(strings.NewReader(testCSV), 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, testWalletA, rows[0].Address)
	assert.Equal(t, int64(1000), rows[0].SourceBalance)
	assert.Equal(t, "201.0", rows[0].Amount)
	assert.Equal(t, 2, rows[0].Line)

	assert.Equal(t, "50.25", rows[1].Amount)
	assert.Equal(t, 3, rows[1].Line)
}

func TestReadRows_MissingPhaseColumn(t *testing.T) {
	t.Parallel()

	_, err := ReadRows(strings.NewReader(testCSV), 4)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadRows_MissingWalletColumn(t *testing.T) {
	t.Parallel()

	input := "wallet,phase1_tokens\nabc,1\n"

	_, err := ReadRows(strings.NewReader(input), 1)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadRows_EmptyFile(t *testing.T) {
	t.Parallel()

	input := "sol_wallet,worm_balance,phase1_tokens\n"

	_, err := ReadRows(strings.NewReader(input), 1)
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadCSV_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCSV("/nonexistent/airdrop.csv", 1)
	assert.Error(t, err)
}

func TestPhaseColumn(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "phase1_tokens", PhaseColumn(1))
	assert.Equal(t, "phase4_tokens", PhaseColumn(4))
}
