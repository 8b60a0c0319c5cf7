package commands

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSnapshotCSV(t *testing.T, rows string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "snapshot.csv")
	require.NoError(t, os.WriteFile(path, []byte("wallet,balance\n"+rows), 0o600))

	return path
}

func TestAllocateCommand_WritesAllocationCSV(t *testing.T) {
	t.Parallel()

	snapshot := writeSnapshotCSV(t, "walletA,750\nwalletB,250\n")
	output := filepath.Join(t.TempDir(), "allocation.csv")

	cmd := NewAllocateCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--snapshot", snapshot, "--output", output})

	require.NoError(t, cmd.Execute())

	data, readErr := os.ReadFile(output)
	require.NoError(t, readErr)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "sol_wallet,worm_balance,phase1_tokens,phase2_tokens,phase3_tokens,phase4_tokens,total_tokens", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "walletA,750,"))

	assert.Contains(t, out.String(), "Total claimed:  1,000")
	assert.Contains(t, out.String(), "Allocation written to "+output)
}

func TestAllocateCommand_MissingSnapshotFile(t *testing.T) {
	t.Parallel()

	cmd := NewAllocateCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--snapshot", filepath.Join(t.TempDir(), "missing.csv")})

	assert.Error(t, cmd.Execute())
}

func TestAllocateCommand_AllBalancesZero(t *testing.T) {
	t.Parallel()

	snapshot := writeSnapshotCSV(t, "walletA,0\n")

	cmd := NewAllocateCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--snapshot", snapshot, "--output", filepath.Join(t.TempDir(), "out.csv")})

	assert.Error(t, cmd.Execute())
}
