package commands

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHoldingsCommand_RequiresRecordsFlag(t *testing.T) {
	cmd := NewHoldingsCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", writeTestConfig(t)})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records")
}

func TestHoldingsCommand_MissingRecordsFile(t *testing.T) {
	cmd := NewHoldingsCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{
		"--config", writeTestConfig(t),
		"--records", filepath.Join(t.TempDir(), "missing.csv"),
	})

	assert.Error(t, cmd.Execute())
}
