package recipient

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSV column names in the allocation file.
const (
	colWallet        = "sol_wallet"
	colSourceBalance = "worm_balance"
)

// Sentinel errors for allocation file loading.
var (
	ErrMissingColumn = errors.New("missing column in allocation file")
	ErrEmptyFile     = errors.New("allocation file has no data rows")
)

// PhaseColumn returns the allocation column name for a distribution phase.
func PhaseColumn(phase int) string {
	return fmt.Sprintf("phase%d_tokens", phase)
}

// LoadCSV reads raw allocation rows for the given phase from path. Rows are
// returned in file order; no validation beyond structural CSV parsing happens
// here, so a malformed address or amount still produces a row.
func LoadCSV(path string, phase int) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open allocation file: %w", err)
	}
	defer file.Close()

	rows, err := ReadRows(file, phase)
	if err != nil {
		return nil, fmt.Errorf("read allocation file %s: %w", path, err)
	}

	return rows, nil
}

// ReadRows parses raw allocation rows for the given phase from r.
func ReadRows(r io.Reader, phase int) ([]Row, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	walletIdx, ok := columns[colWallet]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colWallet)
	}

	amountIdx, ok := columns[PhaseColumn(phase)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, PhaseColumn(phase))
	}

	balanceIdx, hasBalance := columns[colSourceBalance]

	var rows []Row

	// Header is line 1.
	line := 1

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read row: %w", readErr)
		}

		line++

		row := Row{
			Address: record[walletIdx],
			Amount:  record[amountIdx],
			Line:    line,
		}

		if hasBalance {
			// Informational only; a bad value does not reject the row.
			row.SourceBalance, _ = strconv.ParseInt(record[balanceIdx], 10, 64)
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	return rows, nil
}
