package allocation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Snapshot CSV column names.
const (
	colWallet  = "wallet"
	colBalance = "balance"
)

// Sentinel errors for snapshot loading.
var (
	ErrMissingColumn = errors.New("missing column in balance snapshot")
	ErrEmptySnapshot = errors.New("balance snapshot has no data rows")
)

// LoadSnapshot reads an ownership-balance snapshot from path. Rows are
// returned in file order.
func LoadSnapshot(path string) ([]BalanceRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open balance snapshot: %w", err)
	}
	defer file.Close()

	rows, err := ReadSnapshot(file)
	if err != nil {
		return nil, fmt.Errorf("read balance snapshot %s: %w", path, err)
	}

	return rows, nil
}

// ReadSnapshot parses balance rows from r. A row with an unparseable balance
// is kept with balance zero so Calculate can warn about and exclude it.
func ReadSnapshot(r io.Reader) ([]BalanceRow, error) {
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

	balanceIdx, ok := columns[colBalance]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colBalance)
	}

	var rows []BalanceRow

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read row: %w", readErr)
		}

		balance, _ := strconv.ParseInt(record[balanceIdx], 10, 64)
		rows = append(rows, BalanceRow{
			Wallet:  record[walletIdx],
			Balance: balance,
		})
	}

	if len(rows) == 0 {
		return nil, ErrEmptySnapshot
	}

	return rows, nil
}

// WriteCSV writes the allocation table in the layout the distribution run
// consumes: sol_wallet, worm_balance, one column per phase, and a total.
func WriteCSV(w io.Writer, result Result) error {
	writer := csv.NewWriter(w)

	header := []string{
		"sol_wallet",
		"worm_balance",
		"phase1_tokens",
		"phase2_tokens",
		"phase3_tokens",
		"phase4_tokens",
		"total_tokens",
	}

	writeErr := writer.Write(header)
	if writeErr != nil {
		return fmt.Errorf("write header: %w", writeErr)
	}

	for _, entry := range result.Entries {
		record := []string{
			entry.Wallet,
			strconv.FormatInt(entry.SourceBalance, 10),
			entry.Phases[0].String(),
			entry.Phases[1].String(),
			entry.Phases[2].String(),
			entry.Phases[3].String(),
			entry.Total.String(),
		}

		rowErr := writer.Write(record)
		if rowErr != nil {
			return fmt.Errorf("write row for %s: %w", entry.Wallet, rowErr)
		}
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("flush allocation csv: %w", flushErr)
	}

	return nil
}

// SaveCSV writes the allocation table to path.
func SaveCSV(path string, result Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create allocation file: %w", err)
	}

	writeErr := WriteCSV(file, result)
	closeErr := file.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close allocation file: %w", closeErr)
	}

	return nil
}
