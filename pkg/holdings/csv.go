package holdings

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
)

// Airdrop outcome CSV column names, shared with the run report writer.
const (
	colWallet = "sol_wallet"
	colAmount = "sol_nema_tokens"
	colStatus = "status"
)

// Sentinel errors for airdrop record loading.
var (
	ErrMissingColumn = errors.New("missing column in airdrop record file")
	ErrNoRecords     = errors.New("airdrop record file has no data rows")
)

// LoadAirdropped reads the successful-transfer records produced by a run
// report. Rows whose amount does not parse are skipped.
func LoadAirdropped(path string) ([]Airdropped, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open airdrop records: %w", err)
	}
	defer file.Close()

	records, err := ReadAirdropped(file)
	if err != nil {
		return nil, fmt.Errorf("read airdrop records %s: %w", path, err)
	}

	return records, nil
}

// ReadAirdropped parses airdrop outcome rows from r.
func ReadAirdropped(r io.Reader) ([]Airdropped, error) {
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

	amountIdx, ok := columns[colAmount]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colAmount)
	}

	var records []Airdropped

	for {
		record, readErr := reader.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, fmt.Errorf("read row: %w", readErr)
		}

		amount, parseErr := decimal.NewFromString(record[amountIdx])
		if parseErr != nil {
			continue
		}

		records = append(records, Airdropped{
			Wallet: record[walletIdx],
			Amount: amount,
		})
	}

	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	return records, nil
}

// WriteCSV writes the holdings analysis table.
func WriteCSV(w io.Writer, holdings []Holding) error {
	writer := csv.NewWriter(w)

	header := []string{colWallet, "airdropped_tokens", "current_balance", "retention_percentage", "category"}

	writeErr := writer.Write(header)
	if writeErr != nil {
		return fmt.Errorf("write header: %w", writeErr)
	}

	for _, holding := range holdings {
		record := []string{
			holding.Wallet,
			holding.Airdropped.String(),
			holding.Current.String(),
			holding.Retention.String(),
			string(holding.Category),
		}

		rowErr := writer.Write(record)
		if rowErr != nil {
			return fmt.Errorf("write row for %s: %w", holding.Wallet, rowErr)
		}
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("flush holdings csv: %w", flushErr)
	}

	return nil
}

// SaveCSV writes the holdings analysis table to path.
func SaveCSV(path string, holdings []Holding) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create holdings file: %w", err)
	}

	writeErr := WriteCSV(file, holdings)
	closeErr := file.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close holdings file: %w", closeErr)
	}

	return nil
}
