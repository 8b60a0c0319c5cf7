package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nematoken/soldrop/pkg/recipient"
)

// Report file names inside a run directory.
const (
	SuccessFile = "airdrop_successful.csv"
	FailedFile  = "airdrop_failed.csv"
	SummaryFile = "airdrop_summary.yaml"
)

// outcomeHeader is the column layout of the per-status CSVs. The holdings
// checker reads these files back.
var outcomeHeader = []string{"sol_wallet", "worm_balance", "sol_nema_tokens", "status"}

// Writer persists run artifacts under a base reports directory.
type Writer struct {
	baseDir string
}

// NewWriter creates a report writer rooted at baseDir (e.g. "reports").
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// Write creates the run directory and writes the success CSV, failure CSV,
// and YAML summary. Empty status groups produce no file, matching the
// long-standing report layout. It returns the run directory path.
func (w *Writer) Write(recipients []*recipient.Recipient, summary Summary) (string, error) {
	runDir := filepath.Join(w.baseDir, RunDirName(summary.Phase, summary.DryRun, summary.Timestamp))

	mkdirErr := os.MkdirAll(runDir, 0o750)
	if mkdirErr != nil {
		return "", fmt.Errorf("create report dir: %w", mkdirErr)
	}

	successful := byStatus(recipients, recipient.StatusSuccess)
	if len(successful) > 0 {
		writeErr := writeOutcomeFile(filepath.Join(runDir, SuccessFile), successful)
		if writeErr != nil {
			return "", writeErr
		}
	}

	failed := byStatus(recipients, recipient.StatusFailed)
	if len(failed) > 0 {
		writeErr := writeOutcomeFile(filepath.Join(runDir, FailedFile), failed)
		if writeErr != nil {
			return "", writeErr
		}
	}

	summaryErr := writeSummaryFile(filepath.Join(runDir, SummaryFile), summary)
	if summaryErr != nil {
		return "", summaryErr
	}

	return runDir, nil
}

func byStatus(recipients []*recipient.Recipient, status recipient.Status) []*recipient.Recipient {
	var matched []*recipient.Recipient

	for _, r := range recipients {
		if r.Status == status {
			matched = append(matched, r)
		}
	}

	return matched
}

func writeOutcomeFile(path string, recipients []*recipient.Recipient) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}

	writeErr := WriteOutcomes(file, recipients)
	closeErr := file.Close()

	if writeErr != nil {
		return fmt.Errorf("write report %s: %w", path, writeErr)
	}

	if closeErr != nil {
		return fmt.Errorf("close report %s: %w", path, closeErr)
	}

	return nil
}

// WriteOutcomes writes recipients as outcome CSV rows.
func WriteOutcomes(w io.Writer, recipients []*recipient.Recipient) error {
	writer := csv.NewWriter(w)

	writeErr := writer.Write(outcomeHeader)
	if writeErr != nil {
		return fmt.Errorf("write header: %w", writeErr)
	}

	for _, r := range recipients {
		record := []string{
			r.Address,
			fmt.Sprintf("%d", r.SourceBalance),
			r.Amount.String(),
			string(r.Status),
		}

		rowErr := writer.Write(record)
		if rowErr != nil {
			return fmt.Errorf("write row for %s: %w", r.Address, rowErr)
		}
	}

	writer.Flush()

	flushErr := writer.Error()
	if flushErr != nil {
		return fmt.Errorf("flush outcome csv: %w", flushErr)
	}

	return nil
}

func writeSummaryFile(path string, summary Summary) error {
	data, marshalErr := yaml.Marshal(summary)
	if marshalErr != nil {
		return fmt.Errorf("marshal summary: %w", marshalErr)
	}

	writeErr := os.WriteFile(path, data, 0o600)
	if writeErr != nil {
		return fmt.Errorf("write summary %s: %w", path, writeErr)
	}

	return nil
}
