// Package report turns final recipient statuses and counters into run
// artifacts: per-status CSVs, a summary table, and a YAML summary document.
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nematoken/soldrop/pkg/checkpoint"
	"github.com/nematoken/soldrop/pkg/recipient"
)

// Summary is the aggregate outcome of one run, persisted alongside the
// per-recipient CSVs.
type Summary struct {
	Timestamp        time.Time       `yaml:"timestamp"`
	Phase            int             `yaml:"phase"`
	DryRun           bool            `yaml:"dry_run"`
	TokenMint        string          `yaml:"token_mint"`
	RPCURL           string          `yaml:"rpc_url"`
	TotalRecipients  int             `yaml:"total_recipients"`
	Successful       int             `yaml:"successful_transfers"`
	Failed           int             `yaml:"failed_transfers"`
	Skipped          int             `yaml:"skipped_transfers"`
	SuccessfulTokens decimal.Decimal `yaml:"successful_tokens"`
	FailedTokens     decimal.Decimal `yaml:"failed_tokens"`
	TotalTokens      decimal.Decimal `yaml:"total_tokens"`
	TransferRate     decimal.Decimal `yaml:"transfer_success_rate_percent"`
	TokenRate        decimal.Decimal `yaml:"token_success_rate_percent"`
}

// Meta identifies the run a summary describes.
type Meta struct {
	Phase     int
	DryRun    bool
	TokenMint string
	RPCURL    string
}

// BuildSummary computes the run summary from final recipient states.
func BuildSummary(recipients []*recipient.Recipient, counters checkpoint.Counters, meta Meta) Summary {
	summary := Summary{
		Timestamp:       time.Now().UTC(),
		Phase:           meta.Phase,
		DryRun:          meta.DryRun,
		TokenMint:       meta.TokenMint,
		RPCURL:          meta.RPCURL,
		TotalRecipients: len(recipients),
		Successful:      counters.Success,
		Failed:          counters.Failed,
		Skipped:         counters.Skipped,
	}

	for _, r := range recipients {
		summary.TotalTokens = summary.TotalTokens.Add(r.Amount)

		switch r.Status {
		case recipient.StatusSuccess:
			summary.SuccessfulTokens = summary.SuccessfulTokens.Add(r.Amount)
		case recipient.StatusFailed:
			summary.FailedTokens = summary.FailedTokens.Add(r.Amount)
		}
	}

	hundred := decimal.NewFromInt(100)

	if summary.TotalRecipients > 0 {
		summary.TransferRate = decimal.NewFromInt(int64(summary.Successful)).
			Div(decimal.NewFromInt(int64(summary.TotalRecipients))).
			Mul(hundred).Round(2)
	}

	if summary.TotalTokens.IsPositive() {
		summary.TokenRate = summary.SuccessfulTokens.
			Div(summary.TotalTokens).
			Mul(hundred).Round(2)
	}

	return summary
}

// RunDirName names the per-run report directory: run_{live|dry}_phaseN_<unix>.
func RunDirName(phase int, dryRun bool, at time.Time) string {
	prefix := "run_live"
	if dryRun {
		prefix = "run_dry"
	}

	return fmt.Sprintf("%s_phase%d_%d", prefix, phase, at.Unix())
}
