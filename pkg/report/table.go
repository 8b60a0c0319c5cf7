package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nematoken/soldrop/pkg/holdings"
)

// RenderSummary renders the run summary as a console table.
func RenderSummary(summary Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	title := "DISTRIBUTION SUMMARY"
	if summary.DryRun {
		title = "DISTRIBUTION SUMMARY (DRY RUN)"
	}

	tbl.SetTitle(title)
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	tbl.AppendRows([]table.Row{
		{"Phase", summary.Phase},
		{"Total recipients", humanize.Comma(int64(summary.TotalRecipients))},
		{"Successful", colorCount(summary.Successful, color.FgGreen)},
		{"Failed", colorCount(summary.Failed, color.FgRed)},
		{"Skipped", colorCount(summary.Skipped, color.FgYellow)},
		{"Tokens sent", humanizeDecimal(summary.SuccessfulTokens)},
		{"Tokens unsent", humanizeDecimal(summary.FailedTokens)},
		{"Transfer success rate", summary.TransferRate.String() + "%"},
		{"Token success rate", summary.TokenRate.String() + "%"},
	})

	return tbl.Render()
}

// RenderHoldings renders a holdings analysis as a console table.
func RenderHoldings(summary holdings.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false

	tbl.SetTitle("HOLDINGS ANALYSIS")
	tbl.AppendHeader(table.Row{"Metric", "Value"})

	total := len(summary.Holdings)

	tbl.AppendRows([]table.Row{
		{"Recipients checked", humanize.Comma(int64(total))},
		{"Full holders (>=95%)", withShare(summary.FullHolders, total)},
		{"Partial holders", withShare(summary.PartialHolders, total)},
		{"Sold all", withShare(summary.SoldAll, total)},
		{"Total airdropped", humanizeDecimal(summary.TotalAirdropped)},
		{"Total remaining", humanizeDecimal(summary.TotalRemaining)},
		{"Overall retention", summary.OverallRetention.String() + "%"},
	})

	return tbl.Render()
}

func colorCount(n int, attr color.Attribute) string {
	if n == 0 {
		return "0"
	}

	return color.New(attr).Sprint(humanize.Comma(int64(n)))
}

func withShare(n, total int) string {
	if total == 0 {
		return "0"
	}

	return fmt.Sprintf("%s (%.1f%%)", humanize.Comma(int64(n)), float64(n)/float64(total)*100)
}

// humanizeDecimal adds thousands separators to the integer part of a decimal
// amount.
func humanizeDecimal(d interface{ String() string }) string {
	text := d.String()

	intPart, fracPart, hasFrac := strings.Cut(text, ".")

	negative := strings.HasPrefix(intPart, "-")
	if negative {
		intPart = intPart[1:]
	}

	var grouped strings.Builder

	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}

		grouped.WriteRune(digit)
	}

	out := grouped.String()
	if negative {
		out = "-" + out
	}

	if hasFrac {
		out += "." + fracPart
	}

	return out
}
