package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"ocrprep/internal/processor"
)

type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows lists the run totals shown after a verbose run.
func SummaryRows(s processor.Summary, dryRun bool) []SummaryRow {
	rows := []SummaryRow{
		{Label: "Roots scanned", Value: fmt.Sprintf("%d", len(s.Roots))},
		{Label: "Candidate files", Value: fmt.Sprintf("%d", s.Scanned)},
		{Label: "Already OCR-friendly", Value: fmt.Sprintf("%d", s.AlreadyOK)},
	}
	if dryRun {
		rows = append(rows, SummaryRow{Label: "Would convert", Value: fmt.Sprintf("%d", s.DryRun)})
	} else {
		rows = append(rows,
			SummaryRow{Label: "Converted", Value: fmt.Sprintf("%d", s.Converted)},
			SummaryRow{Label: "Bytes written", Value: humanize.Bytes(uint64(s.BytesWritten))},
		)
	}
	rows = append(rows, SummaryRow{Label: "Failed", Value: fmt.Sprintf("%d", s.Failed)})
	return rows
}

func RenderSummary(rows []SummaryRow) string {
	labelWidth := 0
	valueWidth := 0
	for _, row := range rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
		if len(row.Value) > valueWidth {
			valueWidth = len(row.Value)
		}
	}

	hline := strings.Repeat("-", labelWidth+valueWidth+3)
	lines := []string{hline}

	for _, row := range rows {
		label := padRight(row.Label, labelWidth)
		value := padRight(row.Value, valueWidth)
		line := fmt.Sprintf("%s | %s", labelStyle.Render(label), valueStyle.Render(value))
		lines = append(lines, line)
	}

	lines = append(lines, hline)
	return strings.Join(lines, "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

var (
	valueStyle = lipgloss.NewStyle().Foreground(ColorInk).Bold(true)
)
