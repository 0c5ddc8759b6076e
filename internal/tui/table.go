package tui

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"ocrprep/internal/processor"
)

// RenderRootTable renders per-root counters, one row per root.
func RenderRootTable(roots []processor.RootSummary) string {
	if len(roots) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Root", "Scanned", "Converted", "Already OK", "Dry-run", "Failed"})

	var total processor.RootSummary
	for _, r := range roots {
		tw.AppendRow(table.Row{r.Root, itoa(r.Scanned), itoa(r.Converted), itoa(r.AlreadyOK), itoa(r.DryRun), itoa(r.Failed)})
		total.Scanned += r.Scanned
		total.Converted += r.Converted
		total.AlreadyOK += r.AlreadyOK
		total.DryRun += r.DryRun
		total.Failed += r.Failed
	}
	if len(roots) > 1 {
		tw.AppendFooter(table.Row{"Total", itoa(total.Scanned), itoa(total.Converted), itoa(total.AlreadyOK), itoa(total.DryRun), itoa(total.Failed)})
	}

	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}}
	for i := 2; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func itoa(n int) string { return strconv.Itoa(n) }
