package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ocrprep/internal/normalize"
	"ocrprep/internal/scanner"
	"ocrprep/internal/tui"
	"ocrprep/pkg/imgutil"
)

var scanCmd = &cobra.Command{
	Use:   "scan [dir...]",
	Short: "List candidate images and whether they need converting, without writing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := prepare(args)
		if err != nil {
			return err
		}
		defer r.logger.Sync() //nolint:errcheck

		report := scanReport(os.Stdout, r.roots, r.logger, scanOptions{
			color:   tui.ShouldColorize(os.Stdout),
			verbose: r.cfg.Verbose,
		})
		fmt.Fprintf(os.Stdout, "Done. scanned=%d, ok=%d, convert=%d\n", report.scanned, report.ok, report.convert)
		return nil
	},
}

type scanOptions struct {
	color   bool
	verbose bool
}

type scanTotals struct {
	scanned int
	ok      int
	convert int
}

func scanReport(w io.Writer, roots []string, logger *zap.Logger, opts scanOptions) scanTotals {
	paint := func(style lipgloss.Style, s string) string {
		if !opts.color {
			return s
		}
		return style.Render(s)
	}

	var totals scanTotals
	for i, root := range roots {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, paint(scanRootStyle, root))

		found := 0
		for c, err := range scanner.Scan(root) {
			if err != nil {
				logger.Warn("scan error", zap.String("root", root), zap.Error(err))
				continue
			}
			found++
			totals.scanned++

			status := "convert"
			style := scanConvertStyle
			if imgutil.IsOCRFriendly(c.Path) {
				status = "ok"
				style = scanOKStyle
				totals.ok++
			} else {
				totals.convert++
			}

			kind, err := imgutil.SniffFile(c.Path)
			if err != nil {
				logger.Debug("sniff failed", zap.String("path", c.Path), zap.Error(err))
			}
			line := fmt.Sprintf("  %s %s %s",
				paint(style, fmt.Sprintf("%-7s", status)),
				paint(scanDimStyle, fmt.Sprintf("%-7s", kind)),
				c.RelPath,
			)
			if opts.verbose && (kind == imgutil.KindPNG || kind == imgutil.KindTIFF) {
				line += " " + paint(scanDimStyle, dpiLabel(c.Path))
			}
			fmt.Fprintln(w, line)
		}
		if found == 0 {
			fmt.Fprintf(w, "  %s\n", paint(scanDimStyle, "none"))
		}
	}
	return totals
}

func dpiLabel(path string) string {
	x, y, err := normalize.FileDPI(path)
	if err != nil {
		return "(no dpi)"
	}
	if x == y {
		return fmt.Sprintf("(%d dpi)", x)
	}
	return fmt.Sprintf("(%dx%d dpi)", x, y)
}

var (
	scanRootStyle    = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanOKStyle      = lipgloss.NewStyle().Foreground(tui.ColorSuccess)
	scanConvertStyle = lipgloss.NewStyle().Foreground(tui.ColorWarn)
	scanDimStyle     = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(scanCmd)
}
