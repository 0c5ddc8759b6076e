package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ocrprep/internal/config"
	"ocrprep/internal/processor"
	"ocrprep/internal/tui"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] [dir...]",
	Short: "Convert images under the root directories to OCR-friendly PNG or TIFF",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := prepare(args)
		if err != nil {
			return err
		}
		defer r.logger.Sync() //nolint:errcheck

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		printer := tui.NewPrinter(os.Stdout, r.cfg.Format, r.cfg.DPI)
		opts := processor.Options{
			Format:    r.cfg.Format,
			DPI:       r.cfg.DPI,
			OutputDir: r.cfg.OutputDir,
			DryRun:    r.cfg.DryRun,
			Verbose:   r.cfg.Verbose,
			Logger:    r.logger,
		}

		var summary processor.Summary
		if r.cfg.Progress && tui.ShouldColorize(os.Stdout) {
			summary, err = runWithProgress(ctx, r.roots, opts, printer)
		} else {
			summary, err = processor.Run(ctx, r.roots, opts, printer, nil)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}

		if r.cfg.Verbose {
			if table := tui.RenderRootTable(summary.Roots); table != "" {
				fmt.Fprintln(os.Stdout, table)
			}
			fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SummaryRows(summary, r.cfg.DryRun)))
		}
		fmt.Fprintln(os.Stdout, summary.Line())

		if err != nil {
			r.logger.Warn("run interrupted", zap.Int("scanned", summary.Scanned))
			return err
		}
		return nil
	},
}

func runWithProgress(ctx context.Context, roots []string, opts processor.Options, printer *tui.Printer) (processor.Summary, error) {
	updates := make(chan processor.ProgressUpdate, 64)
	program := tea.NewProgram(tui.NewModel(updates), tea.WithInput(nil), tea.WithoutSignalHandler())
	printer.Attach(program)

	uiDone := make(chan struct{})
	go func() {
		_, _ = program.Run()
		// Keep the run unblocked if the view exits first.
		for range updates {
		}
		close(uiDone)
	}()

	summary, err := processor.Run(ctx, roots, opts, printer, updates)
	close(updates)
	<-uiDone
	return summary, err
}

func init() {
	flags := convertCmd.Flags()
	flags.StringP("format", "f", "PNG", "output container: PNG or TIFF")
	flags.Int("dpi", 300, "resolution written into converted files")
	flags.BoolP("dry-run", "n", false, "only report what would be converted")
	flags.StringP("output", "o", "", "write converted files under this directory, mirroring each root")
	flags.Bool("progress", false, "show a live progress view on a terminal")

	bind(flags.Lookup("format"), config.KeyFormat)
	bind(flags.Lookup("dpi"), config.KeyDPI)
	bind(flags.Lookup("dry-run"), config.KeyDryRun)
	bind(flags.Lookup("output"), config.KeyOutputDir)
	bind(flags.Lookup("progress"), config.KeyProgress)

	rootCmd.AddCommand(convertCmd)
}
