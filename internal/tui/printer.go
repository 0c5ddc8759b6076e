package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"ocrprep/internal/processor"
	"ocrprep/internal/resolver"
	"ocrprep/pkg/imgutil"
)

// Printer writes one status line per processed file.
type Printer struct {
	out     io.Writer
	program *tea.Program
	color   bool
	format  resolver.Format
	dpi     int
}

func NewPrinter(out io.Writer, format resolver.Format, dpi int) *Printer {
	return &Printer{out: out, color: ShouldColorize(out), format: format, dpi: dpi}
}

// SetColor overrides terminal detection.
func (p *Printer) SetColor(on bool) { p.color = on }

// Attach routes lines through a running program so they print above its view.
func (p *Printer) Attach(program *tea.Program) { p.program = program }

func (p *Printer) RootStarted(info processor.RootInfo) {
	p.println(p.paint(headerStyle, "Root: ") + info.Root)
	p.println(fmt.Sprintf("Found %d files; %d candidate image files", info.Files, info.Candidates))
	if info.Candidates == 0 {
		p.println(p.paint(dimStyle, "No candidate images found. Supported input extensions: "+
			strings.Join(imgutil.CandidateExtensions(), ", ")))
	}
}

func (p *Printer) FileDone(res processor.Result) {
	switch res.Outcome {
	case processor.OutcomeAlreadyOK:
		p.println(p.paint(skipStyle, "SKIP (already OCR-friendly):") + " " + res.Path)
	case processor.OutcomeDryRun:
		p.println(p.paint(dryRunStyle, "CONVERT (dry-run):") + fmt.Sprintf(" %s -> %s@%dDPI", res.Path, p.format, p.dpi))
	case processor.OutcomeConverted:
		p.println(p.paint(convertedStyle, "CONVERTED:") + fmt.Sprintf(" %s -> %s", res.Path, res.Dest))
	case processor.OutcomeFailed:
		p.println(p.paint(errorStyle, "ERROR:") + fmt.Sprintf(" %s: %v", res.Path, res.Err))
	}
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) println(line string) {
	if p.program != nil {
		p.program.Send(lineMsg(line))
		return
	}
	fmt.Fprintln(p.out, line)
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	skipStyle      = lipgloss.NewStyle().Foreground(ColorDim)
	dryRunStyle    = lipgloss.NewStyle().Foreground(ColorWarn)
	convertedStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
)
