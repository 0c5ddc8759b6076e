package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"ocrprep/internal/processor"
)

// Model is the live progress view for a conversion run.
type Model struct {
	updates      <-chan processor.ProgressUpdate
	started      time.Time
	width        int
	total        int
	processed    int
	converted    int
	errors       int
	bytesWritten int64

	// Status lines are printed one at a time so none is lost on quit.
	pending  []string
	printing bool
	done     bool
	quitting bool
}

type doneMsg struct{}

type updateMsg processor.ProgressUpdate

// lineMsg is a status line printed above the view.
type lineMsg string

// printedMsg follows a status line once the renderer has it.
type printedMsg struct{}

func NewModel(updates <-chan processor.ProgressUpdate) Model {
	return Model{updates: updates, started: time.Now()}
}

func (m Model) Init() tea.Cmd {
	return listenForUpdates(m.updates)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case updateMsg:
		m.total += msg.TotalDelta
		m.processed += msg.ProcessedDelta
		m.converted += msg.ConvertedDelta
		m.errors += msg.ErrorDelta
		m.bytesWritten += msg.BytesWrittenDelta
		return m, listenForUpdates(m.updates)
	case lineMsg:
		m.pending = append(m.pending, string(msg))
		if m.printing {
			return m, nil
		}
		return m.printNext()
	case printedMsg:
		m.printing = false
		if len(m.pending) > 0 {
			return m.printNext()
		}
		if m.done {
			return m.quit()
		}
		return m, nil
	case doneMsg:
		m.done = true
		if m.printing || len(m.pending) > 0 {
			return m, nil
		}
		return m.quit()
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) printNext() (tea.Model, tea.Cmd) {
	line := m.pending[0]
	m.pending = m.pending[1:]
	m.printing = true
	return m, tea.Sequence(tea.Println(line), func() tea.Msg { return printedMsg{} })
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	barWidth := 40
	if m.width > 0 {
		barWidth = int(math.Min(60, float64(m.width-10)))
		if barWidth < 20 {
			barWidth = 20
		}
	}

	ratio := 0.0
	if m.total > 0 {
		ratio = float64(m.processed) / float64(m.total)
		if ratio > 1 {
			ratio = 1
		}
	}

	bar := renderBar(barWidth, ratio)
	elapsed := time.Since(m.started).Round(time.Millisecond)

	lines := []string{
		titleStyle.Render("ocrprep"),
		labelStyle.Render(fmt.Sprintf("Files: %d/%d", m.processed, m.total)) + dimStyle.Render(fmt.Sprintf("  errors:%d", m.errors)),
		labelStyle.Render(fmt.Sprintf("Converted: %d", m.converted)),
		labelStyle.Render(fmt.Sprintf("Written: %s", humanize.Bytes(uint64(m.bytesWritten)))),
		dimStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed)),
		barStyle.Render(bar),
	}

	return strings.Join(lines, "\n")
}

func listenForUpdates(updates <-chan processor.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return doneMsg{}
		}
		return updateMsg(update)
	}
}

func renderBar(width int, ratio float64) string {
	filled := int(math.Round(ratio * float64(width)))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(ColorInk)
	barStyle   = lipgloss.NewStyle().Foreground(ColorAccentAlt)
	dimStyle   = lipgloss.NewStyle().Foreground(ColorDim)
)
