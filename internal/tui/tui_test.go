package tui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocrprep/internal/processor"
	"ocrprep/internal/resolver"
)

func TestPrinterStatusLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, resolver.FormatPNG, 300)

	p.FileDone(processor.Result{Path: "/data/scan.png", Outcome: processor.OutcomeAlreadyOK})
	p.FileDone(processor.Result{Path: "/data/photo.jpg", Outcome: processor.OutcomeDryRun})
	p.FileDone(processor.Result{Path: "/data/photo.jpg", Dest: "/out/photo.png", Outcome: processor.OutcomeConverted})
	p.FileDone(processor.Result{Path: "/data/bad.jpg", Outcome: processor.OutcomeFailed, Err: errors.New("decode: unexpected EOF")})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{
		"SKIP (already OCR-friendly): /data/scan.png",
		"CONVERT (dry-run): /data/photo.jpg -> PNG@300DPI",
		"CONVERTED: /data/photo.jpg -> /out/photo.png",
		"ERROR: /data/bad.jpg: decode: unexpected EOF",
	}, lines)
}

func TestPrinterRootHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, resolver.FormatTIFF, 600)

	p.RootStarted(processor.RootInfo{Root: "/data", Files: 5, Candidates: 3})
	assert.Contains(t, buf.String(), "Root: /data\n")
	assert.Contains(t, buf.String(), "Found 5 files; 3 candidate image files\n")
	assert.NotContains(t, buf.String(), "No candidate images")

	buf.Reset()
	p.RootStarted(processor.RootInfo{Root: "/empty", Files: 2})
	assert.Contains(t, buf.String(), "No candidate images found. Supported input extensions: .bmp, .heic, .heif, .jpeg, .jpg, .png, .tif, .tiff, .webp")
}

func TestShouldColorizeNonFile(t *testing.T) {
	assert.False(t, ShouldColorize(&bytes.Buffer{}))
}

func TestModelAccumulatesUpdates(t *testing.T) {
	updates := make(chan processor.ProgressUpdate)
	close(updates)

	var m tea.Model = NewModel(updates)
	m, _ = m.Update(updateMsg{TotalDelta: 3})
	m, _ = m.Update(updateMsg{ProcessedDelta: 1, ConvertedDelta: 1, BytesWrittenDelta: 2048})
	m, _ = m.Update(updateMsg{ProcessedDelta: 1, ErrorDelta: 1})

	view := m.View()
	assert.Contains(t, view, "Files: 2/3")
	assert.Contains(t, view, "errors:1")
	assert.Contains(t, view, "Converted: 1")
	assert.Contains(t, view, "Written: 2.0 kB")

	m, cmd := m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestListenForUpdatesSignalsDone(t *testing.T) {
	updates := make(chan processor.ProgressUpdate, 1)
	updates <- processor.ProgressUpdate{TotalDelta: 1}
	close(updates)

	assert.Equal(t, updateMsg{TotalDelta: 1}, listenForUpdates(updates)())
	assert.Equal(t, doneMsg{}, listenForUpdates(updates)())
}

func TestRenderBarClamps(t *testing.T) {
	assert.Equal(t, "[     ]", renderBar(5, 0))
	assert.Equal(t, "[=====]", renderBar(5, 1.5))
	assert.Equal(t, "[==   ]", renderBar(5, 0.4))
}

func TestRenderRootTable(t *testing.T) {
	assert.Empty(t, RenderRootTable(nil))

	out := RenderRootTable([]processor.RootSummary{
		{Root: "/data/a", Scanned: 4, Converted: 2, AlreadyOK: 2},
		{Root: "/data/b", Scanned: 1, Failed: 1},
	})
	assert.Contains(t, out, "/data/a")
	assert.Contains(t, out, "/data/b")
	assert.Contains(t, strings.ToLower(out), "total")
	assert.Contains(t, out, "5")
}

func TestSummaryRows(t *testing.T) {
	s := processor.Summary{Scanned: 3, Converted: 1, AlreadyOK: 1, Failed: 1, BytesWritten: 1500, Roots: make([]processor.RootSummary, 1)}
	out := RenderSummary(SummaryRows(s, false))
	assert.Contains(t, out, "Converted")
	assert.Contains(t, out, "1.5 kB")
	assert.NotContains(t, out, "Would convert")

	out = RenderSummary(SummaryRows(processor.Summary{Scanned: 2, DryRun: 1, AlreadyOK: 1}, true))
	assert.Contains(t, out, "Would convert")
	assert.NotContains(t, out, "Bytes written")
}

func TestModelPrintsLines(t *testing.T) {
	var m tea.Model = NewModel(nil)
	_, cmd := m.Update(lineMsg("CONVERTED: a.jpg -> a.png"))
	assert.NotNil(t, cmd)
}

func TestModelPrintsEveryLineBeforeQuitting(t *testing.T) {
	var m tea.Model = NewModel(nil)

	m, cmd := m.Update(lineMsg("CONVERTED: a.jpg -> a.png"))
	require.NotNil(t, cmd)
	m, cmd = m.Update(lineMsg("CONVERTED: b.jpg -> b.png"))
	assert.Nil(t, cmd, "second line waits for the first")

	m, cmd = m.Update(doneMsg{})
	assert.Nil(t, cmd, "quit waits for pending lines")
	assert.NotEmpty(t, m.View())

	m, cmd = m.Update(printedMsg{})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.False(t, isQuit)

	m, cmd = m.Update(printedMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModelQuitsAtOnceWithNothingPending(t *testing.T) {
	var m tea.Model = NewModel(nil)

	m, cmd := m.Update(lineMsg("SKIP (already OCR-friendly): a.png"))
	require.NotNil(t, cmd)
	m, cmd = m.Update(printedMsg{})
	assert.Nil(t, cmd)

	_, cmd = m.Update(doneMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
