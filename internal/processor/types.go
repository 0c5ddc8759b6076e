package processor

import (
	"fmt"

	"go.uber.org/zap"

	"ocrprep/internal/resolver"
)

// Outcome is what happened to a single candidate file.
type Outcome int

const (
	OutcomeAlreadyOK Outcome = iota
	OutcomeConverted
	OutcomeDryRun
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAlreadyOK:
		return "already-ok"
	case OutcomeConverted:
		return "converted"
	case OutcomeDryRun:
		return "dry-run"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Options struct {
	Format    resolver.Format
	DPI       int
	OutputDir string
	DryRun    bool
	Verbose   bool
	Logger    *zap.Logger
}

// Result describes one processed candidate.
type Result struct {
	Path         string
	Root         string
	RelPath      string
	Dest         string
	Outcome      Outcome
	Err          error
	BytesWritten int64
}

// RootInfo is reported before a root is scanned in verbose mode.
type RootInfo struct {
	Root       string
	Files      int
	Candidates int
}

// RootSummary holds the per-root counters.
type RootSummary struct {
	Root      string
	Scanned   int
	Converted int
	AlreadyOK int
	DryRun    int
	Failed    int
}

type Summary struct {
	Scanned      int
	Converted    int
	AlreadyOK    int
	DryRun       int
	Failed       int
	BytesWritten int64
	Roots        []RootSummary
}

// Line renders the one-line run summary.
func (s Summary) Line() string {
	line := fmt.Sprintf("Done. scanned=%d, converted=%d, already_ok=%d", s.Scanned, s.Converted, s.AlreadyOK)
	if s.Failed > 0 {
		line += fmt.Sprintf(", failed=%d", s.Failed)
	}
	return line
}

// Reporter receives per-file results and, in verbose mode, root headers.
type Reporter interface {
	RootStarted(info RootInfo)
	FileDone(res Result)
}

type ProgressUpdate struct {
	TotalDelta        int
	ProcessedDelta    int
	ConvertedDelta    int
	ErrorDelta        int
	BytesWrittenDelta int64
}

func (s *Summary) add(root *RootSummary, res Result) {
	switch res.Outcome {
	case OutcomeAlreadyOK:
		s.Scanned++
		root.Scanned++
		s.AlreadyOK++
		root.AlreadyOK++
	case OutcomeConverted:
		s.Scanned++
		root.Scanned++
		s.Converted++
		root.Converted++
		s.BytesWritten += res.BytesWritten
	case OutcomeDryRun:
		s.Scanned++
		root.Scanned++
		s.DryRun++
		root.DryRun++
	case OutcomeFailed:
		// Walk errors carry no RelPath and were never a scanned file.
		if res.RelPath != "" {
			s.Scanned++
			root.Scanned++
		}
		s.Failed++
		root.Failed++
	}
}
