package processor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"ocrprep/internal/normalize"
	"ocrprep/internal/runlock"
	"ocrprep/internal/scanner"
	"ocrprep/pkg/imgutil"
)

// Run converts every candidate under roots, one file at a time in scan order.
// A file that fails to convert is reported and counted; the run carries on
// with the next one. Cancelling ctx stops the run between files.
func Run(ctx context.Context, roots []string, opts Options, report Reporter, updates chan<- ProgressUpdate) (Summary, error) {
	summary := Summary{}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var outputAbs string
	if opts.OutputDir != "" {
		abs, err := filepath.Abs(opts.OutputDir)
		if err != nil {
			return summary, err
		}
		outputAbs = abs
	}

	var locks runlock.Set
	defer func() {
		if err := locks.Release(); err != nil {
			logger.Warn("release run lock", zap.Error(err))
		}
	}()

	sc := scanner.Scanner{}
	if outputAbs != "" {
		sc.SkipDirs = []string{outputAbs}
	}

	norm := &normalize.Normalizer{
		Format:    opts.Format,
		DPI:       opts.DPI,
		OutputDir: outputAbs,
		Logger:    logger,
	}

	for _, root := range roots {
		if err := ctxErr(ctx); err != nil {
			return summary, err
		}

		rootSummary := RootSummary{Root: root}
		if opts.Verbose {
			files, candidates, err := sc.Count(root)
			if err != nil {
				logger.Warn("count files", zap.String("root", root), zap.Error(err))
			}
			if report != nil {
				report.RootStarted(RootInfo{Root: root, Files: files, Candidates: candidates})
			}
		}

		for c, walkErr := range sc.Scan(root) {
			if err := ctxErr(ctx); err != nil {
				summary.Roots = append(summary.Roots, rootSummary)
				return summary, err
			}

			var res Result
			if walkErr != nil {
				logger.Warn("scan error", zap.String("root", root), zap.Error(walkErr))
				res = Result{Path: errPath(walkErr, root), Root: root, Outcome: OutcomeFailed, Err: walkErr}
			} else {
				send(updates, ProgressUpdate{TotalDelta: 1})
				if needsWrite(c, opts) {
					if err := lockTarget(&locks, c.Root, outputAbs, logger); err != nil {
						summary.Roots = append(summary.Roots, rootSummary)
						return summary, err
					}
				}
				res = processFile(norm, c, opts, logger)
			}

			summary.add(&rootSummary, res)
			send(updates, progressFor(res))
			if report != nil {
				report.FileDone(res)
			}
		}
		summary.Roots = append(summary.Roots, rootSummary)
	}

	return summary, nil
}

func processFile(norm *normalize.Normalizer, c scanner.Candidate, opts Options, logger *zap.Logger) Result {
	res := Result{Path: c.Path, Root: c.Root, RelPath: c.RelPath}

	if imgutil.IsOCRFriendly(c.Path) {
		res.Outcome = OutcomeAlreadyOK
		res.Dest = c.Path
		return res
	}

	if opts.DryRun {
		res.Outcome = OutcomeDryRun
		return res
	}

	dest, changed, err := norm.Normalize(c.Path, c.Root)
	if err != nil {
		logger.Warn("conversion failed", zap.String("path", c.Path), zap.Error(err))
		res.Outcome = OutcomeFailed
		res.Err = err
		return res
	}
	res.Dest = dest
	if !changed {
		res.Outcome = OutcomeAlreadyOK
		return res
	}

	res.Outcome = OutcomeConverted
	if info, err := os.Stat(dest); err == nil {
		res.BytesWritten = info.Size()
	}
	return res
}

func needsWrite(c scanner.Candidate, opts Options) bool {
	return !opts.DryRun && !imgutil.IsOCRFriendly(c.Path)
}

// lockTarget locks the directory a conversion is about to write into: the
// output directory, or the file's root when converting in place. Only a lock
// held by another run stops the run. A directory that cannot hold a lock file
// is logged once, and the write itself reports any failure.
func lockTarget(locks *runlock.Set, root, outputAbs string, logger *zap.Logger) error {
	dir := root
	if outputAbs != "" {
		dir = outputAbs
		if err := os.MkdirAll(outputAbs, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	err := locks.Ensure(dir)
	if errors.Is(err, runlock.ErrLocked) {
		return err
	}
	if err != nil {
		logger.Warn("run lock unavailable", zap.String("dir", dir), zap.Error(err))
	}
	return nil
}

func progressFor(res Result) ProgressUpdate {
	switch res.Outcome {
	case OutcomeConverted:
		return ProgressUpdate{ProcessedDelta: 1, ConvertedDelta: 1, BytesWrittenDelta: res.BytesWritten}
	case OutcomeFailed:
		if res.RelPath == "" {
			return ProgressUpdate{ErrorDelta: 1}
		}
		return ProgressUpdate{ProcessedDelta: 1, ErrorDelta: 1}
	default:
		return ProgressUpdate{ProcessedDelta: 1}
	}
}

func send(updates chan<- ProgressUpdate, u ProgressUpdate) {
	if updates != nil {
		updates <- u
	}
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func errPath(err error, fallback string) string {
	var pe *fs.PathError
	if errors.As(err, &pe) && filepath.IsAbs(pe.Path) {
		return pe.Path
	}
	return fallback
}
