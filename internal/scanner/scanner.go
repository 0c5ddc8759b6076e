// Package scanner walks root directories and yields the raster image files
// found beneath them.
package scanner

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"ocrprep/pkg/imgutil"
)

// Candidate is an image file discovered under a root directory.
type Candidate struct {
	Path    string
	Root    string
	RelPath string
}

// Scanner walks directory trees. The zero value scans everything.
type Scanner struct {
	// SkipDirs lists absolute directories that are never descended into,
	// typically an output directory nested inside a scanned root.
	SkipDirs []string
}

// Scan is shorthand for a zero Scanner's Scan.
func Scan(root string) iter.Seq2[Candidate, error] {
	return Scanner{}.Scan(root)
}

// Scan returns a single-use sequence of candidate files under root. The walk
// only advances as the sequence is consumed and stops when the consumer
// breaks out. Unreadable subdirectories are yielded as errors and skipped.
func (s Scanner) Scan(root string) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			yield(Candidate{}, err)
			return
		}

		err = s.walk(absRoot, func(path string, d fs.DirEntry) bool {
			if !imgutil.IsCandidate(path) {
				return true
			}
			return yield(Candidate{
				Path:    filepath.Join(absRoot, filepath.FromSlash(path)),
				Root:    absRoot,
				RelPath: filepath.FromSlash(path),
			}, nil)
		}, func(err error) bool {
			return yield(Candidate{}, err)
		})
		if err != nil {
			yield(Candidate{}, err)
		}
	}
}

// Count returns the number of regular files under root and how many of them
// are candidates.
func (s Scanner) Count(root string) (files, candidates int, err error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return 0, 0, err
	}
	err = s.walk(absRoot, func(path string, d fs.DirEntry) bool {
		files++
		if imgutil.IsCandidate(path) {
			candidates++
		}
		return true
	}, func(error) bool { return true })
	return files, candidates, err
}

// walk visits every regular file under absRoot. visit and onErr return false
// to stop the walk early. The returned error is only set when the root
// itself cannot be walked.
func (s Scanner) walk(absRoot string, visit func(path string, d fs.DirEntry) bool, onErr func(error) bool) error {
	fsys := os.DirFS(absRoot)
	stopped := false
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == "." {
				return walkErr
			}
			if !onErr(&fs.PathError{Op: "walk", Path: filepath.Join(absRoot, path), Err: unwrapPathErr(walkErr)}) {
				stopped = true
				return fs.SkipAll
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != "." && s.skip(filepath.Join(absRoot, path)) {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !visit(path, d) {
			stopped = true
			return fs.SkipAll
		}
		return nil
	})
	if stopped {
		return nil
	}
	return err
}

func (s Scanner) skip(dir string) bool {
	for _, skip := range s.SkipDirs {
		if isWithin(dir, skip) {
			return true
		}
	}
	return false
}

func unwrapPathErr(err error) error {
	if pe, ok := err.(*fs.PathError); ok {
		return pe.Err
	}
	return err
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
