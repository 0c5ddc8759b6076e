// Package runlock keeps two ocrprep runs from writing into the same tree.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the lock file created inside a locked directory.
const FileName = ".ocrprep.lock"

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("directory is locked by another ocrprep run")

// Lock is an advisory lock on a directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// Acquire takes the lock on dir without blocking.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, lock: l}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Set collects the locks of a run. A directory is locked the first time
// Ensure is called for it, so trees that are never written stay untouched.
type Set struct {
	held  []*Lock
	tried map[string]struct{}
}

// Ensure locks dir unless it was already attempted. Only the first attempt
// for a directory can return an error.
func (s *Set) Ensure(dir string) error {
	clean := filepath.Clean(dir)
	if _, ok := s.tried[clean]; ok {
		return nil
	}
	if s.tried == nil {
		s.tried = make(map[string]struct{})
	}
	s.tried[clean] = struct{}{}

	l, err := Acquire(clean)
	if err != nil {
		return err
	}
	s.held = append(s.held, l)
	return nil
}

// Held lists the lock files currently held.
func (s *Set) Held() []string {
	paths := make([]string, 0, len(s.held))
	for _, l := range s.held {
		paths = append(paths, l.Path())
	}
	return paths
}

// Release releases every lock in the set and returns the first error.
func (s *Set) Release() error {
	var first error
	for i := len(s.held) - 1; i >= 0; i-- {
		if err := s.held[i].Release(); err != nil && first == nil {
			first = err
		}
	}
	s.held = nil
	return first
}
