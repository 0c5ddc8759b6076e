package config

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Source names the places root directories can come from.
type Source struct {
	Dirs       []string
	Manifest   string
	WorkingDir string
}

// ResolveRoots returns the absolute, de-duplicated root directories of a
// run. Every failure it returns is an *Error.
func ResolveRoots(src Source, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case len(src.Dirs) > 0:
		return requireDirs(src.Dirs, "directory")
	case src.Manifest != "":
		return manifestRoots(src.Manifest, logger)
	case src.WorkingDir != "":
		return requireDirs([]string{src.WorkingDir}, "WORKING_DIR")
	default:
		return nil, configErrorf(nil, "WORKING_DIR is not set. Create a .env file with WORKING_DIR=/absolute/path or export it in your shell")
	}
}

func requireDirs(dirs []string, label string) ([]string, error) {
	roots := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		abs, err := checkDir(dir)
		if err != nil {
			return nil, configErrorf(err, "%s does not exist or is not a directory", label)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		roots = append(roots, abs)
	}
	return roots, nil
}

func manifestRoots(manifest string, logger *zap.Logger) ([]string, error) {
	path, err := ExpandPath(manifest)
	if err != nil {
		return nil, configErrorf(err, "manifest")
	}
	entries, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	roots := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		abs, err := checkDir(entry)
		if err != nil {
			logger.Warn("skipping manifest entry", zap.String("path", entry), zap.Error(err))
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		roots = append(roots, abs)
	}
	if len(roots) == 0 {
		return nil, configErrorf(nil, "manifest %s has no valid directories (%d entries checked)", path, len(entries))
	}
	logger.Debug("resolved manifest", zap.String("manifest", path), zap.Int("roots", len(roots)), zap.Int("entries", len(entries)))
	return roots, nil
}

func checkDir(dir string) (string, error) {
	abs, err := ExpandPath(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}
