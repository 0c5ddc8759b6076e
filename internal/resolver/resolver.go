// Package resolver computes where a converted image is written.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format is an OCR-friendly output container.
type Format string

const (
	FormatPNG  Format = "PNG"
	FormatTIFF Format = "TIFF"
)

// ParseFormat accepts "png" or "tiff" in any case ("tif" is an alias).
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PNG":
		return FormatPNG, nil
	case "TIFF", "TIF":
		return FormatTIFF, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want PNG or TIFF)", s)
	}
}

// ExtensionFor returns the file extension written for format.
func ExtensionFor(format Format) string {
	if format == FormatTIFF {
		return ".tiff"
	}
	return ".png"
}

// SameNameToken is inserted into the stem when the destination would
// otherwise be the source itself.
const SameNameToken = "_ocr"

// Resolver picks non-colliding destination paths. Exists defaults to a
// filesystem check.
type Resolver struct {
	Exists func(path string) bool
}

// Resolve uses the real filesystem for collision checks.
func Resolve(source, rootDir, outputDir, targetExt string) (string, error) {
	return Resolver{}.Resolve(source, rootDir, outputDir, targetExt)
}

// Resolve returns the destination for source. With outputDir empty the file
// lands next to its source; otherwise it is placed under outputDir at the
// position source occupies relative to rootDir (or just its file name when
// rootDir is empty or does not contain source). An existing destination gets
// a _1, _2, ... suffix on its stem. The existence check is not atomic.
func (r Resolver) Resolve(source, rootDir, outputDir, targetExt string) (string, error) {
	if source == "" {
		return "", fmt.Errorf("resolve: empty source path")
	}
	targetExt = normalizeExt(targetExt)
	if targetExt == "" {
		return "", fmt.Errorf("resolve: empty target extension")
	}

	var candidate string
	if outputDir == "" {
		candidate = replaceExt(source, targetExt)
	} else {
		candidate = filepath.Join(outputDir, replaceExt(relativeTo(source, rootDir), targetExt))
	}

	if filepath.Clean(candidate) == filepath.Clean(source) {
		candidate = withStemSuffix(candidate, SameNameToken)
	}

	exists := r.Exists
	if exists == nil {
		exists = pathExists
	}

	final := candidate
	for idx := 1; exists(final); idx++ {
		final = withStemSuffix(candidate, fmt.Sprintf("_%d", idx))
	}
	return final, nil
}

func relativeTo(source, rootDir string) string {
	if rootDir == "" {
		return filepath.Base(source)
	}
	rel, err := filepath.Rel(rootDir, source)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return filepath.Base(source)
	}
	return rel
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(ext)
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

func withStemSuffix(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
