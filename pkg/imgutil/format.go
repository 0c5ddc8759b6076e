package imgutil

import (
	"path/filepath"
	"sort"
	"strings"
)

var ocrFriendlyExtensions = map[string]struct{}{
	".png":  {},
	".tif":  {},
	".tiff": {},
	".pbm":  {},
	".pgm":  {},
	".ppm":  {},
}

var candidateExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
	".webp": {},
	".heic": {},
	".heif": {},
}

// IsOCRFriendly reports whether path names a container an OCR engine accepts
// as-is. Only the extension is inspected.
func IsOCRFriendly(path string) bool {
	_, ok := ocrFriendlyExtensions[ext(path)]
	return ok
}

// IsCandidate reports whether path has one of the raster image extensions the
// scanner picks up.
func IsCandidate(path string) bool {
	_, ok := candidateExtensions[ext(path)]
	return ok
}

// CandidateExtensions returns the supported input extensions, sorted.
func CandidateExtensions() []string {
	out := make([]string, 0, len(candidateExtensions))
	for e := range candidateExtensions {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// ext returns the lower-cased extension. A dotfile such as ".png" has none.
func ext(path string) string {
	base := filepath.Base(path)
	e := filepath.Ext(base)
	if e == base {
		return ""
	}
	return strings.ToLower(e)
}
