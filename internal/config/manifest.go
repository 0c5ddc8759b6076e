package config

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ParseManifest reads directory paths from CSV. Blank lines and lines
// starting with '#' are ignored. If the first record has a column named
// "path" (any case) it is a header and that column is used; otherwise every
// record's first column is a path.
func ParseManifest(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	column := 0
	first := true
	var paths []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			if idx := headerColumn(record); idx >= 0 {
				column = idx
				continue
			}
		}
		if column >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[column])
		if value == "" {
			continue
		}
		paths = append(paths, value)
	}
	return paths, nil
}

// LoadManifest parses the manifest at path. Relative entries are resolved
// against the manifest's own directory.
func LoadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, configErrorf(err, "manifest file not found: %s", path)
		}
		return nil, configErrorf(err, "open manifest %s", path)
	}
	defer f.Close()

	entries, err := ParseManifest(f)
	if err != nil {
		return nil, configErrorf(err, "parse manifest %s", path)
	}

	base := filepath.Dir(path)
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !strings.HasPrefix(entry, "~") && !filepath.IsAbs(entry) {
			entry = filepath.Join(base, entry)
		}
		out = append(out, entry)
	}
	return out, nil
}

func headerColumn(record []string) int {
	for i, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), "path") {
			return i
		}
	}
	return -1
}
