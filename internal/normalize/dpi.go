package normalize

import (
	"bytes"
	"fmt"
	"os"

	"ocrprep/pkg/imgutil"
)

// FileDPI reads the resolution recorded in a PNG or TIFF file.
func FileDPI(path string) (x, y int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	switch kind := imgutil.SniffBytes(data); kind {
	case imgutil.KindPNG:
		return ReadPNGDPI(bytes.NewReader(data))
	case imgutil.KindTIFF:
		return ReadTIFFDPI(data)
	default:
		return 0, 0, fmt.Errorf("no resolution metadata reader for %s", kind)
	}
}
