package normalize

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WEBP format decoder

	"ocrprep/internal/resolver"
	"ocrprep/pkg/imgutil"
)

// DefaultDPI is the resolution written when none is configured.
const DefaultDPI = 300

// maxCreateAttempts bounds how often a destination is re-resolved when
// another writer claims it between resolution and creation.
const maxCreateAttempts = 16

// ErrUnsupportedEncoding marks sources whose container or internal encoding
// has no decoder.
var ErrUnsupportedEncoding = errors.New("unsupported image encoding")

// Normalizer converts images into Format at DPI. With OutputDir empty the
// converted file is written next to its source.
type Normalizer struct {
	Format    resolver.Format
	DPI       int
	OutputDir string
	Logger    *zap.Logger
	Resolver  resolver.Resolver
}

// Normalize converts source, found under root, into an OCR-friendly file.
// Sources that are already OCR-friendly are returned as-is with changed ==
// false and nothing is read or written.
func (n *Normalizer) Normalize(source, root string) (dest string, changed bool, err error) {
	if imgutil.IsOCRFriendly(source) {
		return source, false, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return "", false, fmt.Errorf("read %s: %w", source, err)
	}

	img, err := decode(data)
	if err != nil {
		return "", false, fmt.Errorf("decode %s: %w", source, err)
	}

	if out, converted := NormalizeMode(img); converted {
		n.logger().Debug("converted color mode",
			zap.String("path", source),
			zap.Stringer("from", ModeOf(img)),
			zap.Stringer("to", ModeRGB))
		img = out
	}

	img = n.orient(source, data, img)

	dest, err = n.write(source, root, img)
	if err != nil {
		return "", false, err
	}
	return dest, true, nil
}

func decode(data []byte) (image.Image, error) {
	if kind := imgutil.SniffBytes(data); kind == imgutil.KindHEIF {
		return nil, fmt.Errorf("%w: no decoder for %s containers", ErrUnsupportedEncoding, kind)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedEncoding, err)
		}
		return nil, err
	}
	return img, nil
}

// orient applies the EXIF orientation of data to img. Bad metadata is
// logged and the image is kept as decoded.
func (n *Normalizer) orient(source string, data []byte, img image.Image) image.Image {
	o, err := ReadOrientation(data)
	switch {
	case errors.Is(err, ErrNoOrientation):
		return img
	case err != nil:
		n.logger().Warn("orientation correction skipped",
			zap.String("path", source),
			zap.Error(err))
		return img
	}
	if o != OrientationNormal {
		n.logger().Debug("applied orientation", zap.String("path", source), zap.Int("orientation", int(o)))
	}
	return ApplyOrientation(img, o)
}

func (n *Normalizer) write(source, root string, img image.Image) (string, error) {
	ext := resolver.ExtensionFor(n.Format)
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		dest, err := n.Resolver.Resolve(source, root, n.OutputDir, ext)
		if err != nil {
			return "", err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
		}

		f, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", dest, err)
		}

		if err := n.encode(f, img); err != nil {
			_ = f.Close()
			_ = os.Remove(dest)
			return "", fmt.Errorf("encode %s: %w", dest, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(dest)
			return "", fmt.Errorf("write %s: %w", dest, err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("no free destination for %s after %d attempts", source, maxCreateAttempts)
}

func (n *Normalizer) encode(w io.Writer, img image.Image) error {
	dpi := n.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	switch n.Format {
	case resolver.FormatTIFF:
		return encodeTIFF(w, img, dpi)
	case resolver.FormatPNG, "":
		return encodePNG(w, img, dpi)
	default:
		return fmt.Errorf("unsupported output format %q", n.Format)
	}
}

func (n *Normalizer) logger() *zap.Logger {
	if n.Logger == nil {
		return zap.NewNop()
	}
	return n.Logger
}
