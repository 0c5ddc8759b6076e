package normalize

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"ocrprep/internal/resolver"
)

func decodeFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, _, err := image.Decode(f)
	require.NoError(t, err)
	return img
}

func TestNormalizeAlreadyOCRFriendlyIsNoOp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.PNG")
	// Not a real PNG: a read would fail to decode.
	writeFile(t, src, []byte("not really a png"))

	n := &Normalizer{Format: resolver.FormatTIFF, DPI: 300}
	dest, changed, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, src, dest)
	assert.Equal(t, []string{"page.PNG"}, dirNames(t, dir))
}

func TestNormalizeJPEGToPNGInPlace(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), nil))

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	dest, changed, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, filepath.Join(dir, "photo.png"), dest)

	img := decodeFile(t, dest)
	assert.Equal(t, image.Pt(16, 8), img.Bounds().Size())

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()
	x, y, err := ReadPNGDPI(f)
	require.NoError(t, err)
	assert.Equal(t, 300, x)
	assert.Equal(t, 300, y)

	_, err = os.Stat(src)
	assert.NoError(t, err, "source must be left in place")
}

func TestNormalizeToTIFFWithDPI(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.jpeg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), nil))

	n := &Normalizer{Format: resolver.FormatTIFF, DPI: 150}
	dest, changed, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, filepath.Join(dir, "scan.tiff"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	x, y, err := ReadTIFFDPI(data)
	require.NoError(t, err)
	assert.Equal(t, 150, x)
	assert.Equal(t, 150, y)

	img, err := tiff.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(16, 8), img.Bounds().Size())
}

func TestNormalizeAppliesOrientation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sideways.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), buildExifOrientation(6)))

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	dest, _, err := n.Normalize(src, dir)
	require.NoError(t, err)

	img := decodeFile(t, dest)
	assert.Equal(t, image.Pt(8, 16), img.Bounds().Size())
	assert.True(t, isReddish(img.At(4, 2)))
	assert.True(t, isBluish(img.At(4, 13)))
}

func TestNormalizeMalformedOrientationIsLoggedAndIgnored(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "odd.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), buildExifOrientation(42)))

	core, logs := observer.New(zapcore.WarnLevel)
	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300, Logger: zap.New(core)}
	dest, changed, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.True(t, changed)

	img := decodeFile(t, dest)
	assert.Equal(t, image.Pt(16, 8), img.Bounds().Size())

	entries := logs.FilterMessage("orientation correction skipped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, src, entries[0].ContextMap()["path"])
}

func TestNormalizePaletteBMPBecomesRGB(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "indexed.bmp")

	pal := color.Palette{color.RGBA{R: 0xff, A: 0xff}, color.RGBA{B: 0xff, A: 0xff}}
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), pal)
	for i := range img.Pix {
		img.Pix[i] = uint8(i % 2)
	}
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	writeFile(t, src, buf.Bytes())

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	dest, changed, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.True(t, changed)

	out := decodeFile(t, dest)
	assert.Equal(t, ModeRGB, ModeOf(out))
}

func TestNormalizeMirrorsUnderOutputDir(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "converted")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	src := filepath.Join(root, "a", "b", "photo.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), nil))

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300, OutputDir: out}
	dest, changed, err := n.Normalize(src, root)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, filepath.Join(out, "a", "b", "photo.png"), dest)
	assert.FileExists(t, dest)
}

func TestNormalizeAvoidsExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), nil))
	writeFile(t, filepath.Join(dir, "photo.png"), []byte("keep me"))

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	dest, _, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo_1.png"), dest)

	kept, err := os.ReadFile(filepath.Join(dir, "photo.png"))
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(kept))
}

func TestNormalizeRetriesWhenDestinationAppearsAfterResolve(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	writeFile(t, src, jpegWithExif(t, splitImage(16, 8), nil))
	writeFile(t, filepath.Join(dir, "photo.png"), []byte("raced"))

	calls := 0
	exists := func(path string) bool {
		calls++
		if calls == 1 {
			return false
		}
		_, err := os.Stat(path)
		return err == nil
	}

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300, Resolver: resolver.Resolver{Exists: exists}}
	dest, _, err := n.Normalize(src, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "photo_1.png"), dest)
}

func TestNormalizeCorruptSourceFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	writeFile(t, src, []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01})

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	_, changed, err := n.Normalize(src, dir)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Contains(t, err.Error(), "broken.jpg")
	assert.Equal(t, []string{"broken.jpg"}, dirNames(t, dir))
}

func TestNormalizeHEICIsUnsupported(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "phone.heic")
	writeFile(t, src, append([]byte("\x00\x00\x00\x18ftypheic"), make([]byte, 32)...))

	n := &Normalizer{Format: resolver.FormatPNG, DPI: 300}
	_, _, err := n.Normalize(src, dir)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestNormalizeMissingSourceFails(t *testing.T) {
	n := &Normalizer{Format: resolver.FormatPNG}
	_, _, err := n.Normalize(filepath.Join(t.TempDir(), "gone.jpg"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
