package cmd

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeImage(t *testing.T, path string, encode func(*os.File, image.Image) error) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 0xff})
		}
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, encode(f, img))
}

func encodeJPEG(f *os.File, img image.Image) error { return jpeg.Encode(f, img, nil) }
func encodePNG(f *os.File, img image.Image) error  { return png.Encode(f, img) }

func entries(t *testing.T, dir string) []string {
	t.Helper()
	var names []string
	require.NoError(t, filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		require.NoError(t, err)
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			names = append(names, filepath.ToSlash(rel))
		}
		return nil
	}))
	return names
}

func TestScanReport(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "photo.jpg"), encodeJPEG)
	writeImage(t, filepath.Join(root, "nested", "page.png"), encodePNG)
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))
	empty := t.TempDir()

	var buf bytes.Buffer
	totals := scanReport(&buf, []string{root, empty}, zap.NewNop(), scanOptions{})

	assert.Equal(t, scanTotals{scanned: 2, ok: 1, convert: 1}, totals)
	out := buf.String()
	assert.Contains(t, out, root+"\n")
	assert.Contains(t, out, "convert jpeg    photo.jpg")
	assert.Contains(t, out, "ok      png     "+filepath.Join("nested", "page.png"))
	assert.NotContains(t, out, "notes.txt")
	assert.True(t, strings.HasSuffix(out, empty+"\n  none\n"))
}

func TestScanReportVerboseShowsDPI(t *testing.T) {
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "page.png"), encodePNG)

	var buf bytes.Buffer
	scanReport(&buf, []string{root}, zap.NewNop(), scanOptions{verbose: true})
	assert.Contains(t, buf.String(), "page.png (no dpi)")
}

func TestConvertDryRunWritesNothing(t *testing.T) {
	for _, env := range []string{"WORKING_DIR", "DIRS_CSV", "OCR_FORMAT", "OCR_DPI", "OUTPUT_DIR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(env, "")
	}
	root := t.TempDir()
	writeImage(t, filepath.Join(root, "photo.jpg"), encodeJPEG)
	writeImage(t, filepath.Join(root, "page.png"), encodePNG)

	rootCmd.SetArgs([]string{"convert", "--env-file", "", "--dry-run", root})
	require.NoError(t, rootCmd.Execute())

	assert.ElementsMatch(t, []string{"photo.jpg", "page.png"}, entries(t, root))
}

func TestScanWithoutRootsFails(t *testing.T) {
	t.Setenv("WORKING_DIR", "")
	t.Setenv("DIRS_CSV", "")
	t.Chdir(t.TempDir())

	rootCmd.SetArgs([]string{"scan", "--env-file", ".env"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WORKING_DIR is not set")
}
