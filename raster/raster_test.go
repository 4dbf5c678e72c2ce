package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/ocrlayout/format"
)

// writePNG writes a w x h grey PNG into dir.
func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	img.Set(1, 1, color.Black)

	path := filepath.Join(dir, "page.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

// minimalPDF builds a PDF with the given number of empty letter pages and a
// correct cross-reference table.
func minimalPDF(pages int) []byte {
	var objects []string
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+i)
	}
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		objects = append(objects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func writePDF(t *testing.T, dir string, pages int) string {
	t.Helper()
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, minimalPDF(pages), 0o644))
	return path
}

func TestNewWithConfig_Defaults(t *testing.T) {
	r := NewWithConfig(Config{})
	assert.Equal(t, 2.0, r.Config().Scale)
	assert.Equal(t, "pdftoppm", r.Config().PDFToPPM)
	assert.Equal(t, 144, r.DPI())

	r = NewWithConfig(Config{Scale: 3})
	assert.Equal(t, 216, r.DPI())
}

func TestResize(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 20))

	scaled := Resize(img, 2)
	assert.Equal(t, 20, scaled.Bounds().Dx())
	assert.Equal(t, 40, scaled.Bounds().Dy())

	assert.Same(t, img, Resize(img, 1).(*image.Gray))
	assert.Same(t, img, Resize(img, 0).(*image.Gray))
}

func TestLoadImage_Scales(t *testing.T) {
	path := writePNG(t, t.TempDir(), 8, 6)

	img, err := New().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 12), img.Bounds())
}

func TestPages_Image(t *testing.T) {
	path := writePNG(t, t.TempDir(), 4, 4)

	var indexes []int
	err := NewWithConfig(Config{Scale: 1}).Pages(context.Background(), path, func(i int, img image.Image) error {
		indexes = append(indexes, i)
		assert.Equal(t, 4, img.Bounds().Dx())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, indexes)

	count, err := New().PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPages_CallbackError(t *testing.T) {
	path := writePNG(t, t.TempDir(), 4, 4)
	boom := errors.New("boom")

	err := New().Pages(context.Background(), path, func(int, image.Image) error { return boom })
	assert.ErrorIs(t, err, boom)

	err = New().Pages(context.Background(), path, func(int, image.Image) error { return ErrStopPages })
	assert.NoError(t, err)
}

func TestPages_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just text"), 0o644))

	err := New().Pages(context.Background(), path, func(int, image.Image) error { return nil })
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)

	_, err = New().PageCount(path)
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestPages_CanceledContext(t *testing.T) {
	path := writePNG(t, t.TempDir(), 4, 4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Pages(ctx, path, func(int, image.Image) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageCount_PDF(t *testing.T) {
	path := writePDF(t, t.TempDir(), 3)

	count, err := New().PageCount(path)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestPages_PDF(t *testing.T) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		t.Skip("pdftoppm not available")
	}
	path := writePDF(t, t.TempDir(), 2)

	var sizes []image.Rectangle
	err := New().Pages(context.Background(), path, func(i int, img image.Image) error {
		sizes = append(sizes, img.Bounds())
		return nil
	})
	require.NoError(t, err)
	require.Len(t, sizes, 2)

	// 612x792 points at 144 DPI.
	assert.InDelta(t, 1224, sizes[0].Dx(), 2)
	assert.InDelta(t, 1584, sizes[0].Dy(), 2)
}
