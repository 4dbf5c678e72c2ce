package pipeline

import (
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/ocrlayout/format"
	"github.com/tsawler/ocrlayout/model"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/raster"
)

// rowOfThree is one page whose zero-width lines sit at x = 0, 50 and 120.
const rowOfThree = `[
	[[[0,100],[0,100],[0,120],[0,120]], ["A", 0.9]],
	[[[50,100],[50,100],[50,120],[50,120]], ["B", 0.9]],
	[[[120,100],[120,100],[120,120],[120,120]], ["C", 0.9]]
]`

const twoPages = `[
	[[[[0,0],[10,0],[10,10],[0,10]], ["first", 0.9]]],
	[[[[0,0],[10,0],[10,10],[0,10]], ["second", 0.9]]]
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 10, 10))))
	require.NoError(t, f.Close())
	return path
}

// fixedDetector reports the same single detection for every page and counts
// its calls.
func fixedDetector(calls *int) ocr.Detector {
	return ocr.DetectorFunc(func(ctx context.Context, img image.Image) ([]model.Detection, error) {
		*calls++
		return []model.Detection{{Quad: model.QuadFromRect(2, 2, 18, 8), Text: "seen"}}, nil
	})
}

func TestDocument_Paddle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "page.json", rowOfThree)

	doc, err := New(nil).Document(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())

	page := doc.GetPage(0)
	assert.Equal(t, 0, page.Number)
	assert.Equal(t, "A"+strings.Repeat(" ", 10)+"B"+strings.Repeat(" ", 14)+"C", page.Text)
	assert.Equal(t, path, doc.FilePath)
}

func TestDocument_HOCR(t *testing.T) {
	hocr := `<html><body><div class="ocr_page">
		<span class="ocr_line" title="bbox 10 10 50 30">Hello</span>
	</div></body></html>`
	path := writeFile(t, t.TempDir(), "page.hocr", hocr)

	doc, err := New(nil).Document(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())
	assert.Equal(t, "Hello", doc.GetPage(0).Text)
}

func TestDocument_Image(t *testing.T) {
	path := writePNG(t, t.TempDir(), "scan.png")
	calls := 0

	doc, err := New(fixedDetector(&calls)).Document(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 1, doc.PageCount())
	assert.Equal(t, 1, calls)

	page := doc.GetPage(0)
	assert.Equal(t, "seen", page.Text)
	require.Len(t, page.SortedLines, 1)
	assert.Equal(t, model.NewRect(2, 2, 18, 8), page.SortedLines[0].OutputBBox())
}

func TestDocument_NoDetector(t *testing.T) {
	path := writePNG(t, t.TempDir(), "scan.png")

	_, err := New(nil).Document(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoDetector)
}

func TestDocument_Unsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "plain text")

	_, err := New(nil).Document(context.Background(), path)
	assert.ErrorIs(t, err, format.ErrUnsupportedFormat)
}

func TestMulti_RunningPageNumbers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", twoPages)
	writeFile(t, dir, "b.json", rowOfThree)

	doc, err := New(nil).Multi(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 3, doc.PageCount())

	for i, page := range doc.Pages {
		assert.Equal(t, i, page.Number)
	}
	assert.Equal(t, "first", doc.GetPage(0).Text)
	assert.Equal(t, "second", doc.GetPage(1).Text)
	assert.Equal(t, dir, doc.FilePath)
}

func TestPath_FileAndDirectory(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", twoPages)
	writeFile(t, dir, "sub/b.json", rowOfThree)
	writeFile(t, dir, "ignored.txt", "skip me")

	p := New(nil)

	docs, err := p.Path(context.Background(), a, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].PageCount())

	docs, err = p.Path(context.Background(), dir, false)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, a, docs[0].FilePath)
	assert.Equal(t, 0, docs[1].GetPage(0).Number)

	docs, err = p.Path(context.Background(), dir, true)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 3, docs[0].PageCount())
}

func TestPath_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()

	docs, err := New(nil).Path(context.Background(), dir, true)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	result := docs[0].Result()
	assert.NotNil(t, result.Pages)
	assert.Empty(t, result.Pages)

	docs, err = New(nil).Path(context.Background(), dir, false)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPath_Missing(t *testing.T) {
	_, err := New(nil).Path(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), false)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPath_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(twoPages))
	}))
	defer srv.Close()

	fetcher := raster.NewFetcher()
	fetcher.Delay = 0

	url := srv.URL + "/results/page.json"
	docs, err := New(nil, WithFetcher(fetcher)).Path(context.Background(), url, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, url, docs[0].FilePath)
	assert.Equal(t, 2, docs[0].PageCount())
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.pdf", "%PDF")
	writeFile(t, dir, "a.png", "png")
	writeFile(t, dir, "c/d.json", "[]")
	writeFile(t, dir, ".hidden.png", "x")
	writeFile(t, dir, ".git/e.png", "x")
	writeFile(t, dir, "notes.txt", "x")
	writeFile(t, dir, "bundle.zip", "x")

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.pdf"),
		filepath.Join(dir, "c", "d.json"),
	}, files)
}
