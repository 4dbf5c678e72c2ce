package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder

	"github.com/tsawler/ocrlayout/format"
)

// ErrStopPages can be returned from a PageFunc to end iteration early
// without an error.
var ErrStopPages = errors.New("stop pages")

// PageFunc receives each page image with its 0-based index.
type PageFunc func(index int, img image.Image) error

// Config holds rasterization options.
type Config struct {
	// Scale multiplies native resolution: PDFs render at Scale*72 DPI and
	// images are resized by Scale (default: 2)
	Scale float64

	// PDFToPPM is the pdftoppm executable (default: "pdftoppm")
	PDFToPPM string

	// TempDir holds intermediate renders (default: os.TempDir())
	TempDir string
}

// DefaultConfig returns the default rasterization configuration.
func DefaultConfig() Config {
	return Config{
		Scale:    2,
		PDFToPPM: "pdftoppm",
	}
}

// Rasterizer produces page images from PDFs and image files.
// It holds no mutable state and is safe for concurrent use.
type Rasterizer struct {
	config Config
}

// New creates a rasterizer with default configuration.
func New() *Rasterizer {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a rasterizer with custom configuration. Missing
// values fall back to their defaults.
func NewWithConfig(config Config) *Rasterizer {
	def := DefaultConfig()
	if config.Scale <= 0 {
		config.Scale = def.Scale
	}
	if config.PDFToPPM == "" {
		config.PDFToPPM = def.PDFToPPM
	}
	return &Rasterizer{config: config}
}

// Config returns the rasterizer's configuration.
func (r *Rasterizer) Config() Config {
	return r.config
}

// DPI returns the PDF rendering resolution.
func (r *Rasterizer) DPI() int {
	return int(r.config.Scale * 72)
}

// PageCount returns the number of pages path would produce.
func (r *Rasterizer) PageCount(path string) (int, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return 0, err
	}
	switch {
	case f == format.PDF:
		return pdfPageCount(path)
	case f.IsImage():
		return 1, nil
	default:
		return 0, fmt.Errorf("%s: %w", path, format.ErrUnsupportedFormat)
	}
}

// Pages calls fn for every page of path in order. Iteration stops at the
// first error from fn, at ErrStopPages, or when ctx is done.
func (r *Rasterizer) Pages(ctx context.Context, path string, fn PageFunc) error {
	f, err := format.DetectFile(path)
	if err != nil {
		return err
	}
	switch {
	case f == format.PDF:
		return r.pdfPages(ctx, path, fn)
	case f.IsImage():
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := r.LoadImage(path)
		if err != nil {
			return err
		}
		return stopOK(fn(0, img))
	default:
		return fmt.Errorf("%s: %w", path, format.ErrUnsupportedFormat)
	}
}

func (r *Rasterizer) pdfPages(ctx context.Context, path string, fn PageFunc) error {
	count, err := pdfPageCount(path)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := r.RenderPage(ctx, path, i)
		if err != nil {
			return err
		}
		if err := fn(i, img); err != nil {
			return stopOK(err)
		}
	}
	return nil
}

// RenderPage renders one PDF page (0-based) with pdftoppm.
func (r *Rasterizer) RenderPage(ctx context.Context, path string, index int) (image.Image, error) {
	tmpDir, err := os.MkdirTemp(r.config.TempDir, "ocrlayout-page-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	outputPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(index + 1)

	cmd := exec.CommandContext(ctx, r.config.PDFToPPM,
		"-png",
		"-f", pageStr,
		"-l", pageStr,
		"-r", strconv.Itoa(r.DPI()),
		"-singlefile",
		path,
		outputPrefix,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w (output: %s)", index, err, string(output))
	}

	// pdftoppm with -singlefile creates: <prefix>.png
	f, err := os.Open(outputPrefix + ".png")
	if err != nil {
		return nil, fmt.Errorf("pdftoppm did not create expected output: %w", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered page %d: %w", index, err)
	}
	return img, nil
}

// LoadImage decodes an image file and resizes it by the configured scale.
func (r *Rasterizer) LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return Resize(img, r.config.Scale), nil
}

// Resize scales img by factor using Catmull-Rom resampling. A factor of 1
// (or anything that leaves the size unchanged) returns img itself.
func Resize(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w <= 0 || h <= 0 || (w == b.Dx() && h == b.Dy()) {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	count, err := api.PageCount(f, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return count, nil
}

func stopOK(err error) error {
	if errors.Is(err, ErrStopPages) {
		return nil
	}
	return err
}
