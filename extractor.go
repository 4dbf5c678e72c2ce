package ocrlayout

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/tsawler/ocrlayout/format"
	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/model"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/pipeline"
	"github.com/tsawler/ocrlayout/raster"
)

// ErrPageOutOfRange is returned when a selected page does not exist.
var ErrPageOutOfRange = errors.New("page out of range")

// Extractor provides a fluent interface for laying out a document.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	source     string
	detections [][]model.Detection
	inMemory   bool

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		source:     e.source,
		detections: e.detections,
		inMemory:   e.inMemory,
		options:    e.options.clone(),
		err:        e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Detector sets the text-line detector used for PDFs and images.
//
// Example:
//
//	client, _ := ocr.New()
//	defer client.Close()
//	text, err := ocrlayout.Open("scan.pdf").Detector(client).Text(ctx)
func (e *Extractor) Detector(d ocr.Detector) *Extractor {
	newExt := e.clone()
	newExt.options.detector = d
	return newExt
}

// Logger sets the logger passed to the pipeline.
func (e *Extractor) Logger(l zerolog.Logger) *Extractor {
	newExt := e.clone()
	newExt.options.logger = l
	return newExt
}

// Pages restricts extraction to the given pages (0-indexed).
// Multiple calls are cumulative. Selected pages keep their page numbers.
//
// Example:
//
//	doc, err := ocrlayout.Open("scan.pdf").Detector(d).Pages(0, 2).Document(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange restricts extraction to a range of pages (0-indexed, inclusive).
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// YThreshold sets the jitter tolerance used when snapping lines onto a
// shared band.
func (e *Extractor) YThreshold(px float64) *Extractor {
	newExt := e.clone()
	if px <= 0 {
		newExt.err = fmt.Errorf("y threshold must be positive, got %v", px)
	}
	newExt.options.analyzer.RealignConfig.YThreshold = px
	return newExt
}

// BandThreshold sets the distance within which a line joins an existing row.
func (e *Extractor) BandThreshold(px int) *Extractor {
	newExt := e.clone()
	if px <= 0 {
		newExt.err = fmt.Errorf("band threshold must be positive, got %d", px)
	}
	newExt.options.analyzer.ComposeConfig.BandThreshold = px
	return newExt
}

// SpaceDivisor sets how many pixels of horizontal gap make one space.
func (e *Extractor) SpaceDivisor(px int) *Extractor {
	newExt := e.clone()
	if px <= 0 {
		newExt.err = fmt.Errorf("space divisor must be positive, got %d", px)
	}
	newExt.options.analyzer.ComposeConfig.SpaceDivisor = px
	return newExt
}

// Nearest makes each line join the closest row instead of the first row
// within the band threshold.
//
// Example:
//
//	text, err := ocrlayout.Open("form.hocr").Nearest().Text(ctx)
func (e *Extractor) Nearest() *Extractor {
	newExt := e.clone()
	newExt.options.analyzer.ComposeConfig.Match = layout.Nearest
	return newExt
}

// Scale sets the rendering scale for PDF pages and the upsampling factor
// for images.
func (e *Extractor) Scale(factor float64) *Extractor {
	newExt := e.clone()
	if factor <= 0 {
		newExt.err = fmt.Errorf("scale must be positive, got %v", factor)
	}
	newExt.options.raster.Scale = factor
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// Document runs detection (when needed) and layout, and returns the
// document. A directory source becomes one document whose page numbers run
// across its files.
func (e *Extractor) Document(ctx context.Context) (*model.Document, error) {
	if e.err != nil {
		return nil, e.err
	}

	analyzer := layout.NewAnalyzerWithConfig(e.options.analyzer)

	if e.inMemory {
		indices, err := resolvePages(len(e.detections), e.options.pages)
		if err != nil {
			return nil, err
		}
		pages := make([]*model.Page, 0, len(indices))
		for _, i := range indices {
			pages = append(pages, analyzer.AnalyzePage(i, e.detections[i]))
		}
		return model.NewDocument("", pages...), nil
	}

	if e.source == "" {
		return nil, errors.New("no source specified")
	}

	proc := e.processor(analyzer)

	if len(e.options.pages) > 0 && !raster.IsRemote(e.source) {
		if f, err := format.DetectFile(e.source); err == nil && f.IsRenderable() {
			return e.renderSelected(ctx, analyzer)
		}
	}

	docs, err := proc.Path(ctx, e.source, true)
	if err != nil {
		return nil, err
	}
	if len(docs) != 1 {
		return nil, fmt.Errorf("%s: expected one document, got %d", e.source, len(docs))
	}
	doc := docs[0]

	if len(e.options.pages) == 0 {
		return doc, nil
	}
	indices, err := resolvePages(doc.PageCount(), e.options.pages)
	if err != nil {
		return nil, err
	}
	selected := make([]*model.Page, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, doc.Pages[i])
	}
	return model.NewDocument(doc.FilePath, selected...), nil
}

// Text returns the laid out text of every page, separated by blank lines.
func (e *Extractor) Text(ctx context.Context) (string, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return "", err
	}
	return doc.Text(), nil
}

// Result returns the serializable result view of the document.
func (e *Extractor) Result(ctx context.Context) (model.DocumentResult, error) {
	doc, err := e.Document(ctx)
	if err != nil {
		return model.DocumentResult{}, err
	}
	return doc.Result(), nil
}

// PageCount returns the number of pages in the source without running
// detection. Remote sources are not supported.
func (e *Extractor) PageCount() (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if e.inMemory {
		return len(e.detections), nil
	}
	if raster.IsRemote(e.source) {
		return 0, fmt.Errorf("%s: page count needs a local file", e.source)
	}

	info, err := os.Stat(e.source)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return e.filePageCount(e.source)
	}

	files, err := pipeline.ListFiles(e.source)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, f := range files {
		n, err := e.filePageCount(f)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

func (e *Extractor) processor(analyzer *layout.Analyzer) *pipeline.Processor {
	return pipeline.New(e.options.detector,
		pipeline.WithAnalyzer(analyzer),
		pipeline.WithRasterizer(raster.NewWithConfig(e.options.raster)),
		pipeline.WithLogger(e.options.logger),
	)
}

func (e *Extractor) filePageCount(path string) (int, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return 0, err
	}
	if f.HasDetections() {
		pages, err := e.processor(layout.NewAnalyzer()).Detections(context.Background(), path)
		if err != nil {
			return 0, err
		}
		return len(pages), nil
	}
	return raster.NewWithConfig(e.options.raster).PageCount(path)
}

// renderSelected rasterizes and detects only the selected pages.
func (e *Extractor) renderSelected(ctx context.Context, analyzer *layout.Analyzer) (*model.Document, error) {
	if e.options.detector == nil {
		return nil, fmt.Errorf("%s: %w", e.source, pipeline.ErrNoDetector)
	}

	rasterizer := raster.NewWithConfig(e.options.raster)
	count, err := rasterizer.PageCount(e.source)
	if err != nil {
		return nil, err
	}
	indices, err := resolvePages(count, e.options.pages)
	if err != nil {
		return nil, err
	}

	f, err := format.DetectFile(e.source)
	if err != nil {
		return nil, err
	}

	pages := make([]*model.Page, 0, len(indices))
	for _, i := range indices {
		var img image.Image
		if f.IsImage() {
			img, err = rasterizer.LoadImage(e.source)
		} else {
			img, err = rasterizer.RenderPage(ctx, e.source, i)
		}
		if err != nil {
			return nil, err
		}
		dets, err := e.options.detector.Detect(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("detecting page %d of %s: %w", i, e.source, err)
		}
		pages = append(pages, analyzer.AnalyzePage(i, dets))
	}
	return model.NewDocument(e.source, pages...), nil
}

// resolvePages validates selected page indices, removes duplicates and
// sorts them. No selection means all pages.
func resolvePages(count int, selected []int) ([]int, error) {
	if len(selected) == 0 {
		indices := make([]int, count)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	seen := make(map[int]bool)
	var indices []int
	for _, p := range selected {
		if p < 0 || p >= count {
			return nil, fmt.Errorf("page %d (document has %d): %w", p, count, ErrPageOutOfRange)
		}
		if !seen[p] {
			seen[p] = true
			indices = append(indices, p)
		}
	}

	sort.Ints(indices)
	return indices, nil
}
