package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tsawler/ocrlayout/format"
	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/model"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/raster"
)

var tracer = otel.Tracer("github.com/tsawler/ocrlayout/pipeline")

// ErrNoDetector is returned when an input needs detection but the processor
// was built without a detector.
var ErrNoDetector = errors.New("no detector configured")

// Processor turns files into laid out documents.
type Processor struct {
	detector   ocr.Detector
	analyzer   *layout.Analyzer
	rasterizer *raster.Rasterizer
	fetcher    *raster.Fetcher
	log        zerolog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithAnalyzer sets the layout analyzer.
func WithAnalyzer(a *layout.Analyzer) Option {
	return func(p *Processor) { p.analyzer = a }
}

// WithRasterizer sets the page rasterizer.
func WithRasterizer(r *raster.Rasterizer) Option {
	return func(p *Processor) { p.rasterizer = r }
}

// WithFetcher sets the downloader used for http(s) inputs.
func WithFetcher(f *raster.Fetcher) Option {
	return func(p *Processor) { p.fetcher = f }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// New creates a processor. detector may be nil when only precomputed
// detections will be processed.
func New(detector ocr.Detector, opts ...Option) *Processor {
	p := &Processor{
		detector:   detector,
		analyzer:   layout.NewAnalyzer(),
		rasterizer: raster.New(),
		fetcher:    raster.NewFetcher(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Document processes one file into a document. Pages are numbered from 0 in
// source order.
func (p *Processor) Document(ctx context.Context, path string) (*model.Document, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Document", trace.WithAttributes(attribute.String("file", path)))
	defer span.End()

	pages, err := p.Detections(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("pages", len(pages)))
	return p.analyzer.AnalyzeDocument(path, pages), nil
}

// Multi processes every supported file below dir, in path order, into a
// single document whose page numbers run across files.
func (p *Processor) Multi(ctx context.Context, dir string) (*model.Document, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	var pages [][]model.Detection
	for _, f := range files {
		filePages, err := p.Detections(ctx, f)
		if err != nil {
			return nil, err
		}
		pages = append(pages, filePages...)
	}

	p.log.Debug().Str("dir", dir).Int("files", len(files)).Int("pages", len(pages)).Msg("multi-document processed")
	return p.analyzer.AnalyzeDocument(dir, pages), nil
}

// Path processes a file, a directory or an http(s) URL.
//
// A file yields one document. A directory yields one document per supported
// file, or a single Multi document when multiDoc is set. A URL is downloaded
// to a temporary directory first and then treated as a file.
func (p *Processor) Path(ctx context.Context, path string, multiDoc bool) ([]*model.Document, error) {
	if raster.IsRemote(path) {
		return p.remote(ctx, path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	if !info.IsDir() {
		doc, err := p.Document(ctx, path)
		if err != nil {
			return nil, err
		}
		return []*model.Document{doc}, nil
	}

	if multiDoc {
		doc, err := p.Multi(ctx, path)
		if err != nil {
			return nil, err
		}
		return []*model.Document{doc}, nil
	}

	files, err := ListFiles(path)
	if err != nil {
		return nil, err
	}
	docs := make([]*model.Document, 0, len(files))
	for _, f := range files {
		doc, err := p.Document(ctx, f)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (p *Processor) remote(ctx context.Context, url string) ([]*model.Document, error) {
	tmpDir, err := os.MkdirTemp("", "ocrlayout-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	local, err := p.fetcher.Fetch(ctx, url, tmpDir)
	if err != nil {
		return nil, err
	}

	doc, err := p.Document(ctx, local)
	if err != nil {
		return nil, err
	}
	doc.FilePath = url
	return []*model.Document{doc}, nil
}

// Detections returns the per-page detections of one file. Rendered inputs
// go through the detector; hOCR and PaddleOCR JSON are decoded directly.
func (p *Processor) Detections(ctx context.Context, path string) ([][]model.Detection, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}

	switch {
	case f == format.HOCR:
		return decodeFile(path, ocr.ParseHOCR)
	case f == format.PaddleJSON:
		return decodeFile(path, ocr.DecodePaddle)
	case f.IsRenderable():
		return p.detect(ctx, path)
	default:
		return nil, fmt.Errorf("%s: %w", path, format.ErrUnsupportedFormat)
	}
}

func (p *Processor) detect(ctx context.Context, path string) ([][]model.Detection, error) {
	if p.detector == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoDetector)
	}

	var pages [][]model.Detection
	err := p.rasterizer.Pages(ctx, path, func(index int, img image.Image) error {
		ctx, span := tracer.Start(ctx, "pipeline.detect", trace.WithAttributes(
			attribute.Int("page", index),
			attribute.String("detector", p.detector.Name()),
		))
		defer span.End()

		dets, err := p.detector.Detect(ctx, img)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("detecting page %d of %s: %w", index, path, err)
		}
		p.log.Debug().
			Str("file", path).
			Int("page", index).
			Int("detections", len(dets)).
			Str("detector", p.detector.Name()).
			Msg("page detected")
		pages = append(pages, dets)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func decodeFile(path string, decode func(io.Reader) ([][]model.Detection, error)) ([][]model.Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pages, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pages, nil
}

// ListFiles returns the processable files below dir sorted by path. Hidden
// files and directories and files of unknown type are skipped.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if f := format.Detect(d.Name()); f.IsRenderable() || f.HasDetections() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
