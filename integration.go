package ocrlayout

import (
	"context"

	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/model"
	"github.com/tsawler/ocrlayout/ocr"
)

// AnalyzeDocument lays out every page of a file with the default
// configuration. detector may be nil for hOCR and PaddleOCR JSON files.
//
// Example:
//
//	doc, err := ocrlayout.AnalyzeDocument(ctx, "scan.pdf", detector)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, page := range doc.Pages {
//	    fmt.Printf("Page %d: %d lines\n", page.Number, page.LineCount())
//	}
func AnalyzeDocument(ctx context.Context, path string, detector ocr.Detector) (*model.Document, error) {
	return AnalyzeDocumentWithConfig(ctx, path, detector, layout.DefaultAnalyzerConfig())
}

// AnalyzeDocumentWithConfig lays out every page of a file with a custom
// layout configuration.
func AnalyzeDocumentWithConfig(ctx context.Context, path string, detector ocr.Detector, config layout.AnalyzerConfig) (*model.Document, error) {
	ext := Open(path).Detector(detector)
	ext.options.analyzer = config
	return ext.Document(ctx)
}
