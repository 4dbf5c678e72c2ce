// Package ocrlayout provides a fluent API for turning scanned documents and
// OCR line detections into laid out text.
//
// Basic usage:
//
//	text, err := ocrlayout.Open("scan.pdf").Detector(detector).Text(ctx)
//	if err != nil {
//	    // handle error
//	}
//
// Files that already carry detections (hOCR, PaddleOCR JSON) need no
// detector:
//
//	doc, err := ocrlayout.Open("page.hocr").Nearest().Document(ctx)
//
// Detections held in memory go through FromDetections:
//
//	text, err := ocrlayout.FromDetections(pages).Text(ctx)
//
// For servers and batch work, the pipeline and jobs packages are available.
package ocrlayout

import (
	"github.com/tsawler/ocrlayout/model"
)

// Open returns an Extractor for a file path or an http(s) URL. Nothing is
// read until a terminal operation such as Text or Document runs.
//
// Example:
//
//	doc, err := ocrlayout.Open("receipt.png").Detector(detector).Document(ctx)
func Open(source string) *Extractor {
	return &Extractor{
		source:  source,
		options: defaultOptions(),
	}
}

// FromDetections returns an Extractor over detections that are already in
// memory, one slice per page.
//
// Example:
//
//	text, err := ocrlayout.FromDetections([][]model.Detection{page}).Text(ctx)
func FromDetections(pages [][]model.Detection) *Extractor {
	return &Extractor{
		detections: pages,
		inMemory:   true,
		options:    defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := ocrlayout.Must(ocrlayout.Open("scan.pdf").PageCount())
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
