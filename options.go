package ocrlayout

import (
	"github.com/rs/zerolog"

	"github.com/tsawler/ocrlayout/layout"
	"github.com/tsawler/ocrlayout/ocr"
	"github.com/tsawler/ocrlayout/raster"
)

// ExtractOptions holds configuration for extraction.
type ExtractOptions struct {
	// Page selection (0-indexed), nil means all pages
	pages []int

	detector ocr.Detector
	analyzer layout.AnalyzerConfig
	raster   raster.Config
	logger   zerolog.Logger
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:    nil, // nil means all pages
		analyzer: layout.DefaultAnalyzerConfig(),
		raster:   raster.DefaultConfig(),
		logger:   zerolog.Nop(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
