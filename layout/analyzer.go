package layout

import (
	"github.com/tsawler/ocrlayout/model"
)

// AnalyzerConfig holds configuration options for the layout analyzer.
// Each stage has its own sub-configuration.
type AnalyzerConfig struct {
	// Realignment configuration
	RealignConfig RealignConfig

	// Composition configuration
	ComposeConfig ComposeConfig
}

// DefaultAnalyzerConfig returns the default analyzer configuration.
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		RealignConfig: DefaultRealignConfig(),
		ComposeConfig: DefaultComposeConfig(),
	}
}

// Analyzer turns a page's raw detections into a laid out page. It runs
// normalization once per detection, then realignment and composition once
// per page.
//
// An Analyzer holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	config     AnalyzerConfig
	realigner  *Realigner
	compositor *Compositor
}

// NewAnalyzer creates an analyzer with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(DefaultAnalyzerConfig())
}

// NewAnalyzerWithConfig creates an analyzer with custom configuration.
func NewAnalyzerWithConfig(config AnalyzerConfig) *Analyzer {
	return &Analyzer{
		config:     config,
		realigner:  NewRealignerWithConfig(config.RealignConfig),
		compositor: NewCompositorWithConfig(config.ComposeConfig),
	}
}

// Config returns the analyzer's configuration.
func (a *Analyzer) Config() AnalyzerConfig {
	return a.config
}

// AnalyzePage builds a page from its detections. The sorted lines and the
// composited text are computed eagerly. A page without detections has no
// lines and empty text.
func (a *Analyzer) AnalyzePage(number int, detections []model.Detection) *model.Page {
	lines := NormalizeAll(detections)
	sorted := a.realigner.Realign(lines)

	return &model.Page{
		Number:      number,
		Lines:       lines,
		SortedLines: sorted,
		Text:        a.compositor.Compose(sorted),
	}
}

// AnalyzeDocument builds a document whose pages are numbered from zero in
// the order given.
func (a *Analyzer) AnalyzeDocument(filePath string, pages [][]model.Detection) *model.Document {
	built := make([]*model.Page, 0, len(pages))
	for i, detections := range pages {
		built = append(built, a.AnalyzePage(i, detections))
	}
	return model.NewDocument(filePath, built...)
}
