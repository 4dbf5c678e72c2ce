// Package layout reconstructs a readable text layout from OCR line
// detections.
//
// Detections are independently located boxes that rarely align exactly. The
// package recovers row structure and reading order from geometry alone, in
// three stages:
//
//   - [Normalize] reduces a detection quad to integer bounds on a model.Line.
//   - [Realigner] snaps lines whose midpoints and heights are within a
//     jitter threshold of their predecessor onto a shared band, then sorts
//     by (top, left).
//   - [Compositor] groups lines into rows and renders each row with spaces
//     that approximate the horizontal pixel gaps.
//
// # Usage
//
// The [Analyzer] runs all three stages for a page:
//
//	analyzer := layout.NewAnalyzer()
//	page := analyzer.AnalyzePage(0, detections)
//	fmt.Println(page.Text)
//
// # Configuration
//
//	config := layout.DefaultAnalyzerConfig()
//	config.RealignConfig.YThreshold = 12
//	config.ComposeConfig.Match = layout.Nearest
//	analyzer := layout.NewAnalyzerWithConfig(config)
//
// Every stage is a pure function of its input. Pages can be analyzed in
// parallel without coordination.
package layout
