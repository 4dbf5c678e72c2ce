// Package pipeline runs inputs on disk through detection and the layout
// engine.
//
// A [Processor] accepts PDFs and raster images, which are rendered and passed
// to an [ocr.Detector], and precomputed detections (hOCR or PaddleOCR JSON),
// which go straight to the layout engine. Directories are processed either
// as one document per file or, in multi-document mode, as a single document
// whose pages run across all files.
package pipeline
