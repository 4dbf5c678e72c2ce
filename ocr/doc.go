// Package ocr provides text-line detection for page images.
//
// A [Detector] turns one rasterized page into a list of model.Detection
// values (a quadrilateral plus recognized text) in detection order. The
// package ships three sources:
//
//   - [Client], a Tesseract detector backed by gosseract. It requires the
//     "ocr" build tag and Tesseract on the system:
//
//	go build -tags ocr
//
//   - [RemoteDetector], which posts PNG pages to an HTTP detection service
//     answering in PaddleOCR's JSON layout.
//
//   - [ParseHOCR] and [DecodePaddle], which read precomputed hOCR or
//     PaddleOCR output without running any model.
package ocr
