package ocr

import (
	"context"
	"errors"
	"image"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/ocrlayout/model"
)

// ErrOCRNotEnabled is returned when OCR functions are called but OCR support
// was not compiled in. Rebuild with -tags ocr to enable OCR support.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Detector finds text lines on a page image.
type Detector interface {
	// Name identifies the detector in logs and results.
	Name() string

	// Detect returns the page's detections in detection order.
	Detect(ctx context.Context, img image.Image) ([]model.Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, img image.Image) ([]model.Detection, error)

// Name returns "func".
func (f DetectorFunc) Name() string { return "func" }

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	return f(ctx, img)
}

// CleanText collapses runs of whitespace, trims the result and applies
// Unicode NFC normalization so that composed and decomposed accents compare
// equal.
func CleanText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}
