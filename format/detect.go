// Package format provides input format detection for the OCR pipeline.
package format

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when an input cannot be processed.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a PDF document, rasterized page by page.
	PDF
	// PNG indicates a PNG image.
	PNG
	// JPEG indicates a JPEG image.
	JPEG
	// TIFF indicates a TIFF image.
	TIFF
	// BMP indicates a BMP image.
	BMP
	// ZIP indicates a ZIP archive of other inputs.
	ZIP
	// HOCR indicates precomputed hOCR output.
	HOCR
	// PaddleJSON indicates precomputed detections in PaddleOCR's JSON layout.
	PaddleJSON
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case TIFF:
		return "TIFF"
	case BMP:
		return "BMP"
	case ZIP:
		return "ZIP"
	case HOCR:
		return "hOCR"
	case PaddleJSON:
		return "PaddleJSON"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	case BMP:
		return ".bmp"
	case ZIP:
		return ".zip"
	case HOCR:
		return ".hocr"
	case PaddleJSON:
		return ".json"
	default:
		return ""
	}
}

// IsImage reports whether the format is a single raster image.
func (f Format) IsImage() bool {
	switch f {
	case PNG, JPEG, TIFF, BMP:
		return true
	default:
		return false
	}
}

// IsRenderable reports whether pages must be rasterized and run through a
// detector, as opposed to carrying detections already.
func (f Format) IsRenderable() bool {
	return f == PDF || f.IsImage()
}

// HasDetections reports whether the format carries precomputed detections.
func (f Format) HasDetections() bool {
	return f == HOCR || f == PaddleJSON
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	case ".tif", ".tiff":
		return TIFF
	case ".bmp":
		return BMP
	case ".zip":
		return ZIP
	case ".hocr", ".html", ".htm":
		return HOCR
	case ".json":
		return PaddleJSON
	default:
		return Unknown
	}
}

// Uploadable reports whether a file with this name is accepted for upload.
func Uploadable(filename string) bool {
	return Detect(filename) != Unknown
}

// DetectFromMagic checks file magic bytes to determine format.
// Returns Unknown if the format cannot be determined from magic bytes alone.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return PDF
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case bytes.HasPrefix(data, []byte("BM")) && len(data) >= 14:
		return BMP
	case bytes.HasPrefix(data, []byte("PK\x03\x04")):
		return ZIP
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n\xef\xbb\xbf")
	if detectHTMLMagic(trimmed) {
		return HOCR
	}
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return PaddleJSON
	}

	return Unknown
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	upper := strings.ToUpper(string(data[:min(len(data), 512)]))
	if strings.HasPrefix(upper, "<!DOCTYPE HTML") || strings.HasPrefix(upper, "<HTML") {
		return true
	}
	// XML declaration followed by html-like content could be XHTML
	return strings.HasPrefix(upper, "<?XML") && strings.Contains(upper, "<HTML")
}

// DetectFile determines the format of a file on disk. Magic bytes win over
// the extension; the extension is used when the content is inconclusive.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	magic := make([]byte, 512)
	n, err := io.ReadFull(f, magic)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return Unknown, err
	}

	if detected := DetectFromMagic(magic[:n]); detected != Unknown {
		return detected, nil
	}
	return Detect(path), nil
}
