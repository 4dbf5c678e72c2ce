//go:build !ocr

package ocr

import (
	"context"
	"image"

	"github.com/tsawler/ocrlayout/model"
)

// Client is a stub OCR client that returns errors for all operations.
type Client struct{}

// New returns an error indicating OCR support is not enabled.
// To enable OCR, rebuild with: go build -tags ocr
func New() (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Name returns "tesseract".
func (c *Client) Name() string { return "tesseract" }

// Close is a no-op for the stub client.
// It is safe to call on a nil client.
func (c *Client) Close() error {
	return nil
}

// SetLanguage returns an error indicating OCR support is not enabled.
func (c *Client) SetLanguage(langs ...string) error {
	return ErrOCRNotEnabled
}

// SetPageSegMode returns an error indicating OCR support is not enabled.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	return ErrOCRNotEnabled
}

// Detect returns an error indicating OCR support is not enabled.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	return nil, ErrOCRNotEnabled
}
