//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/ocrlayout/model"
)

// Client wraps Tesseract for text-line detection.
// A Client serializes calls; a Pool of Clients runs them in parallel.
type Client struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a new OCR client.
// The client should be closed when no longer needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	return &Client{client: client}, nil
}

// Name returns "tesseract".
func (c *Client) Name() string { return "tesseract" }

// Close releases OCR resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// SetLanguage sets the language(s) for OCR recognition, e.g. "eng", "fra".
func (c *Client) SetLanguage(langs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.SetLanguage(langs...)
}

// SetPageSegMode sets the page segmentation mode.
func (c *Client) SetPageSegMode(mode PageSegMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.client.SetPageSegMode(gosseract.PageSegMode(mode))
}

// Detect runs Tesseract on the page and returns one detection per text line.
// Tesseract reports axis-aligned boxes, so every quad is a rectangle.
func (c *Client) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := c.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	detections := make([]model.Detection, 0, len(boxes))
	for _, b := range boxes {
		text := CleanText(b.Word)
		if text == "" {
			continue
		}
		detections = append(detections, model.Detection{
			Quad:       model.QuadFromRect(float64(b.Box.Min.X), float64(b.Box.Min.Y), float64(b.Box.Max.X), float64(b.Box.Max.Y)),
			Text:       text,
			Confidence: b.Confidence / 100,
		})
	}

	return detections, nil
}
