package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/tsawler/ocrlayout/model"
)

// RemoteDetector sends page images to an HTTP detection service and decodes
// the PaddleOCR-shaped JSON it returns.
//
// The service receives the page as a PNG body (Content-Type image/png) and
// must answer with a single page of entries: [[quad, [text, confidence]], ...].
type RemoteDetector struct {
	URL      string
	Client   *http.Client
	Attempts uint
	Delay    time.Duration
}

// NewRemoteDetector creates a detector posting to url with three attempts.
func NewRemoteDetector(url string) *RemoteDetector {
	return &RemoteDetector{
		URL:      url,
		Client:   &http.Client{Timeout: 60 * time.Second},
		Attempts: 3,
		Delay:    500 * time.Millisecond,
	}
}

// Name returns "remote".
func (r *RemoteDetector) Name() string { return "remote" }

// Detect posts img to the service. Transport errors and 5xx responses are
// retried; 4xx responses fail immediately.
func (r *RemoteDetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding page image: %w", err)
	}
	body := buf.Bytes()

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	attempts := r.Attempts
	if attempts == 0 {
		attempts = 1
	}

	var detections []model.Detection
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "image/png")

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				err := fmt.Errorf("detection service returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
				if resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}

			pages, err := DecodePaddle(resp.Body)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			detections = nil
			if len(pages) > 0 {
				detections = pages[0]
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(r.Delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("remote detection: %w", err)
	}
	return detections, nil
}
