package ocr

import (
	"context"
	"image"

	"golang.org/x/time/rate"

	"github.com/tsawler/ocrlayout/model"
)

type limitedDetector struct {
	limiter  *rate.Limiter
	detector Detector
}

// NewLimitedDetector wraps d so that every Detect call first waits for the
// limiter. A nil limiter returns d unchanged.
func NewLimitedDetector(l *rate.Limiter, d Detector) Detector {
	if l == nil {
		return d
	}
	return &limitedDetector{
		limiter:  l,
		detector: d,
	}
}

func (d *limitedDetector) Name() string {
	return d.detector.Name()
}

func (d *limitedDetector) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return d.detector.Detect(ctx, img)
}
