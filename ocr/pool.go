package ocr

import (
	"context"
	"errors"
	"image"
	"io"

	"github.com/tsawler/ocrlayout/model"
)

// Pool spreads Detect calls over several detectors, one call per detector
// at a time. It lets workers run Tesseract in parallel, since a single
// Client serializes its calls.
type Pool struct {
	name    string
	members []Detector
	idle    chan Detector
}

// NewPool builds size detectors with newDetector. If any of them fails,
// the ones already built are closed and the error is returned.
func NewPool(size int, newDetector func() (Detector, error)) (*Pool, error) {
	if size < 1 {
		size = 1
	}

	p := &Pool{idle: make(chan Detector, size)}
	for i := 0; i < size; i++ {
		d, err := newDetector()
		if err != nil {
			p.Close()
			return nil, err
		}
		p.members = append(p.members, d)
		p.idle <- d
	}
	p.name = p.members[0].Name()

	return p, nil
}

// Name returns the pooled detectors' name.
func (p *Pool) Name() string { return p.name }

// Size returns the number of pooled detectors.
func (p *Pool) Size() int { return len(p.members) }

// Detect waits for an idle detector and runs it.
func (p *Pool) Detect(ctx context.Context, img image.Image) ([]model.Detection, error) {
	var d Detector
	select {
	case d = <-p.idle:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { p.idle <- d }()

	return d.Detect(ctx, img)
}

// Close closes every pooled detector that implements io.Closer.
func (p *Pool) Close() error {
	var errs []error
	for _, d := range p.members {
		if c, ok := d.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
