package ocr

import (
	"context"
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tsawler/ocrlayout/model"
)

func TestLimitedDetector(t *testing.T) {
	calls := 0
	inner := DetectorFunc(func(ctx context.Context, img image.Image) ([]model.Detection, error) {
		calls++
		return nil, nil
	})

	d := NewLimitedDetector(rate.NewLimiter(rate.Inf, 1), inner)
	assert.Equal(t, "func", d.Name())

	_, err := d.Detect(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestLimitedDetector_ContextCanceled(t *testing.T) {
	inner := DetectorFunc(func(ctx context.Context, img image.Image) ([]model.Detection, error) {
		t.Fatal("detector must not run")
		return nil, nil
	})

	// One token per hour with the burst already spent.
	l := rate.NewLimiter(rate.Every(time.Hour), 1)
	l.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLimitedDetector(l, inner).Detect(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	assert.Error(t, err)
}

func TestLimitedDetector_NilLimiter(t *testing.T) {
	inner := DetectorFunc(func(ctx context.Context, img image.Image) ([]model.Detection, error) { return nil, nil })
	d := NewLimitedDetector(nil, inner)
	_, ok := d.(DetectorFunc)
	assert.True(t, ok)
}
