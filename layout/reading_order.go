package layout

import (
	"math"
	"sort"

	"github.com/tsawler/ocrlayout/model"
)

// Band is the vertical extent assigned to a line during realignment.
type Band struct {
	YTop    int
	YBottom int
}

// RealignConfig holds configuration for line realignment
type RealignConfig struct {
	// YThreshold is the accepted OCR jitter in pixels. Two lines share a
	// band when both their midpoints and their heights differ by strictly
	// less than this value (default: 20)
	YThreshold float64
}

// DefaultRealignConfig returns the default realignment configuration
func DefaultRealignConfig() RealignConfig {
	return RealignConfig{
		YThreshold: 20,
	}
}

// Realigner snaps near-duplicate vertical positions to a common band and
// orders lines for reading.
type Realigner struct {
	config RealignConfig
}

// NewRealigner creates a realigner with default configuration
func NewRealigner() *Realigner {
	return &Realigner{
		config: DefaultRealignConfig(),
	}
}

// NewRealignerWithConfig creates a realigner with custom configuration
func NewRealignerWithConfig(config RealignConfig) *Realigner {
	return &Realigner{
		config: config,
	}
}

// Config returns the realigner's configuration.
func (r *Realigner) Config() RealignConfig {
	return r.config
}

// SameLevel reports whether two lines sit on the same visual row: their
// vertical midpoints and their heights must both differ by less than
// threshold. The test is symmetric.
func SameLevel(a, b model.Line, threshold float64) bool {
	closeMid := math.Abs(a.Midpoint()-b.Midpoint()) < threshold
	closeHeight := math.Abs(float64(a.Height()-b.Height())) < threshold
	return closeMid && closeHeight
}

// AssignBands walks the lines in detection order and returns one band per
// line. When a line is on the same level as its predecessor (taken with the
// predecessor's already assigned band), it inherits that band; otherwise it
// keeps its own bounds. Bands therefore propagate forward along chains of
// adjacent detections.
func (r *Realigner) AssignBands(lines []model.Line) []Band {
	bands := make([]Band, len(lines))
	for i, l := range lines {
		bands[i] = Band{YTop: l.YTop, YBottom: l.YBottom}
		if i == 0 {
			continue
		}
		prev := lines[i-1].WithBand(bands[i-1].YTop, bands[i-1].YBottom)
		if SameLevel(prev, l, r.config.YThreshold) {
			bands[i] = bands[i-1]
		}
	}
	return bands
}

// Realign returns every input line, carrying its assigned band, sorted top
// to bottom and then left to right. Lines with equal keys keep their
// detection order. The input slice is not modified.
func (r *Realigner) Realign(lines []model.Line) []model.Line {
	bands := r.AssignBands(lines)

	order := make([]int, len(lines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if bands[a].YTop != bands[b].YTop {
			return bands[a].YTop < bands[b].YTop
		}
		return lines[a].XLeft < lines[b].XLeft
	})

	sorted := make([]model.Line, len(order))
	for i, idx := range order {
		sorted[i] = lines[idx].WithBand(bands[idx].YTop, bands[idx].YBottom)
	}
	return sorted
}
