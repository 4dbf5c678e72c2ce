package model

import (
	"encoding/json"
	"fmt"
)

// Point represents a 2D point in page-pixel space (Y grows downward).
type Point struct {
	X, Y float64
}

// Quad is a detection quadrilateral in the order emitted by the OCR model:
// top-left, top-right, bottom-right, bottom-left.
//
// No geometric sanity is enforced. Self-intersecting or zero-area quads are
// accepted and produce degenerate bounds.
type Quad [4]Point

// Corner indexes into a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// QuadFromRect builds an axis-aligned quad from two opposite corners.
func QuadFromRect(x0, y0, x1, y1 float64) Quad {
	return Quad{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
	}
}

// MarshalJSON encodes the quad as [[x,y],[x,y],[x,y],[x,y]].
func (q Quad) MarshalJSON() ([]byte, error) {
	var pts [4][2]float64
	for i, p := range q {
		pts[i] = [2]float64{p.X, p.Y}
	}
	return json.Marshal(pts)
}

// UnmarshalJSON decodes a quad from a list of exactly four [x,y] pairs.
func (q *Quad) UnmarshalJSON(data []byte) error {
	var pts [][]float64
	if err := json.Unmarshal(data, &pts); err != nil {
		return err
	}
	if len(pts) != 4 {
		return fmt.Errorf("quad must have 4 points, got %d", len(pts))
	}
	for i, p := range pts {
		if len(p) != 2 {
			return fmt.Errorf("quad point %d must have 2 coordinates, got %d", i, len(p))
		}
		q[i] = Point{X: p[0], Y: p[1]}
	}
	return nil
}

// IntPoint is an integer pixel coordinate. It encodes as a two element array.
type IntPoint struct {
	X, Y int
}

// MarshalJSON encodes the point as [x,y].
func (p IntPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON decodes a point from [x,y].
func (p *IntPoint) UnmarshalJSON(data []byte) error {
	var xy [2]int
	if err := json.Unmarshal(data, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// MarshalYAML encodes the point as a flow sequence [x, y].
func (p IntPoint) MarshalYAML() (interface{}, error) {
	return []int{p.X, p.Y}, nil
}

// Rect is an axis-aligned rectangle expressed as four corners in
// top-left, top-right, bottom-right, bottom-left order.
type Rect [4]IntPoint

// NewRect builds the rectangle spanned by the given bounds.
func NewRect(left, top, right, bottom int) Rect {
	return Rect{
		{X: left, Y: top},
		{X: right, Y: top},
		{X: right, Y: bottom},
		{X: left, Y: bottom},
	}
}

// IsAxisAligned reports whether the four corners form an axis-aligned rectangle.
func (r Rect) IsAxisAligned() bool {
	return r[0].Y == r[1].Y && r[2].Y == r[3].Y &&
		r[0].X == r[3].X && r[1].X == r[2].X
}
