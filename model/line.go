package model

// Detection is one OCR model output for a page: a quadrilateral region plus
// the recognized text.
type Detection struct {
	Quad       Quad    `json:"quad"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Line is the canonical unit of layout reconstruction.
//
// The four bounds are derived from the detection quad. Text never changes
// after construction; the vertical bounds may differ between a page's raw
// lines and its realigned lines.
type Line struct {
	// ID is the line's stable position in its page's detection order.
	ID int

	// Text is the recognized text content
	Text string

	YTop    int
	YBottom int
	XLeft   int
	XRight  int
}

// OutputBBox returns the rectangle spanned by the line's current bounds in
// top-left, top-right, bottom-right, bottom-left order.
func (l Line) OutputBBox() Rect {
	return NewRect(l.XLeft, l.YTop, l.XRight, l.YBottom)
}

// Midpoint returns the vertical center of the line.
func (l Line) Midpoint() float64 {
	return float64(l.YTop+l.YBottom) / 2
}

// Height returns the vertical extent of the line.
func (l Line) Height() int {
	return l.YBottom - l.YTop
}

// Width returns the horizontal extent of the line.
func (l Line) Width() int {
	return l.XRight - l.XLeft
}

// WithBand returns a copy of the line with its vertical bounds replaced.
func (l Line) WithBand(top, bottom int) Line {
	l.YTop = top
	l.YBottom = bottom
	return l
}
