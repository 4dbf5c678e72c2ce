package model

import (
	"encoding/json"
	"strings"
	"testing"
)

// ============================================================================
// Quad Tests
// ============================================================================

func TestQuadFromRect(t *testing.T) {
	q := QuadFromRect(10, 20, 30, 40)

	want := Quad{{10, 20}, {30, 20}, {30, 40}, {10, 40}}
	if q != want {
		t.Errorf("QuadFromRect() = %v, want %v", q, want)
	}
}

func TestQuadUnmarshalJSON(t *testing.T) {
	var q Quad
	if err := json.Unmarshal([]byte(`[[1.5,2],[10,2.25],[10,8],[1,8]]`), &q); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if q[TopLeft] != (Point{1.5, 2}) || q[TopRight] != (Point{10, 2.25}) {
		t.Errorf("Unexpected top corners: %v", q)
	}
	if q[BottomRight] != (Point{10, 8}) || q[BottomLeft] != (Point{1, 8}) {
		t.Errorf("Unexpected bottom corners: %v", q)
	}
}

func TestQuadUnmarshalJSON_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"three points", `[[0,0],[1,0],[1,1]]`},
		{"short point", `[[0,0],[1,0],[1,1],[0]]`},
		{"not a list", `{"x":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quad
			if err := json.Unmarshal([]byte(tt.input), &q); err == nil {
				t.Errorf("Expected error for %s", tt.input)
			}
		})
	}
}

// ============================================================================
// Rect Tests
// ============================================================================

func TestNewRect(t *testing.T) {
	r := NewRect(1, 2, 3, 4)

	want := Rect{{1, 2}, {3, 2}, {3, 4}, {1, 4}}
	if r != want {
		t.Errorf("NewRect() = %v, want %v", r, want)
	}
	if !r.IsAxisAligned() {
		t.Error("Expected NewRect to be axis aligned")
	}
}

func TestRectIsAxisAligned(t *testing.T) {
	skewed := Rect{{0, 0}, {10, 1}, {10, 5}, {0, 5}}
	if skewed.IsAxisAligned() {
		t.Error("Expected skewed rect not to be axis aligned")
	}
}

func TestRectJSON(t *testing.T) {
	data, err := json.Marshal(NewRect(5, 6, 7, 8))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[[5,6],[7,6],[7,8],[5,8]]" {
		t.Errorf("Unexpected JSON: %s", data)
	}
}

// ============================================================================
// Line Tests
// ============================================================================

func TestLineMetrics(t *testing.T) {
	l := Line{Text: "x", YTop: 100, YBottom: 117, XLeft: 20, XRight: 80}

	if l.Height() != 17 {
		t.Errorf("Height() = %d, want 17", l.Height())
	}
	if l.Width() != 60 {
		t.Errorf("Width() = %d, want 60", l.Width())
	}
	if l.Midpoint() != 108.5 {
		t.Errorf("Midpoint() = %v, want 108.5", l.Midpoint())
	}
}

func TestLineWithBand(t *testing.T) {
	l := Line{ID: 4, Text: "x", YTop: 105, YBottom: 118, XLeft: 20, XRight: 80}

	moved := l.WithBand(100, 120)

	if moved.YTop != 100 || moved.YBottom != 120 {
		t.Errorf("Expected band (100,120), got (%d,%d)", moved.YTop, moved.YBottom)
	}
	if moved.ID != 4 || moved.XLeft != 20 || moved.XRight != 80 {
		t.Errorf("WithBand changed unrelated fields: %+v", moved)
	}
	if l.YTop != 105 {
		t.Error("WithBand modified the receiver")
	}
	if moved.OutputBBox() != NewRect(20, 100, 80, 120) {
		t.Errorf("OutputBBox does not reflect new band: %v", moved.OutputBBox())
	}
}

// ============================================================================
// Page and Document Tests
// ============================================================================

func TestPageResult(t *testing.T) {
	p := &Page{
		Number: 2,
		Lines: []Line{
			{ID: 0, Text: "second", YTop: 50, YBottom: 60, XLeft: 0, XRight: 10},
			{ID: 1, Text: "first", YTop: 10, YBottom: 20, XLeft: 0, XRight: 10},
		},
		SortedLines: []Line{
			{ID: 1, Text: "first", YTop: 10, YBottom: 20, XLeft: 0, XRight: 10},
			{ID: 0, Text: "second", YTop: 50, YBottom: 60, XLeft: 0, XRight: 10},
		},
		Text: "first\nsecond",
	}

	r := p.Result()

	if r.PageNumber != 2 {
		t.Errorf("Expected page number 2, got %d", r.PageNumber)
	}
	if len(r.Lines) != 2 || r.Lines[0].Text != "first" {
		t.Fatalf("Expected result lines in reading order, got %+v", r.Lines)
	}
	if r.Lines[0].BBox != NewRect(0, 10, 10, 20) {
		t.Errorf("Unexpected bbox: %v", r.Lines[0].BBox)
	}
	if p.LineCount() != 2 || p.IsEmpty() {
		t.Error("Unexpected line count")
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("a.pdf", &Page{Number: 0, Text: "one"}, &Page{Number: 1, Text: "two"})

	if doc.PageCount() != 2 {
		t.Fatalf("Expected 2 pages, got %d", doc.PageCount())
	}
	if doc.GetPage(1).Text != "two" {
		t.Errorf("GetPage(1) returned wrong page")
	}
	if doc.GetPage(2) != nil || doc.GetPage(-1) != nil {
		t.Error("Expected nil for out of range pages")
	}
	if doc.Text() != "one\n\ntwo" {
		t.Errorf("Text() = %q", doc.Text())
	}
}

func TestDocumentResult_NoPages(t *testing.T) {
	data, err := json.Marshal(NewDocument("nothing.pdf").Result())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if !strings.Contains(string(data), `"pages":[]`) {
		t.Errorf("Expected empty pages array, got %s", data)
	}
}
