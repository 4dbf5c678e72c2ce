package layout

import (
	"math"

	"github.com/tsawler/ocrlayout/model"
)

// Normalize converts one raw detection into a Line.
//
// The bounds take the outermost coordinate of the relevant corner pair:
// the top from the two top corners, the bottom from the two bottom corners,
// the left from the two left corners and the right from the two right
// corners. Coordinates truncate toward zero. The quad is not validated, so a
// degenerate or self-intersecting quad yields degenerate bounds.
func Normalize(text string, q model.Quad) model.Line {
	return model.Line{
		Text:    text,
		YTop:    int(math.Min(q[model.TopLeft].Y, q[model.TopRight].Y)),
		YBottom: int(math.Max(q[model.BottomLeft].Y, q[model.BottomRight].Y)),
		XLeft:   int(math.Min(q[model.TopLeft].X, q[model.BottomLeft].X)),
		XRight:  int(math.Max(q[model.TopRight].X, q[model.BottomRight].X)),
	}
}

// NormalizeAll converts a page's detections into lines, in detection order.
// Each line's ID is its index in the input.
func NormalizeAll(detections []model.Detection) []model.Line {
	lines := make([]model.Line, len(detections))
	for i, d := range detections {
		lines[i] = Normalize(d.Text, d.Quad)
		lines[i].ID = i
	}
	return lines
}
