// Package model provides the data types shared by the OCR layout pipeline.
//
// # Geometry
//
// Detections arrive as a [Quad] (four float points in top-left, top-right,
// bottom-right, bottom-left order) plus text. The layout engine reduces every
// quad to integer bounds on a [Line]; [Line.OutputBBox] turns those bounds
// back into an axis-aligned [Rect].
//
// # Documents
//
// A [Document] owns its [Page] values and a page owns its lines. Nothing holds
// a reference back to its owner, so pages can be built concurrently:
//
//	doc := model.NewDocument("scan.pdf", page0, page1)
//	result := doc.Result() // serializable view
//
// Coordinates are page-pixel units at the rendering scale used before
// detection (2x PDF points by default).
package model
