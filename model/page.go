package model

// Page represents a single page of OCR output after layout reconstruction.
//
// Lines holds the normalized detections in detection order. SortedLines and
// Text are derived once when the page is built and never change afterward.
type Page struct {
	Number      int    // Page number as reported by the source (0-indexed)
	Lines       []Line // Normalized lines in detection order
	SortedLines []Line // Realigned lines in reading order
	Text        string // Composited page text
}

// LineCount returns the number of lines on the page
func (p *Page) LineCount() int {
	return len(p.Lines)
}

// IsEmpty reports whether the page has no detections.
func (p *Page) IsEmpty() bool {
	return len(p.Lines) == 0
}

// Result returns the serializable view of the page.
func (p *Page) Result() PageResult {
	lines := make([]LineResult, 0, len(p.SortedLines))
	for _, l := range p.SortedLines {
		lines = append(lines, LineResult{Text: l.Text, BBox: l.OutputBBox()})
	}
	return PageResult{
		PageNumber: p.Number,
		Lines:      lines,
		Text:       p.Text,
	}
}

// LineResult pairs a line's text with its output bounding box.
type LineResult struct {
	Text string `json:"text" yaml:"text"`
	BBox Rect   `json:"bbox" yaml:"bbox"`
}

// PageResult is the serializable view of a page.
type PageResult struct {
	PageNumber int          `json:"page_number" yaml:"page_number"`
	Lines      []LineResult `json:"lines" yaml:"lines"`
	Text       string       `json:"text" yaml:"text"`
}
