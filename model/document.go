package model

import "strings"

// Document represents the OCR output for one source document.
type Document struct {
	FilePath string  // File path or logical document name
	Pages    []*Page // Pages in source order
}

// NewDocument creates a document from already built pages.
func NewDocument(filePath string, pages ...*Page) *Document {
	return &Document{
		FilePath: filePath,
		Pages:    append(make([]*Page, 0, len(pages)), pages...),
	}
}

// PageCount returns the total number of pages
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// GetPage returns the page at the given position (0-indexed), or nil.
func (d *Document) GetPage(index int) *Page {
	if index < 0 || index >= len(d.Pages) {
		return nil
	}
	return d.Pages[index]
}

// Text returns every page's composited text separated by blank lines.
func (d *Document) Text() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// Result returns the formatted result view pairing each page's number, its
// per-line text and bbox, and its composited text.
func (d *Document) Result() DocumentResult {
	pages := make([]PageResult, 0, len(d.Pages))
	for _, p := range d.Pages {
		pages = append(pages, p.Result())
	}
	return DocumentResult{
		FilePath: d.FilePath,
		Pages:    pages,
	}
}

// DocumentResult is the serializable view of a document.
type DocumentResult struct {
	FilePath string       `json:"file_path" yaml:"file_path"`
	Pages    []PageResult `json:"pages" yaml:"pages"`
}
