package ocr

import "fmt"

// PageSegMode controls how Tesseract splits a page into text lines. The
// values match Tesseract's own numbering.
type PageSegMode int

const (
	PSM_OSD_ONLY               PageSegMode = 0  // orientation and script detection only
	PSM_AUTO_OSD               PageSegMode = 1  // automatic with OSD
	PSM_AUTO_ONLY              PageSegMode = 2  // automatic, no OSD or OCR
	PSM_AUTO                   PageSegMode = 3  // fully automatic (default)
	PSM_SINGLE_COLUMN          PageSegMode = 4  // single column of variable sizes
	PSM_SINGLE_BLOCK_VERT_TEXT PageSegMode = 5  // single uniform block of vertical text
	PSM_SINGLE_BLOCK           PageSegMode = 6  // single uniform block of text
	PSM_SINGLE_LINE            PageSegMode = 7  // single text line
	PSM_SINGLE_WORD            PageSegMode = 8  // single word
	PSM_CIRCLE_WORD            PageSegMode = 9  // single word in a circle
	PSM_SINGLE_CHAR            PageSegMode = 10 // single character
	PSM_SPARSE_TEXT            PageSegMode = 11 // as much text as possible, no order
	PSM_SPARSE_TEXT_OSD        PageSegMode = 12 // sparse text with OSD
	PSM_RAW_LINE               PageSegMode = 13 // single line, bypassing Tesseract hacks
)

// Valid reports whether m is a mode Tesseract knows.
func (m PageSegMode) Valid() bool {
	return m >= PSM_OSD_ONLY && m <= PSM_RAW_LINE
}

// ParsePageSegMode converts a configured mode number.
func ParsePageSegMode(n int) (PageSegMode, error) {
	m := PageSegMode(n)
	if !m.Valid() {
		return 0, fmt.Errorf("invalid page segmentation mode %d (0-13)", n)
	}
	return m, nil
}
