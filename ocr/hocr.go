package ocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/ocrlayout/model"
)

// lineClasses are the hOCR classes that mark a text line.
var lineClasses = map[string]bool{
	"ocr_line":      true,
	"ocrx_line":     true,
	"ocr_header":    true,
	"ocr_caption":   true,
	"ocr_textfloat": true,
}

// ParseHOCR reads an hOCR document and returns the detections of every
// ocr_page in document order. Each line's bbox becomes an axis-aligned quad;
// its text is the space-joined text of its words. Lines without a bbox or
// without text are skipped. A document with lines but no ocr_page element is
// treated as a single page.
func ParseHOCR(r io.Reader) ([][]model.Detection, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing hOCR: %w", err)
	}

	p := &hocrParser{}
	p.traverse(doc)
	p.flush()

	return p.pages, nil
}

type hocrParser struct {
	pages   [][]model.Detection
	current []model.Detection
	inPage  bool
}

// flush closes the page being collected, if any.
func (p *hocrParser) flush() {
	if p.inPage || len(p.current) > 0 {
		p.pages = append(p.pages, p.current)
	}
	p.current = nil
	p.inPage = false
}

func (p *hocrParser) traverse(n *html.Node) {
	if n.Type == html.ElementNode {
		classes := classList(n)
		switch {
		case classes["ocr_page"]:
			p.flush()
			p.inPage = true
		case hasAny(classes, lineClasses):
			if d, ok := parseLine(n); ok {
				p.current = append(p.current, d)
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.traverse(c)
	}
}

// parseLine converts an hOCR line element into a detection.
func parseLine(n *html.Node) (model.Detection, bool) {
	props := titleProps(attr(n, "title"))
	box, ok := parseBBox(props["bbox"])
	if !ok {
		return model.Detection{}, false
	}

	var words []string
	var confSum float64
	var confCount int
	collectWords(n, &words, &confSum, &confCount)

	var text string
	if len(words) > 0 {
		text = CleanText(strings.Join(words, " "))
	} else {
		text = CleanText(textContent(n))
	}
	if text == "" {
		return model.Detection{}, false
	}

	d := model.Detection{
		Quad: model.QuadFromRect(box[0], box[1], box[2], box[3]),
		Text: text,
	}
	if confCount > 0 {
		d.Confidence = confSum / float64(confCount) / 100
	}
	return d, true
}

// collectWords gathers ocrx_word text and x_wconf values below n.
func collectWords(n *html.Node, words *[]string, confSum *float64, confCount *int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if classList(c)["ocrx_word"] {
			if w := strings.TrimSpace(textContent(c)); w != "" {
				*words = append(*words, w)
			}
			if conf, err := strconv.ParseFloat(titleProps(attr(c, "title"))["x_wconf"], 64); err == nil {
				*confSum += conf
				*confCount++
			}
			continue
		}
		collectWords(c, words, confSum, confCount)
	}
}

// titleProps splits an hOCR title attribute ("bbox 1 2 3 4; x_wconf 95")
// into property name and value.
func titleProps(title string) map[string]string {
	props := make(map[string]string)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = strings.Join(fields[1:], " ")
	}
	return props
}

// parseBBox parses "x0 y0 x1 y1".
func parseBBox(s string) ([4]float64, bool) {
	var box [4]float64
	fields := strings.Fields(s)
	if len(fields) != 4 {
		return box, false
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return box, false
		}
		box[i] = v
	}
	return box, true
}

func classList(n *html.Node) map[string]bool {
	classes := make(map[string]bool)
	for _, c := range strings.Fields(attr(n, "class")) {
		classes[c] = true
	}
	return classes
}

func hasAny(classes, wanted map[string]bool) bool {
	for c := range classes {
		if wanted[c] {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
