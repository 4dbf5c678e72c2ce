package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tsawler/ocrlayout/model"
)

// BandMatch selects how a line picks an existing row when grouping.
type BandMatch int

const (
	// FirstMatch joins the first row, in discovery order, whose key lies
	// within the threshold. Rows can chain: two lines further apart than the
	// threshold may still land in the same row through an earlier key.
	FirstMatch BandMatch = iota

	// Nearest joins the row whose key is closest to the line, preferring the
	// earlier-discovered row on ties.
	Nearest
)

// String returns a string representation of the match strategy
func (m BandMatch) String() string {
	switch m {
	case Nearest:
		return "nearest"
	default:
		return "first"
	}
}

// ParseBandMatch converts a configuration string into a BandMatch.
// Unknown values fall back to FirstMatch.
func ParseBandMatch(s string) BandMatch {
	if strings.EqualFold(strings.TrimSpace(s), "nearest") {
		return Nearest
	}
	return FirstMatch
}

// ComposeConfig holds configuration for text composition
type ComposeConfig struct {
	// BandThreshold is the maximum (exclusive) distance between a line's top
	// and a row key for the line to join that row (default: 10)
	BandThreshold int

	// SpaceDivisor scales horizontal pixel gaps down to space characters
	// (default: 5)
	SpaceDivisor int

	// Match is the row matching strategy (default: FirstMatch)
	Match BandMatch
}

// DefaultComposeConfig returns the default composition configuration
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		BandThreshold: 10,
		SpaceDivisor:  5,
		Match:         FirstMatch,
	}
}

// Row is a horizontal band of lines rendered as one line of text.
type Row struct {
	// Key is the YTop value that founded the row. It is not necessarily the
	// smallest YTop among the members.
	Key int

	// Members are the row's lines sorted left to right
	Members []model.Line
}

// Compositor renders realigned lines as page text.
type Compositor struct {
	config ComposeConfig
}

// NewCompositor creates a compositor with default configuration
func NewCompositor() *Compositor {
	return &Compositor{
		config: DefaultComposeConfig(),
	}
}

// NewCompositorWithConfig creates a compositor with custom configuration
func NewCompositorWithConfig(config ComposeConfig) *Compositor {
	defaults := DefaultComposeConfig()
	if config.BandThreshold <= 0 {
		config.BandThreshold = defaults.BandThreshold
	}
	if config.SpaceDivisor <= 0 {
		config.SpaceDivisor = defaults.SpaceDivisor
	}
	return &Compositor{
		config: config,
	}
}

// Config returns the compositor's configuration.
func (c *Compositor) Config() ComposeConfig {
	return c.config
}

// Rows groups lines into horizontal bands. The lines are visited in the
// given order; rows come back sorted by key and each row's members sorted by
// XLeft.
func (c *Compositor) Rows(lines []model.Line) []Row {
	var rows []Row

	for _, l := range lines {
		idx := c.findRow(rows, l.YTop)
		if idx < 0 {
			rows = append(rows, Row{Key: l.YTop})
			idx = len(rows) - 1
		}
		rows[idx].Members = append(rows[idx].Members, l)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Key < rows[j].Key
	})
	for i := range rows {
		members := rows[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].XLeft < members[b].XLeft
		})
	}

	return rows
}

// findRow returns the index of the row y belongs to, or -1.
func (c *Compositor) findRow(rows []Row, y int) int {
	best := -1
	bestDist := math.MaxInt

	for i, row := range rows {
		dist := absInt(row.Key - y)
		if dist >= c.config.BandThreshold {
			continue
		}
		if c.config.Match == FirstMatch {
			return i
		}
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}

	return best
}

// Compose renders lines, which must already be in reading order, as one
// string. Each row becomes a line of text; rows are joined with "\n".
//
// All rows share the same horizontal origin, the smallest XLeft on the page.
// Within a row a cursor starts at that origin; every member is preceded by
// (XLeft - cursor) / SpaceDivisor spaces and moves the cursor to its XRight.
// Overlapping members get no padding. An empty input yields "".
func (c *Compositor) Compose(lines []model.Line) string {
	if len(lines) == 0 {
		return ""
	}

	minX := lines[0].XLeft
	for _, l := range lines[1:] {
		if l.XLeft < minX {
			minX = l.XLeft
		}
	}

	rows := c.Rows(lines)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, c.renderRow(row, minX))
	}

	return strings.Join(out, "\n")
}

// renderRow pads and concatenates a row's members starting at originX.
func (c *Compositor) renderRow(row Row, originX int) string {
	var sb strings.Builder
	cursor := originX

	for _, m := range row.Members {
		sb.WriteString(strings.Repeat(" ", c.spaces(m.XLeft-cursor)))
		sb.WriteString(m.Text)
		cursor = m.XRight
	}

	return sb.String()
}

// spaces converts a pixel gap to a number of space characters.
func (c *Compositor) spaces(gap int) int {
	if gap <= 0 {
		return 0
	}
	return gap / c.config.SpaceDivisor
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
