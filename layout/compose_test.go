package layout

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/tsawler/ocrlayout/model"
)

func TestDefaultComposeConfig(t *testing.T) {
	config := DefaultComposeConfig()
	if config.BandThreshold != 10 {
		t.Errorf("Expected BandThreshold 10, got %d", config.BandThreshold)
	}
	if config.SpaceDivisor != 5 {
		t.Errorf("Expected SpaceDivisor 5, got %d", config.SpaceDivisor)
	}
	if config.Match != FirstMatch {
		t.Errorf("Expected FirstMatch, got %v", config.Match)
	}
}

func TestNewCompositorWithConfig_InvalidDivisor(t *testing.T) {
	c := NewCompositorWithConfig(ComposeConfig{BandThreshold: 10, SpaceDivisor: 0})
	if c.Config().SpaceDivisor != 5 {
		t.Errorf("Expected divisor to fall back to 5, got %d", c.Config().SpaceDivisor)
	}
}

func TestNewCompositorWithConfig_InvalidBandThreshold(t *testing.T) {
	for _, threshold := range []int{0, -4} {
		c := NewCompositorWithConfig(ComposeConfig{BandThreshold: threshold, SpaceDivisor: 5})
		if c.Config().BandThreshold != 10 {
			t.Errorf("threshold %d: expected fallback to 10, got %d", threshold, c.Config().BandThreshold)
		}
	}
}

func TestRows_ThresholdIsExclusive(t *testing.T) {
	config := DefaultComposeConfig()
	config.BandThreshold = 1
	c := NewCompositorWithConfig(config)

	rows := c.Rows([]model.Line{
		makeLine(0, "a", 0, 100, 10, 110),
		makeLine(1, "b", 20, 100, 30, 110),
		makeLine(2, "c", 40, 101, 50, 111),
	})

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %+v", len(rows), rows)
	}
	if len(rows[0].Members) != 2 || rows[1].Key != 101 {
		t.Errorf("Expected equal tops to share a row and a 1px offset to start a new one, got %+v", rows)
	}
}

func TestBandMatch(t *testing.T) {
	tests := []struct {
		in   string
		want BandMatch
	}{
		{"nearest", Nearest},
		{" Nearest ", Nearest},
		{"first", FirstMatch},
		{"", FirstMatch},
		{"bogus", FirstMatch},
	}

	for _, tt := range tests {
		if got := ParseBandMatch(tt.in); got != tt.want {
			t.Errorf("ParseBandMatch(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if Nearest.String() != "nearest" || FirstMatch.String() != "first" {
		t.Error("Unexpected BandMatch string values")
	}
}

func TestCompose_SpacedRow(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "A", 0, 100, 0, 120),
		makeLine(1, "B", 50, 100, 50, 120),
		makeLine(2, "C", 120, 100, 120, 120),
	}

	got := NewCompositor().Compose(lines)

	want := "A" + strings.Repeat(" ", 10) + "B" + strings.Repeat(" ", 14) + "C"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestCompose_SingleLine(t *testing.T) {
	lines := []model.Line{makeLine(0, "Only line", 340, 200, 600, 230)}

	got := NewCompositor().Compose(lines)

	if got != "Only line" {
		t.Errorf("Compose() = %q, want %q", got, "Only line")
	}
}

func TestCompose_Empty(t *testing.T) {
	if got := NewCompositor().Compose(nil); got != "" {
		t.Errorf("Compose(nil) = %q, want empty", got)
	}
}

func TestCompose_SharedOrigin(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "Title", 100, 10, 200, 30),
		makeLine(1, "Body", 50, 50, 150, 70),
	}

	got := NewCompositor().Compose(lines)

	want := strings.Repeat(" ", 10) + "Title\nBody"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestCompose_CursorAdvancesToRightEdge(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "Name:", 0, 10, 60, 30),
		makeLine(1, "Value", 100, 10, 160, 30),
	}

	got := NewCompositor().Compose(lines)

	// (100 - 60) / 5 = 8 spaces
	want := "Name:" + strings.Repeat(" ", 8) + "Value"
	if got != want {
		t.Errorf("Compose() = %q, want %q", got, want)
	}
}

func TestCompose_OverlapGetsNoPadding(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "A", 0, 10, 100, 30),
		makeLine(1, "B", 80, 10, 120, 30),
	}

	if got := NewCompositor().Compose(lines); got != "AB" {
		t.Errorf("Compose() = %q, want %q", got, "AB")
	}
}

func TestCompose_GapTruncates(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "A", 0, 10, 0, 30),
		makeLine(1, "B", 9, 10, 9, 30),
	}

	// 9 / 5 = 1
	if got := NewCompositor().Compose(lines); got != "A B" {
		t.Errorf("Compose() = %q, want %q", got, "A B")
	}
}

func TestCompose_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	realigner := NewRealigner()
	compositor := NewCompositor()

	for iter := 0; iter < 20; iter++ {
		sorted := realigner.Realign(randomLines(rng, 1+rng.Intn(30)))
		if compositor.Compose(sorted) != compositor.Compose(sorted) {
			t.Fatal("Compose is not deterministic")
		}
	}
}

func TestRows_SortedByKey(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "low", 0, 300, 10, 320),
		makeLine(1, "high", 0, 10, 10, 30),
		makeLine(2, "high-2", 50, 15, 60, 30),
	}

	rows := NewCompositor().Rows(lines)

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0].Key != 10 || rows[1].Key != 300 {
		t.Errorf("Expected keys [10 300], got [%d %d]", rows[0].Key, rows[1].Key)
	}
	if len(rows[0].Members) != 2 {
		t.Fatalf("Expected 2 members in first row, got %d", len(rows[0].Members))
	}
	if rows[0].Members[0].Text != "high" || rows[0].Members[1].Text != "high-2" {
		t.Errorf("Members not sorted by XLeft: %q, %q", rows[0].Members[0].Text, rows[0].Members[1].Text)
	}
}

func TestRows_FirstMatchChains(t *testing.T) {
	// 108 and 92 are 16 apart but both are within 10 of the first key.
	lines := []model.Line{
		makeLine(0, "a", 0, 100, 10, 120),
		makeLine(1, "b", 40, 108, 50, 128),
		makeLine(2, "c", 20, 92, 30, 112),
	}

	rows := NewCompositor().Rows(lines)

	if len(rows) != 1 {
		t.Fatalf("Expected 1 chained row, got %d", len(rows))
	}
	if rows[0].Key != 100 {
		t.Errorf("Expected key 100, got %d", rows[0].Key)
	}
	texts := []string{rows[0].Members[0].Text, rows[0].Members[1].Text, rows[0].Members[2].Text}
	if strings.Join(texts, "") != "acb" {
		t.Errorf("Expected members ordered a,c,b; got %v", texts)
	}
}

func TestRows_FirstMatchVersusNearest(t *testing.T) {
	lines := []model.Line{
		makeLine(0, "a", 0, 100, 10, 110),
		makeLine(1, "b", 0, 115, 10, 125),
		makeLine(2, "c", 50, 108, 60, 118),
	}

	first := NewCompositor().Rows(lines)
	if len(first) != 2 || len(first[0].Members) != 2 || first[0].Members[1].Text != "c" {
		t.Errorf("FirstMatch: expected 'c' in row 100, got %+v", first)
	}

	config := DefaultComposeConfig()
	config.Match = Nearest
	nearest := NewCompositorWithConfig(config).Rows(lines)
	if len(nearest) != 2 || len(nearest[1].Members) != 2 || nearest[1].Members[1].Text != "c" {
		t.Errorf("Nearest: expected 'c' in row 115, got %+v", nearest)
	}
}

func TestRows_NearestTieKeepsEarlierRow(t *testing.T) {
	config := DefaultComposeConfig()
	config.Match = Nearest
	lines := []model.Line{
		makeLine(0, "a", 0, 100, 10, 110),
		makeLine(1, "b", 0, 112, 10, 122),
		makeLine(2, "c", 50, 106, 60, 116),
	}

	rows := NewCompositorWithConfig(config).Rows(lines)

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if len(rows[0].Members) != 2 {
		t.Errorf("Expected tie to resolve to the first row, got %+v", rows)
	}
}
