package ocr

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/tsawler/ocrlayout/model"
)

// paddleEntry is one PaddleOCR result entry: [quad, [text, confidence]].
type paddleEntry model.Detection

// UnmarshalJSON decodes [[[x,y]x4], [text, confidence]].
func (e *paddleEntry) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("paddle entry must have 2 parts, got %d", len(parts))
	}

	var quad model.Quad
	if err := json.Unmarshal(parts[0], &quad); err != nil {
		return fmt.Errorf("paddle quad: %w", err)
	}

	var rec []json.RawMessage
	if err := json.Unmarshal(parts[1], &rec); err != nil {
		return fmt.Errorf("paddle recognition: %w", err)
	}
	if len(rec) == 0 {
		return fmt.Errorf("paddle recognition is empty")
	}

	var text string
	if err := json.Unmarshal(rec[0], &text); err != nil {
		return fmt.Errorf("paddle text: %w", err)
	}
	var conf float64
	if len(rec) > 1 {
		if err := json.Unmarshal(rec[1], &conf); err != nil {
			return fmt.Errorf("paddle confidence: %w", err)
		}
	}

	*e = paddleEntry{Quad: quad, Text: text, Confidence: conf}
	return nil
}

// MarshalJSON encodes the entry back into PaddleOCR's layout.
func (e paddleEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Quad, []interface{}{e.Text, e.Confidence}})
}

// DecodePaddle reads PaddleOCR results. Both a single page
// ([entry, ...]) and a list of pages ([[entry, ...], ...]) are accepted; a
// null page decodes as a page without detections. Text is not cleaned, so
// detections come back exactly as the model emitted them.
func DecodePaddle(r io.Reader) ([][]model.Detection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading paddle results: %w", err)
	}

	var pages [][]paddleEntry
	if err := json.Unmarshal(data, &pages); err != nil {
		var single []paddleEntry
		if err2 := json.Unmarshal(data, &single); err2 != nil {
			return nil, fmt.Errorf("decoding paddle results: %w", err)
		}
		pages = [][]paddleEntry{single}
	}

	out := make([][]model.Detection, len(pages))
	for i, page := range pages {
		out[i] = make([]model.Detection, len(page))
		for j, e := range page {
			out[i][j] = model.Detection(e)
		}
	}
	return out, nil
}

// EncodePaddle writes one page of detections in PaddleOCR's layout.
func EncodePaddle(w io.Writer, detections []model.Detection) error {
	entries := make([]paddleEntry, len(detections))
	for i, d := range detections {
		entries[i] = paddleEntry(d)
	}
	return json.NewEncoder(w).Encode(entries)
}
