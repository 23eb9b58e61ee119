package export

import (
	"encoding/json"
	"io"
	"time"

	perr "namecensus/internal/platform/errors"
)

type document struct {
	Title       string           `json:"title"`
	GeneratedAt time.Time        `json:"generated_at"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
	Columns     []string         `json:"columns"`
	Count       int              `json:"count"`
	Rows        []map[string]any `json:"rows"`
}

// WriteJSON writes the table as an array of column keyed objects
func WriteJSON(w io.Writer, t Table, now time.Time) error {
	doc := document{
		Title:       t.Title,
		GeneratedAt: now.UTC(),
		Metadata:    t.Meta,
		Columns:     t.Columns,
		Count:       len(t.Rows),
		Rows:        make([]map[string]any, 0, len(t.Rows)),
	}
	for _, row := range t.Rows {
		m := make(map[string]any, len(t.Columns))
		for i, c := range t.Columns {
			if i < len(row) {
				m[c] = row[i]
			} else {
				m[c] = nil
			}
		}
		doc.Rows = append(doc.Rows, m)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode export")
	}
	return nil
}
