// Package ingest fetches raw period rows from external tabular sources
package ingest

import (
	"context"
	"strings"

	perr "namecensus/internal/platform/errors"
)

// Kind names a source backend
type Kind string

const (
	// KindSheets reads a Google Sheets range
	KindSheets Kind = "sheets"
	// KindWorkbook reads a local xlsx or csv file
	KindWorkbook Kind = "workbook"
)

// Ref locates the rows of one period
type Ref struct {
	Kind          Kind   `yaml:"kind" json:"kind"`
	SpreadsheetID string `yaml:"spreadsheet_id,omitempty" json:"spreadsheet_id,omitempty"`
	Range         string `yaml:"range,omitempty" json:"range,omitempty"`
	Path          string `yaml:"path,omitempty" json:"path,omitempty"`
	Sheet         string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// Validate checks the fields required by the ref's kind
func (r Ref) Validate() error {
	switch r.Kind {
	case KindSheets:
		if strings.TrimSpace(r.SpreadsheetID) == "" || strings.TrimSpace(r.Range) == "" {
			return perr.InvalidArgf("sheets source needs spreadsheet_id and range")
		}
	case KindWorkbook:
		if strings.TrimSpace(r.Path) == "" {
			return perr.InvalidArgf("workbook source needs path")
		}
	default:
		return perr.InvalidArgf("unknown source kind %q", r.Kind)
	}
	return nil
}

// Fetcher returns every row of a source, header included
type Fetcher interface {
	Fetch(ctx context.Context, ref Ref) ([][]string, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, ref Ref) ([][]string, error)

// Fetch implements Fetcher
func (f FetcherFunc) Fetch(ctx context.Context, ref Ref) ([][]string, error) { return f(ctx, ref) }

// Mux dispatches a ref to the fetcher registered for its kind
type Mux map[Kind]Fetcher

// Fetch implements Fetcher
func (m Mux) Fetch(ctx context.Context, ref Ref) ([][]string, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	f, ok := m[ref.Kind]
	if !ok || f == nil {
		return nil, perr.Unavailablef("no fetcher configured for %s sources", ref.Kind)
	}
	return f.Fetch(ctx, ref)
}

// DataRows strips the header row and fails when nothing remains
func DataRows(rows [][]string) ([][]string, error) {
	if len(rows) < 2 {
		return nil, perr.InvalidArgf("no data found in sheet")
	}
	return rows[1:], nil
}
