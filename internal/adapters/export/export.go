// Package export renders tabular results as csv, xlsx print layouts or json documents
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	perr "namecensus/internal/platform/errors"
)

// Format is a download format
type Format string

const (
	// FormatCSV is utf-8 csv with a byte order mark
	FormatCSV Format = "csv"
	// FormatXLSX is a landscape print layout workbook
	FormatXLSX Format = "xlsx"
	// FormatJSON is a json document with metadata
	FormatJSON Format = "json"
)

// ParseFormat accepts csv, xlsx and json; pdf maps to the print layout
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv", "":
		return FormatCSV, nil
	case "xlsx", "pdf", "print":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", perr.InvalidArgf("unsupported export format %q", s)
	}
}

// ContentType returns the media type of f
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Ext returns the file extension of f
func (f Format) Ext() string { return "." + string(f) }

// Table is a fully ordered result ready for rendering
type Table struct {
	// Title heads print layouts and names json documents
	Title   string
	Columns []string
	Rows    [][]any
	// Meta is emitted as the metadata block of json documents
	Meta map[string]any
}

// Filename builds a download name such as "January 2025_included_20250102_150405.csv"
func Filename(display, kind string, f Format, now time.Time) string {
	return fmt.Sprintf("%s_%s_%s%s", display, kind, now.Format("20060102_150405"), f.Ext())
}

// Options tunes rendering
type Options struct {
	// PrintRowLimit caps data rows in the print layout; zero means no cap
	PrintRowLimit int
	// Now stamps generated documents
	Now func() time.Time
}

// Write renders t in format f
func Write(w io.Writer, f Format, t Table, o Options) error {
	if o.Now == nil {
		o.Now = time.Now
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatXLSX:
		return WriteXLSX(w, t, o)
	case FormatJSON:
		return WriteJSON(w, t, o.Now())
	default:
		return perr.InvalidArgf("unsupported export format %q", f)
	}
}

func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *int:
		if t == nil {
			return ""
		}
		return fmt.Sprint(*t)
	case *float64:
		if t == nil {
			return ""
		}
		return fmt.Sprint(*t)
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return fmt.Sprint(t)
	}
}
