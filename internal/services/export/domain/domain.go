// Package domain holds the export download contract
package domain

import (
	"context"
	"io"

	"namecensus/internal/adapters/export"
	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/normalize"
	comparisondom "namecensus/internal/services/comparison/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Download is a rendered-on-demand export and its attachment name
type Download struct {
	Filename string
	Format   export.Format
	Table    export.Table
}

// Query carries the download options shared by every export route
type Query struct {
	Format    string `json:"format" query:"format" default:"csv" validate:"oneof=csv xlsx json pdf print CSV XLSX JSON PDF" example:"csv"`
	Mode      string `json:"mode" query:"mode" default:"exact" validate:"oneof=exact normalized" example:"exact"`
	Top80     string `json:"top80" query:"top80" validate:"omitempty,oneof=a b both" example:"both"`
	Top80Only bool   `json:"top80_only" query:"top80_only" example:"false"`
}

// ServicePort builds downloads over stored records and results
type ServicePort interface {
	Records(ctx context.Context, key string, t periodsdom.TableType, f export.Format) (Download, error)
	Frequencies(ctx context.Context, key string, mode normalize.Mode, top80Only bool, f export.Format) (Download, error)
	Duplicates(ctx context.Context, key string, pair duplicates.Pair, f export.Format) (Download, error)
	Common(ctx context.Context, a, b, top80 string, f export.Format) (Download, error)
	Unique(ctx context.Context, a, b string, side comparisondom.Side, top80Only bool, f export.Format) (Download, error)
	Render(w io.Writer, d Download) error
}
