// Package domain holds DTOs for period http and service contracts
package domain

import (
	"strings"
	"time"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/core/cleaning"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
)

// TableType selects which rows of a period a listing returns
type TableType string

const (
	// TableOriginal is every source row with its raw cells
	TableOriginal TableType = "original"
	// TableIncluded is the rows that passed validation, cleaned
	TableIncluded TableType = "included"
	// TableExcluded is the rows that failed validation with their reasons
	TableExcluded TableType = "excluded"
)

// TableTypes lists the table types in display order
func TableTypes() []TableType { return []TableType{TableOriginal, TableIncluded, TableExcluded} }

// ParseTableType maps a wire name to a TableType
func ParseTableType(s string) (TableType, error) {
	switch t := TableType(strings.ToLower(strings.TrimSpace(s))); t {
	case TableOriginal, TableIncluded, TableExcluded:
		return t, nil
	default:
		return "", perr.InvalidArgf("unknown table type %q (want original, included or excluded)", s)
	}
}

// Period is one catalog entry
type Period struct {
	Key        string     `yaml:"key" json:"key" validate:"required,max=64,excludesall=/?#%" example:"2023"`
	Label      string     `yaml:"label" json:"label" validate:"required,max=200" example:"Class of 2023"`
	Identifier string     `yaml:"identifier,omitempty" json:"identifier,omitempty" validate:"omitempty,max=200" example:"sheet_2023"`
	Source     ingest.Ref `yaml:"source" json:"source"`
}

// PeriodView is a catalog entry plus what the store knows about it
type PeriodView struct {
	Key           string     `json:"key"`
	Label         string     `json:"label"`
	SourceKind    string     `json:"source_kind"`
	Ingested      bool       `json:"ingested"`
	TotalRows     int        `json:"total_rows"`
	IncludedCount int        `json:"included_count"`
	ExcludedCount int        `json:"excluded_count"`
	IngestedAt    *time.Time `json:"ingested_at,omitempty"`
	AnalyzedAt    *time.Time `json:"analyzed_at,omitempty"`
}

// IngestResult reports the outcome of one ingest run
type IngestResult struct {
	Period string `json:"period"`
	cleaning.Stats
	Archived  bool    `json:"archived"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// TableStatus is the existence and size of one table type
type TableStatus struct {
	Exists bool `json:"exists"`
	Count  int  `json:"count"`
}

// Status is the check_tables answer for a period
type Status struct {
	Period string                    `json:"period"`
	Tables map[TableType]TableStatus `json:"tables"`
}

// RecordsQuery is the paging and ordering of a records listing
type RecordsQuery struct {
	Page      int    `json:"page" query:"page" default:"1" validate:"min=1" example:"1"`
	PerPage   int    `json:"per_page" query:"per_page" default:"100" validate:"min=1,max=1000" example:"100"`
	SortBy    string `json:"sort_by" query:"sort_by" default:"position" validate:"omitempty,oneof=position name day month year exclusion_reason" example:"position"`
	SortOrder string `json:"sort_order" query:"sort_order" default:"asc" validate:"omitempty,oneof=asc desc ASC DESC" example:"asc"`
}

// RecordRow is one stored row as a listing returns it
// Reason is only set for excluded rows
type RecordRow struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Name     string `json:"firstname"`
	Day      string `json:"birthday"`
	Month    string `json:"birthmonth"`
	Year     string `json:"birthyear"`
	Reason   string `json:"exclusion_reason,omitempty"`
}

// RecordPage is a page of stored rows
type RecordPage = repokit.Page[RecordRow]
