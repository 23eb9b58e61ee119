// Package domain holds DTOs for comparison http and service contracts
package domain

import (
	"strings"
	"time"

	"namecensus/internal/core/compare"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
)

// RunRequest names the ordered pair of periods to compare
type RunRequest struct {
	PeriodA string `json:"period_a" validate:"required,max=64" example:"2022"`
	PeriodB string `json:"period_b" validate:"required,max=64" example:"2023"`
}

// Summary is the stored headline of one comparison
type Summary struct {
	RunID string `json:"run_id"`
	compare.Summary
	ComputedAt time.Time `json:"computed_at"`
	ElapsedMS  float64   `json:"elapsed_ms"`
}

// CommonRow is one name present in both periods
type CommonRow = compare.Entry

// CommonPage is a page of common names
type CommonPage = repokit.Page[CommonRow]

// CommonQuery filters and windows the common name listing
// Top80 keeps names inside the coverage set of a, b or both
type CommonQuery struct {
	Top80   string `json:"top80" query:"top80" validate:"omitempty,oneof=a b both" example:"both"`
	Page    int    `json:"page" query:"page" default:"1" validate:"min=1" example:"1"`
	PerPage int    `json:"per_page" query:"per_page" default:"100" validate:"min=1,max=1000" example:"100"`
}

// UniqueRow is one record whose name never occurs in the other period
type UniqueRow struct {
	ID             string `json:"id"`
	Position       int    `json:"position"`
	Name           string `json:"firstname"`
	NormalizedName string `json:"normalized_name"`
	Day            string `json:"birthday"`
	Month          string `json:"birthmonth"`
	Year           string `json:"birthyear"`
	InTop80        bool   `json:"in_top80"`
}

// UniquePage is a page of unique records
type UniquePage = repokit.Page[UniqueRow]

// UniqueQuery filters and windows a unique record listing
type UniqueQuery struct {
	Top80Only bool `json:"top80_only" query:"top80_only" example:"false"`
	Page      int  `json:"page" query:"page" default:"1" validate:"min=1" example:"1"`
	PerPage   int  `json:"per_page" query:"per_page" default:"100" validate:"min=1,max=1000" example:"100"`
}

// Side selects one period of a comparison
type Side string

const (
	// SideA is the first period of the pair
	SideA Side = "a"
	// SideB is the second period of the pair
	SideB Side = "b"
)

// ParseSide maps a or b case insensitively
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideA:
		return SideA, nil
	case SideB:
		return SideB, nil
	default:
		return "", perr.WithField(perr.InvalidArgf("unknown side %q (want a or b)", s), "side")
	}
}
