// Package domain holds DTOs for analytics http and service contracts
package domain

import (
	"time"

	"namecensus/internal/core/engine"
	"namecensus/internal/modkit/repokit"
)

// Summary is the stored headline of one analysis run
type Summary struct {
	Period string `json:"period"`
	engine.Summary
	UniqueNamesNormalized  int            `json:"unique_names_normalized"`
	DuplicateRecordsByPair map[string]int `json:"duplicate_records_by_pair"`
	DuplicateGroupsByPair  map[string]int `json:"duplicate_groups_by_pair"`
	Top80Names             []string       `json:"top80_names"`
	Top80RecordsPct        *float64       `json:"top80_records_pct"`
	YearDistribution       []Bucket       `json:"year_distribution"`
	MonthDistribution      []Bucket       `json:"month_distribution"`
	DuplicateMode          string         `json:"duplicate_mode"`
	ComputedAt             time.Time      `json:"computed_at"`
	ElapsedMS              float64        `json:"elapsed_ms"`
}

// Bucket is one value of a distribution
type Bucket struct {
	Value      string   `json:"value"`
	Count      int      `json:"count"`
	Percentage *float64 `json:"percentage"`
}

// FrequencyRow is one ranked name
type FrequencyRow struct {
	Rank                 int      `json:"rank"`
	Name                 string   `json:"name"`
	Count                int      `json:"count"`
	PercentageOfTotal    *float64 `json:"percentage_of_total"`
	CumulativeCount      int      `json:"cumulative_count"`
	CumulativePercentage *float64 `json:"cumulative_percentage"`
	InTop80              bool     `json:"in_top80"`
}

// FrequencyPage is a page of ranked names
type FrequencyPage = repokit.Page[FrequencyRow]

// FrequencyQuery selects the ranking and window of a frequency listing
type FrequencyQuery struct {
	Mode      string `json:"mode" query:"mode" default:"exact" validate:"oneof=exact normalized" example:"exact"`
	Page      int    `json:"page" query:"page" default:"1" validate:"min=1" example:"1"`
	PerPage   int    `json:"per_page" query:"per_page" default:"100" validate:"min=1,max=1000" example:"100"`
	Top80Only bool   `json:"top80_only" query:"top80_only" example:"false"`
}

// Member is one record of a duplicate group
type Member struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Name     string `json:"firstname"`
	Day      string `json:"birthday"`
	Month    string `json:"birthmonth"`
	Year     string `json:"birthyear"`
}

// DuplicateGroup is a set of records sharing both values of a pair
type DuplicateGroup struct {
	Pair    string   `json:"pair"`
	ValueA  string   `json:"value_a"`
	ValueB  string   `json:"value_b"`
	Size    int      `json:"size"`
	Members []Member `json:"members"`
}

// GroupPage is a page of duplicate groups
type GroupPage = repokit.Page[DuplicateGroup]

// GroupQuery is the window of a duplicate listing
type GroupQuery struct {
	Page    int `json:"page" query:"page" default:"1" validate:"min=1" example:"1"`
	PerPage int `json:"per_page" query:"per_page" default:"50" validate:"min=1,max=500" example:"50"`
}
