// Package records holds the person record model consumed by the analysis engine
package records

import (
	"cmp"
	"iter"
	"slices"
	"strconv"

	"namecensus/internal/core/normalize"
)

// Status classifies a row after validation
type Status uint8

const (
	// StatusUnknown is the zero value and never produced by validation
	StatusUnknown Status = iota
	// StatusIncluded marks a row eligible for analytics
	StatusIncluded
	// StatusExcluded marks a row that failed at least one rule
	StatusExcluded
)

// String returns the stored name of the status
func (s Status) String() string {
	switch s {
	case StatusIncluded:
		return "included"
	case StatusExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// ParseStatus maps a stored name back to a Status
func ParseStatus(s string) Status {
	switch s {
	case "included":
		return StatusIncluded
	case "excluded":
		return StatusExcluded
	default:
		return StatusUnknown
	}
}

// Field names one attribute of a Record
type Field uint8

const (
	// FieldName is the first name
	FieldName Field = iota
	// FieldDay is the birth day
	FieldDay
	// FieldMonth is the birth month
	FieldMonth
	// FieldYear is the birth year
	FieldYear
)

// String returns the column style name of the field
func (f Field) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldDay:
		return "day"
	case FieldMonth:
		return "month"
	case FieldYear:
		return "year"
	default:
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
}

// Record is one row of a period
// Day, Month and Year are canonical integer text on included rows, empty when absent
type Record struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Day      string `json:"day"`
	Month    string `json:"month"`
	Year     string `json:"year"`
	Status   Status `json:"-"`
	Reason   string `json:"exclusion_reason,omitempty"`
}

// Value returns the raw value of f
func (r Record) Value(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldDay:
		return r.Day
	case FieldMonth:
		return r.Month
	case FieldYear:
		return r.Year
	default:
		return ""
	}
}

// Key returns the grouping key of f; the name goes through m, date parts are used as is
// ok is false when the attribute is absent
func (r Record) Key(f Field, m normalize.Mode) (string, bool) {
	v := r.Value(f)
	if f == FieldName {
		v = normalize.Key(v, m)
	}
	return v, v != ""
}

// Set is the immutable collection of Included records for one period ordered by Position
type Set struct {
	period string
	recs   []Record
}

// NewSet copies the included records out of rs and orders them by Position
// excluded and unknown rows are dropped
func NewSet(period string, rs []Record) *Set {
	out := make([]Record, 0, len(rs))
	for _, r := range rs {
		if r.Status == StatusIncluded {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b Record) int { return cmp.Compare(a.Position, b.Position) })
	return &Set{period: period, recs: out}
}

// Period returns the period key the set belongs to
func (s *Set) Period() string {
	if s == nil {
		return ""
	}
	return s.period
}

// Len returns the number of records
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.recs)
}

// At returns the i-th record in position order
func (s *Set) At(i int) Record { return s.recs[i] }

// All iterates records in position order
func (s *Set) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		if s == nil {
			return
		}
		for i, r := range s.recs {
			if !yield(i, r) {
				return
			}
		}
	}
}

// CompareValues orders two attribute values, numerically when both are integers
func CompareValues(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}
