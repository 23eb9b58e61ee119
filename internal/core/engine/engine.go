// Package engine runs the per period analysis fan out and the cross period barrier
package engine

import (
	"context"

	"namecensus/internal/core/compare"
	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
	perr "namecensus/internal/platform/errors"

	"golang.org/x/sync/errgroup"
)

// Options tunes a run
type Options struct {
	// DuplicateMode keys names during duplicate detection
	DuplicateMode normalize.Mode
}

// DefaultOptions groups duplicates on normalized names
func DefaultOptions() Options { return Options{DuplicateMode: normalize.Normalized} }

// Analysis is the complete single period output
type Analysis struct {
	Period string
	Set    *records.Set

	// Exact is the per period name ranking used for the period's own reporting
	Exact *frequency.Table
	// Normalized is the name ranking used for cross period work
	Normalized *frequency.Table

	Years  *frequency.Table
	Months *frequency.Table

	Duplicates *duplicates.Result
	Summary    Summary
}

// Summary holds distinct value counts of one period
type Summary struct {
	TotalRecords     int `json:"total_records"`
	UniqueNames      int `json:"unique_names"`
	UniqueBirthdays  int `json:"unique_birthdays"`
	UniqueNameYear   int `json:"unique_name_year"`
	UniqueNameMonth  int `json:"unique_name_month"`
	UniqueNameDay    int `json:"unique_name_day"`
	Top80Count       int `json:"top80_count"`
	Top80Records     int `json:"top80_records"`
	DuplicateRecords int `json:"duplicate_records"`
}

// Analyze computes every single period artifact of set
// the subtasks share only the read only set and write disjoint fields
func Analyze(ctx context.Context, set *records.Set, opt Options) (*Analysis, error) {
	if set == nil {
		return nil, perr.FailedPreconditionf("no record set to analyze")
	}
	a := &Analysis{Period: set.Period(), Set: set}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Exact = frequency.Analyze(set, normalize.Exact, records.FieldName)
		return gctx.Err()
	})
	g.Go(func() error {
		a.Normalized = frequency.Analyze(set, normalize.Normalized, records.FieldName)
		return gctx.Err()
	})
	g.Go(func() error {
		a.Years = frequency.Analyze(set, normalize.Exact, records.FieldYear)
		a.Months = frequency.Analyze(set, normalize.Exact, records.FieldMonth)
		return gctx.Err()
	})
	g.Go(func() error {
		a.Summary = distinct(set)
		return gctx.Err()
	})
	g.Go(func() (err error) {
		a.Duplicates, err = duplicates.Detect(gctx, set, opt.DuplicateMode)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.Summary.UniqueNames = a.Exact.Len()
	a.Summary.Top80Count = a.Exact.CoverageLen()
	a.Summary.Top80Records = a.Exact.CoveredRecords()
	a.Summary.DuplicateRecords = a.Duplicates.Union
	return a, nil
}

// Compare runs the comparator over two finished analyses
// a nil analysis means the period was never analyzed
func Compare(ctx context.Context, a, b *Analysis) (*compare.Result, error) {
	if a == nil || b == nil {
		return nil, perr.FailedPreconditionf("both periods must be analyzed before comparing")
	}
	return compare.Compare(ctx,
		compare.Period{Key: a.Period, Set: a.Set, Table: a.Normalized},
		compare.Period{Key: b.Period, Set: b.Set, Table: b.Normalized},
	)
}

type triple struct{ d, m, y string }
type pairKey struct{ a, b string }

func distinct(set *records.Set) Summary {
	var (
		birthdays = make(map[triple]struct{})
		nameYear  = make(map[pairKey]struct{})
		nameMonth = make(map[pairKey]struct{})
		nameDay   = make(map[pairKey]struct{})
	)
	s := Summary{TotalRecords: set.Len()}
	for _, r := range set.All() {
		if r.Day != "" && r.Month != "" && r.Year != "" {
			birthdays[triple{r.Day, r.Month, r.Year}] = struct{}{}
		}
		if r.Name == "" {
			continue
		}
		if r.Year != "" {
			nameYear[pairKey{r.Name, r.Year}] = struct{}{}
		}
		if r.Month != "" {
			nameMonth[pairKey{r.Name, r.Month}] = struct{}{}
		}
		if r.Day != "" {
			nameDay[pairKey{r.Name, r.Day}] = struct{}{}
		}
	}
	s.UniqueBirthdays = len(birthdays)
	s.UniqueNameYear = len(nameYear)
	s.UniqueNameMonth = len(nameMonth)
	s.UniqueNameDay = len(nameDay)
	return s
}
