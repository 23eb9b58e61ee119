// Package compare diffs two periods' normalized name universes
package compare

import (
	"cmp"
	"context"
	"slices"

	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
	perr "namecensus/internal/platform/errors"

	"golang.org/x/sync/errgroup"
)

// Period is one side of a comparison
// Table must be the Normalized name table of Set
type Period struct {
	Key   string
	Set   *records.Set
	Table *frequency.Table
}

// Entry is one name present in both periods
type Entry struct {
	Name           string `json:"name"`
	FrequencyA     int    `json:"frequency_a"`
	FrequencyB     int    `json:"frequency_b"`
	TotalFrequency int    `json:"total_frequency"`
	InTop80A       bool   `json:"in_top80_a"`
	InTop80B       bool   `json:"in_top80_b"`
	RankA          *int   `json:"rank_a"`
	RankB          *int   `json:"rank_b"`
}

// InBothTop80 reports whether the name is in both coverage sets
func (e Entry) InBothTop80() bool { return e.InTop80A && e.InTop80B }

// UniqueEntry is one record whose name never occurs in the other period
type UniqueEntry struct {
	records.Record
	NormalizedName string `json:"normalized_name"`
	InTop80        bool   `json:"in_top80"`
}

// Summary holds the scalar aggregates of a comparison
// percentages are nil when their denominator is zero
type Summary struct {
	PeriodA string `json:"period_a"`
	PeriodB string `json:"period_b"`

	TotalRecordsA int `json:"total_records_a"`
	TotalRecordsB int `json:"total_records_b"`
	UniqueNamesA  int `json:"unique_names_a"`
	UniqueNamesB  int `json:"unique_names_b"`
	Top80CountA   int `json:"top80_count_a"`
	Top80CountB   int `json:"top80_count_b"`

	CommonNamesCount  int      `json:"common_names_count"`
	CommonNamesPctOfA *float64 `json:"common_names_pct_of_a"`
	CommonNamesPctOfB *float64 `json:"common_names_pct_of_b"`

	UniqueToACount   int `json:"unique_to_a_count"`
	UniqueToBCount   int `json:"unique_to_b_count"`
	UniqueToARecords int `json:"unique_to_a_records"`
	UniqueToBRecords int `json:"unique_to_b_records"`
	UniqueToATop80   int `json:"unique_to_a_top80"`
	UniqueToBTop80   int `json:"unique_to_b_top80"`

	Top80AInB    int      `json:"top80_a_in_b"`
	Top80AInBPct *float64 `json:"top80_a_in_b_pct"`
	Top80BInA    int      `json:"top80_b_in_a"`
	Top80BInAPct *float64 `json:"top80_b_in_a_pct"`

	BothTop80Count int      `json:"both_top80_count"`
	BothTop80Pct   *float64 `json:"both_top80_pct_of_common"`
}

// Result is the complete output of Compare
type Result struct {
	Common  []Entry
	UniqueA []UniqueEntry
	UniqueB []UniqueEntry
	Summary Summary
}

// Compare computes common names, unique records per side and the summary
// both periods must carry a Normalized name table
func Compare(ctx context.Context, a, b Period) (*Result, error) {
	if err := a.check("a"); err != nil {
		return nil, err
	}
	if err := b.check("b"); err != nil {
		return nil, err
	}

	res := &Result{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Common = common(a.Table, b.Table)
		return gctx.Err()
	})
	g.Go(func() (err error) {
		res.UniqueA, err = unique(gctx, a, b.Table)
		return err
	})
	g.Go(func() (err error) {
		res.UniqueB, err = unique(gctx, b, a.Table)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.Summary = summarize(a, b, res)
	return res, nil
}

func (p Period) check(side string) error {
	if p.Table == nil {
		return perr.FailedPreconditionf("period %s %q has no name frequency table", side, p.Key)
	}
	if p.Set == nil {
		return perr.FailedPreconditionf("period %s %q has no record set", side, p.Key)
	}
	if p.Table.Mode != normalize.Normalized || p.Table.Field != records.FieldName {
		return perr.InvalidArgf("period %s %q: comparison needs a normalized name table, got %s %s",
			side, p.Key, p.Table.Mode, p.Table.Field)
	}
	return nil
}

// common walks the smaller table and probes the larger
func common(a, b *frequency.Table) []Entry {
	small, large, swapped := a, b, false
	if b.Len() < a.Len() {
		small, large, swapped = b, a, true
	}

	out := make([]Entry, 0)
	for _, es := range small.Entries {
		el, ok := large.Lookup(es.Key)
		if !ok {
			continue
		}
		ea := es
		eb := el
		if swapped {
			ea, eb = el, es
		}
		e := Entry{
			Name:           es.Key,
			FrequencyA:     ea.Count,
			FrequencyB:     eb.Count,
			TotalFrequency: ea.Count + eb.Count,
		}
		if r, ok := a.CoverageRank(es.Key); ok {
			e.InTop80A, e.RankA = true, &r
		}
		if r, ok := b.CoverageRank(es.Key); ok {
			e.InTop80B, e.RankB = true, &r
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(x, y Entry) int {
		if c := cmp.Compare(y.TotalFrequency, x.TotalFrequency); c != 0 {
			return c
		}
		return cmp.Compare(x.Name, y.Name)
	})
	return out
}

const checkEvery = 1 << 14

// unique expands names of p missing from other into p's records in position order
func unique(ctx context.Context, p Period, other *frequency.Table) ([]UniqueEntry, error) {
	out := make([]UniqueEntry, 0)
	for i, r := range p.Set.All() {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		k, ok := r.Key(records.FieldName, normalize.Normalized)
		if !ok || other.Has(k) {
			continue
		}
		out = append(out, UniqueEntry{Record: r, NormalizedName: k, InTop80: p.Table.InCoverage(k)})
	}
	return out, nil
}

func summarize(a, b Period, res *Result) Summary {
	s := Summary{
		PeriodA:       a.Key,
		PeriodB:       b.Key,
		TotalRecordsA: a.Table.Total,
		TotalRecordsB: b.Table.Total,
		UniqueNamesA:  a.Table.Len(),
		UniqueNamesB:  b.Table.Len(),
		Top80CountA:   a.Table.CoverageLen(),
		Top80CountB:   b.Table.CoverageLen(),

		CommonNamesCount: len(res.Common),
		UniqueToARecords: len(res.UniqueA),
		UniqueToBRecords: len(res.UniqueB),
	}
	s.CommonNamesPctOfA = frequency.Percent(s.CommonNamesCount, s.UniqueNamesA)
	s.CommonNamesPctOfB = frequency.Percent(s.CommonNamesCount, s.UniqueNamesB)

	s.UniqueToACount, s.UniqueToATop80 = distinctUnique(res.UniqueA)
	s.UniqueToBCount, s.UniqueToBTop80 = distinctUnique(res.UniqueB)

	for _, e := range a.Table.Coverage() {
		if b.Table.Has(e.Key) {
			s.Top80AInB++
		}
	}
	for _, e := range b.Table.Coverage() {
		if a.Table.Has(e.Key) {
			s.Top80BInA++
		}
	}
	s.Top80AInBPct = frequency.Percent(s.Top80AInB, s.Top80CountA)
	s.Top80BInAPct = frequency.Percent(s.Top80BInA, s.Top80CountB)

	// names in both coverage sets are necessarily common
	for _, e := range res.Common {
		if e.InBothTop80() {
			s.BothTop80Count++
		}
	}
	s.BothTop80Pct = frequency.Percent(s.BothTop80Count, s.CommonNamesCount)
	return s
}

func distinctUnique(es []UniqueEntry) (names, top80 int) {
	seen := make(map[string]struct{})
	for _, e := range es {
		if _, ok := seen[e.NormalizedName]; ok {
			continue
		}
		seen[e.NormalizedName] = struct{}{}
		names++
		if e.InTop80 {
			top80++
		}
	}
	return names, top80
}
