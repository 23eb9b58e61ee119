// Package frequency builds name frequency rankings and the 80 percent coverage set
package frequency

import (
	"cmp"
	"math"
	"slices"

	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
)

// coverage share expressed as a ratio of integers to keep the cut exact
const (
	coverageNum = 4
	coverageDen = 5
)

// CoverageThreshold is the cumulative share bounding the coverage set
const CoverageThreshold = float64(coverageNum) / float64(coverageDen)

// Entry is one ranked key of a frequency table
type Entry struct {
	Key                string  `json:"name"`
	Count              int     `json:"count"`
	Rank               int     `json:"rank"`
	CumulativeCount    int     `json:"cumulative_count"`
	CumulativeFraction float64 `json:"cumulative_fraction"`
}

// Table is the full ranking for one period, field and mode
// it is built once by Analyze and never mutated afterwards
type Table struct {
	Mode  normalize.Mode
	Field records.Field
	// Total is the number of records carrying a non empty key
	Total   int
	Entries []Entry

	covered int
	byKey   map[string]int
}

// Analyze counts set by field under mode and ranks the result
// records without a key are skipped for this aggregation only
func Analyze(set *records.Set, mode normalize.Mode, field records.Field) *Table {
	counts := make(map[string]int)
	total := 0
	for _, r := range set.All() {
		k, ok := r.Key(field, mode)
		if !ok {
			continue
		}
		counts[k]++
		total++
	}
	return fromCounts(counts, total, mode, field)
}

// FromCounts ranks a precomputed key to count map
func FromCounts(counts map[string]int, mode normalize.Mode, field records.Field) *Table {
	total := 0
	for _, c := range counts {
		total += c
	}
	return fromCounts(counts, total, mode, field)
}

func fromCounts(counts map[string]int, total int, mode normalize.Mode, field records.Field) *Table {
	entries := make([]Entry, 0, len(counts))
	for k, c := range counts {
		entries = append(entries, Entry{Key: k, Count: c})
	}
	// count desc then key asc in byte order
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})

	t := &Table{
		Mode:    mode,
		Field:   field,
		Total:   total,
		Entries: entries,
		byKey:   make(map[string]int, len(entries)),
	}

	cum := 0
	stopped := false
	for i := range entries {
		cum += entries[i].Count
		entries[i].Rank = i + 1
		entries[i].CumulativeCount = cum
		entries[i].CumulativeFraction = float64(cum) / float64(total)
		t.byKey[entries[i].Key] = i

		if !stopped && cum*coverageDen <= total*coverageNum {
			t.covered = i + 1
		} else {
			stopped = true
		}
	}
	// a leading key that alone passes the threshold still forms the set
	if t.covered == 0 && len(entries) > 0 {
		t.covered = 1
	}
	return t
}

// Len returns the number of distinct keys
func (t *Table) Len() int { return len(t.Entries) }

// Coverage returns the coverage set as a prefix of Entries
func (t *Table) Coverage() []Entry { return t.Entries[:t.covered:t.covered] }

// CoverageLen returns the number of keys in the coverage set
func (t *Table) CoverageLen() int { return t.covered }

// CoveredRecords returns how many records the coverage set accounts for
func (t *Table) CoveredRecords() int {
	if t.covered == 0 {
		return 0
	}
	return t.Entries[t.covered-1].CumulativeCount
}

// Lookup returns the entry for key
func (t *Table) Lookup(key string) (Entry, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return t.Entries[i], true
}

// Has reports whether key occurs at least once
func (t *Table) Has(key string) bool {
	_, ok := t.byKey[key]
	return ok
}

// CoverageRank returns the rank of key when it belongs to the coverage set
func (t *Table) CoverageRank(key string) (int, bool) {
	i, ok := t.byKey[key]
	if !ok || i >= t.covered {
		return 0, false
	}
	return t.Entries[i].Rank, true
}

// InCoverage reports whether key belongs to the coverage set
func (t *Table) InCoverage(key string) bool {
	_, ok := t.CoverageRank(key)
	return ok
}

// PercentOfTotal returns the share of e in the table as a percentage rounded to 2 places
func (t *Table) PercentOfTotal(e Entry) *float64 { return Percent(e.Count, t.Total) }

// CumulativePercent returns the cumulative share of e as a percentage rounded to 2 places
func (t *Table) CumulativePercent(e Entry) *float64 { return Percent(e.CumulativeCount, t.Total) }

// Percent returns num/den*100 rounded to 2 places, nil when den is zero
func Percent(num, den int) *float64 {
	if den == 0 {
		return nil
	}
	v := Round2(float64(num) / float64(den) * 100)
	return &v
}

// Round2 rounds half away from zero to 2 decimal places
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
