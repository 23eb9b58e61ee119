// Package duplicates groups a record set by fixed attribute pairs and keeps groups of two or more
package duplicates

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"

	"golang.org/x/sync/errgroup"
)

// Pair is one ordered two attribute duplicate key
type Pair struct {
	A, B records.Field
}

// the six pairs in reporting order
var (
	NameYear  = Pair{records.FieldName, records.FieldYear}
	NameMonth = Pair{records.FieldName, records.FieldMonth}
	NameDay   = Pair{records.FieldName, records.FieldDay}
	YearMonth = Pair{records.FieldYear, records.FieldMonth}
	YearDay   = Pair{records.FieldYear, records.FieldDay}
	MonthDay  = Pair{records.FieldMonth, records.FieldDay}
)

// Pairs returns the six pairs in reporting order
func Pairs() []Pair {
	return []Pair{NameYear, NameMonth, NameDay, YearMonth, YearDay, MonthDay}
}

// String returns the wire name of the pair, e.g. name_year
func (p Pair) String() string { return p.A.String() + "_" + p.B.String() }

// ParsePair maps a wire name back to one of the six pairs
func ParsePair(s string) (Pair, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range Pairs() {
		if p.String() == s {
			return p, true
		}
	}
	return Pair{}, false
}

// Group is a set of two or more records sharing both key values
type Group struct {
	Pair    Pair             `json:"-"`
	ValueA  string           `json:"value_a"`
	ValueB  string           `json:"value_b"`
	Members []records.Record `json:"members"`
}

// Size returns the number of members
func (g Group) Size() int { return len(g.Members) }

// Result holds the groups of every pair plus the union count
type Result struct {
	Mode   normalize.Mode
	Groups map[Pair][]Group
	// Union is the number of distinct records found in at least one group
	Union int
}

// RecordsIn returns the number of records implicated by the groups of p
// groups of one pair are disjoint so this is a plain sum
func (r *Result) RecordsIn(p Pair) int {
	n := 0
	for _, g := range r.Groups[p] {
		n += g.Size()
	}
	return n
}

// Detect runs all six pairs over set concurrently and computes the union count
// names are keyed under mode
func Detect(ctx context.Context, set *records.Set, mode normalize.Mode) (*Result, error) {
	pairs := Pairs()
	out := make([][]Group, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pairs {
		g.Go(func() error {
			groups, err := detectPair(gctx, set, p, mode)
			if err != nil {
				return err
			}
			out[i] = groups
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Mode: mode, Groups: make(map[Pair][]Group, len(pairs))}
	seen := make(map[string]struct{})
	for i, p := range pairs {
		res.Groups[p] = out[i]
		for _, grp := range out[i] {
			for _, m := range grp.Members {
				seen[m.ID] = struct{}{}
			}
		}
	}
	res.Union = len(seen)
	return res, nil
}

// DetectPair groups set by a single pair
func DetectPair(set *records.Set, p Pair, mode normalize.Mode) []Group {
	groups, _ := detectPair(context.Background(), set, p, mode)
	return groups
}

type pairKey struct{ a, b string }

// ctx is checked every checkEvery records so long scans stay abortable
const checkEvery = 1 << 14

func detectPair(ctx context.Context, set *records.Set, p Pair, mode normalize.Mode) ([]Group, error) {
	buckets := make(map[pairKey][]records.Record)
	for i, r := range set.All() {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		a, okA := r.Key(p.A, mode)
		b, okB := r.Key(p.B, mode)
		if !okA || !okB {
			continue
		}
		k := pairKey{a, b}
		buckets[k] = append(buckets[k], r)
	}

	groups := make([]Group, 0)
	for k, members := range buckets {
		if len(members) < 2 {
			continue
		}
		// set order is position order so members are already sorted
		groups = append(groups, Group{Pair: p, ValueA: k.a, ValueB: k.b, Members: members})
	}
	slices.SortFunc(groups, func(x, y Group) int {
		if c := cmp.Compare(y.Size(), x.Size()); c != 0 {
			return c
		}
		if c := records.CompareValues(x.ValueA, y.ValueA); c != 0 {
			return c
		}
		return records.CompareValues(x.ValueB, y.ValueB)
	})
	return groups, nil
}
