package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/engine"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
	"namecensus/internal/services/analytics/domain"
	"namecensus/internal/services/analytics/repo"
	periodsdom "namecensus/internal/services/periods/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDB struct{ txs int }

func (f *fakeDB) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeDB) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeDB) QueryRow(context.Context, string, ...any) store.Row             { return nil }
func (f *fakeDB) Tx(_ context.Context, fn func(store.RowQuerier) error) error {
	f.txs++
	return fn(f)
}

type fakeRepo struct {
	freqs    []repo.RowFrequency
	buckets  []repo.RowBucket
	groups   []repo.RowGroup
	summary  map[string][]byte
	clears   int
	writeErr error
}

func newFakeRepo() *fakeRepo { return &fakeRepo{summary: map[string][]byte{}} }

func (f *fakeRepo) Clear(_ context.Context, p string) error {
	f.clears++
	f.freqs, f.buckets, f.groups = nil, nil, nil
	delete(f.summary, p)
	return nil
}

func (f *fakeRepo) WriteFrequencies(_ context.Context, _ string, rows []repo.RowFrequency) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.freqs = append(f.freqs, rows...)
	return nil
}

func (f *fakeRepo) WriteDistribution(_ context.Context, _ string, rows []repo.RowBucket) error {
	f.buckets = append(f.buckets, rows...)
	return nil
}

func (f *fakeRepo) WriteGroups(_ context.Context, _ string, rows []repo.RowGroup) error {
	f.groups = append(f.groups, rows...)
	return nil
}

func (f *fakeRepo) WriteSummary(_ context.Context, p string, b []byte) error {
	f.summary[p] = b
	return nil
}

func (f *fakeRepo) Summary(_ context.Context, p string) ([]byte, bool, error) {
	b, ok := f.summary[p]
	return b, ok, nil
}

func (f *fakeRepo) Counts(_ context.Context, _ string, mode string) (map[string]int, error) {
	out := map[string]int{}
	for _, r := range f.freqs {
		if r.Mode == mode {
			out[r.Name] = r.Count
		}
	}
	return out, nil
}

func (f *fakeRepo) NameTotal(_ context.Context, _ string, mode string) (int, error) {
	n := 0
	for _, r := range f.freqs {
		if r.Mode == mode {
			n += r.Count
		}
	}
	return n, nil
}

func (f *fakeRepo) Frequencies(_ context.Context, _ string, mode string, top80Only bool, offset, limit int) ([]repo.RowFrequency, int, error) {
	var all []repo.RowFrequency
	for _, r := range f.freqs {
		if r.Mode == mode && (!top80Only || r.InTop80) {
			all = append(all, r)
		}
	}
	return window(all, offset, limit), len(all), nil
}

func (f *fakeRepo) Groups(_ context.Context, _ string, pair string, offset, limit int) ([]repo.RowGroup, int, error) {
	var all []repo.RowGroup
	for _, g := range f.groups {
		if g.Pair == pair {
			all = append(all, g)
		}
	}
	return window(all, offset, limit), len(all), nil
}

func window[T any](all []T, offset, limit int) []T {
	if limit == 0 {
		return all
	}
	if offset >= len(all) {
		return nil
	}
	return all[offset:min(offset+limit, len(all))]
}

type fakePeriods struct {
	recs     map[string][]records.Record
	analyzed []string
}

func (f *fakePeriods) Describe(key string) (periodsdom.Period, error) {
	if _, ok := f.recs[key]; !ok {
		return periodsdom.Period{}, perr.NotFoundf("period %s not found", key)
	}
	return periodsdom.Period{Key: key, Label: "Period " + key}, nil
}

func (f *fakePeriods) LoadSet(_ context.Context, key string) (*records.Set, error) {
	rs := f.recs[key]
	if len(rs) == 0 {
		return nil, perr.FailedPreconditionf("period %s has not been ingested", key)
	}
	return records.NewSet(key, rs), nil
}

func (f *fakePeriods) MarkAnalyzed(_ context.Context, key string) error {
	f.analyzed = append(f.analyzed, key)
	return nil
}

func (f *fakePeriods) AllRecords(context.Context, string, periodsdom.TableType) ([]periodsdom.RecordRow, error) {
	return nil, nil
}

func rec(pos int, name, d, m, y string) records.Record {
	return records.Record{
		ID: fmt.Sprintf("r%d", pos), Position: pos, Name: name, Day: d, Month: m, Year: y, Status: records.StatusIncluded,
	}
}

func fixture() *fakePeriods {
	return &fakePeriods{recs: map[string][]records.Record{
		"2023": {
			rec(1, "Anna", "1", "1", "1990"),
			rec(2, "Anna", "1", "1", "1990"),
			rec(3, "anna", "2", "3", "1991"),
			rec(4, "Ben", "5", "6", "1985"),
			rec(5, "Ben", "5", "7", "1985"),
			rec(6, "Carl", "9", "9", "2000"),
		},
		"empty": nil,
	}}
}

func newSvc(t *testing.T) (*Svc, *fakeRepo, *fakePeriods, *fakeDB) {
	t.Helper()
	r := newFakeRepo()
	p := fixture()
	db := &fakeDB{}
	s := New(db, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r }), p, engine.DefaultOptions())
	s.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return s, r, p, db
}

func TestRun_StoresEveryArtifact(t *testing.T) {
	s, r, p, db := newSvc(t)
	sum, err := s.Run(context.Background(), "2023")
	require.NoError(t, err)

	assert.Equal(t, "2023", sum.Period)
	assert.Equal(t, 6, sum.TotalRecords)
	assert.Equal(t, 4, sum.UniqueNames)
	assert.Equal(t, 3, sum.UniqueNamesNormalized)
	assert.Equal(t, []string{"Anna", "Ben"}, sum.Top80Names)
	assert.Equal(t, 4, sum.Top80Records)
	require.NotNil(t, sum.Top80RecordsPct)
	assert.InDelta(t, 66.67, *sum.Top80RecordsPct, 0.001)
	assert.Equal(t, "normalized", sum.DuplicateMode)
	assert.Equal(t, 2, sum.DuplicateGroupsByPair["name_year"])
	assert.Len(t, sum.DuplicateGroupsByPair, 6)
	assert.Len(t, sum.DuplicateRecordsByPair, 6)

	years := make([]string, 0, len(sum.YearDistribution))
	for _, b := range sum.YearDistribution {
		years = append(years, b.Value)
	}
	assert.Equal(t, []string{"1985", "1990", "1991", "2000"}, years)

	assert.Equal(t, 1, db.txs)
	assert.Equal(t, 1, r.clears)
	assert.Len(t, r.freqs, 4+3)
	assert.Contains(t, r.summary, "2023")
	assert.Equal(t, []string{"2023"}, p.analyzed)

	top := 0
	for _, f := range r.freqs {
		if f.Mode == "exact" && f.InTop80 {
			top++
		}
	}
	assert.Equal(t, 2, top)
	for _, g := range r.groups {
		assert.Equal(t, g.Size, len(g.Members))
		assert.Positive(t, g.GroupNo)
	}
}

func TestRun_Errors(t *testing.T) {
	s, r, p, _ := newSvc(t)

	_, err := s.Run(context.Background(), "nope")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = s.Run(context.Background(), "empty")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	r.writeErr = perr.DBf("boom")
	_, err = s.Run(context.Background(), "2023")
	require.Error(t, err)
	assert.Empty(t, p.analyzed)
	assert.NotContains(t, r.summary, "2023")
}

func TestSummary_RoundTrip(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := s.Summary(ctx, "2023")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	want, err := s.Run(ctx, "2023")
	require.NoError(t, err)
	got, err := s.Summary(ctx, "2023")
	require.NoError(t, err)
	assert.Equal(t, want.Top80Names, got.Top80Names)
	assert.Equal(t, want.UniqueBirthdays, got.UniqueBirthdays)
	assert.True(t, want.ComputedAt.Equal(got.ComputedAt))
}

func TestFrequencies_PagesAndPercentages(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := s.Frequencies(ctx, "2023", domain.FrequencyQuery{Mode: "exact", Page: 1, PerPage: 10})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	_, err = s.Run(ctx, "2023")
	require.NoError(t, err)

	page, err := s.Frequencies(ctx, "2023", domain.FrequencyQuery{Mode: "exact", Page: 2, PerPage: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "anna", page.Items[0].Name)
	assert.Equal(t, 4, page.Items[0].Rank)
	require.NotNil(t, page.Items[0].CumulativePercentage)
	assert.InDelta(t, 100, *page.Items[0].CumulativePercentage, 0.001)

	top, err := s.Frequencies(ctx, "2023", domain.FrequencyQuery{Mode: "exact", Page: 1, PerPage: 10, Top80Only: true})
	require.NoError(t, err)
	assert.Equal(t, 2, top.TotalCount)
	require.NotNil(t, top.Items[0].PercentageOfTotal)
	assert.InDelta(t, 33.33, *top.Items[0].PercentageOfTotal, 0.001)

	norm, err := s.Frequencies(ctx, "2023", domain.FrequencyQuery{Mode: "normalized", Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.NotEmpty(t, norm.Items)
	assert.Equal(t, "anna", norm.Items[0].Name)
	assert.Equal(t, 3, norm.Items[0].Count)

	_, err = s.Frequencies(ctx, "2023", domain.FrequencyQuery{Mode: "fuzzy"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestNameTable_RebuildsRanking(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()
	_, err := s.Run(ctx, "2023")
	require.NoError(t, err)

	tbl, err := s.NameTable(ctx, "2023", normalize.Normalized)
	require.NoError(t, err)
	assert.Equal(t, 6, tbl.Total)
	assert.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.InCoverage("anna"))
	assert.Equal(t, normalize.Normalized, tbl.Mode)

	all, err := s.AllFrequencies(ctx, "2023", normalize.Exact, false)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestDuplicates_PagesGroups(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := s.Duplicates(ctx, "2023", duplicates.Pairs()[0], domain.GroupQuery{Page: 1, PerPage: 10})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	sum, err := s.Run(ctx, "2023")
	require.NoError(t, err)

	for _, p := range duplicates.Pairs() {
		all, err := s.AllDuplicates(ctx, "2023", p)
		require.NoError(t, err)
		assert.Len(t, all, sum.DuplicateGroupsByPair[p.String()], p.String())

		page, err := s.Duplicates(ctx, "2023", p, domain.GroupQuery{Page: 1, PerPage: 1})
		require.NoError(t, err)
		assert.Equal(t, len(all), page.TotalCount)
		assert.LessOrEqual(t, len(page.Items), 1)
		for _, g := range page.Items {
			assert.Equal(t, p.String(), g.Pair)
			assert.Len(t, g.Members, g.Size)
		}
	}
}
