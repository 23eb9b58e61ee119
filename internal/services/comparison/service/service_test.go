package service

import (
	"context"
	"fmt"
	"testing"

	"namecensus/internal/core/compare"
	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
	analyticsdom "namecensus/internal/services/analytics/domain"
	"namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/comparison/repo"
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

type stored struct {
	summary []byte
	common  []compare.Entry
	unique  map[domain.Side][]compare.UniqueEntry
}

type fakeRepo struct {
	pairs    map[string]*stored
	writeErr error
}

func key(a, b string) string { return a + "|" + b }

func (f *fakeRepo) at(a, b string) *stored {
	s, ok := f.pairs[key(a, b)]
	if !ok {
		s = &stored{unique: map[domain.Side][]compare.UniqueEntry{}}
		f.pairs[key(a, b)] = s
	}
	return s
}

func (f *fakeRepo) Clear(_ context.Context, a, b string) error {
	delete(f.pairs, key(a, b))
	return nil
}

func (f *fakeRepo) WriteSummary(_ context.Context, a, b string, blob []byte) error {
	f.at(a, b).summary = blob
	return nil
}

func (f *fakeRepo) WriteCommon(_ context.Context, a, b string, rows []compare.Entry) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.at(a, b).common = rows
	return nil
}

func (f *fakeRepo) WriteUnique(_ context.Context, a, b string, side domain.Side, rows []compare.UniqueEntry) error {
	f.at(a, b).unique[side] = rows
	return nil
}

func (f *fakeRepo) Summary(_ context.Context, a, b string) ([]byte, bool, error) {
	s, ok := f.pairs[key(a, b)]
	if !ok || s.summary == nil {
		return nil, false, nil
	}
	return s.summary, true, nil
}

func (f *fakeRepo) Common(_ context.Context, a, b, top80 string, offset, limit int) ([]domain.CommonRow, int, error) {
	var all []domain.CommonRow
	for _, e := range f.at(a, b).common {
		switch {
		case top80 == "a" && !e.InTop80A, top80 == "b" && !e.InTop80B, top80 == "both" && !e.InBothTop80():
			continue
		}
		all = append(all, e)
	}
	return window(all, offset, limit), len(all), nil
}

func (f *fakeRepo) Unique(_ context.Context, a, b string, side domain.Side, top80Only bool, offset, limit int) ([]domain.UniqueRow, int, error) {
	var all []domain.UniqueRow
	for _, u := range f.at(a, b).unique[side] {
		if top80Only && !u.InTop80 {
			continue
		}
		all = append(all, domain.UniqueRow{ID: u.ID, Position: u.Position, Name: u.Name, NormalizedName: u.NormalizedName, InTop80: u.InTop80})
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

type fakePeriods struct{ recs map[string][]records.Record }

func (f *fakePeriods) Describe(k string) (periodsdom.Period, error) {
	if _, ok := f.recs[k]; !ok {
		return periodsdom.Period{}, perr.NotFoundf("period %s not found", k)
	}
	return periodsdom.Period{Key: k}, nil
}

func (f *fakePeriods) LoadSet(_ context.Context, k string) (*records.Set, error) {
	return records.NewSet(k, f.recs[k]), nil
}

func (f *fakePeriods) MarkAnalyzed(context.Context, string) error { return nil }

func (f *fakePeriods) AllRecords(context.Context, string, periodsdom.TableType) ([]periodsdom.RecordRow, error) {
	return nil, nil
}

// fakeResults treats a period as analyzed when it is listed
type fakeResults struct {
	periods  *fakePeriods
	analyzed map[string]bool
}

func (f *fakeResults) NameTable(ctx context.Context, k string, m normalize.Mode) (*frequency.Table, error) {
	if !f.analyzed[k] {
		return nil, perr.FailedPreconditionf("period %s has not been analyzed", k)
	}
	set, _ := f.periods.LoadSet(ctx, k)
	return frequency.Analyze(set, m, records.FieldName), nil
}

func (f *fakeResults) AllFrequencies(context.Context, string, normalize.Mode, bool) ([]analyticsdom.FrequencyRow, error) {
	return nil, nil
}

func (f *fakeResults) AllDuplicates(context.Context, string, duplicates.Pair) ([]analyticsdom.DuplicateGroup, error) {
	return nil, nil
}

func (f *fakeResults) Summary(context.Context, string) (analyticsdom.Summary, error) {
	return analyticsdom.Summary{}, nil
}

func rec(pos int, name string) records.Record {
	return records.Record{ID: fmt.Sprintf("r%d", pos), Position: pos, Name: name, Day: "1", Month: "1", Year: "2000", Status: records.StatusIncluded}
}

func newSvc(t *testing.T) (*Svc, *fakeRepo, *fakeResults, *fakeDB) {
	t.Helper()
	p := &fakePeriods{recs: map[string][]records.Record{
		"2022": {rec(1, "Anna"), rec(2, "anna "), rec(3, "Ben"), rec(4, "Carl")},
		"2023": {rec(1, "ANNA"), rec(2, "Dora"), rec(3, "ben")},
		"2024": {rec(1, "Eve")},
	}}
	res := &fakeResults{periods: p, analyzed: map[string]bool{"2022": true, "2023": true}}
	r := &fakeRepo{pairs: map[string]*stored{}}
	db := &fakeDB{}
	s := New(db, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r }), p, res)
	s.newID = func() string { return "run-1" }
	return s, r, res, db
}

func TestRun_StoresPair(t *testing.T) {
	s, r, _, db := newSvc(t)
	sum, err := s.Run(context.Background(), "2022", " 2023")
	require.NoError(t, err)

	assert.Equal(t, "run-1", sum.RunID)
	assert.Equal(t, "2022", sum.PeriodA)
	assert.Equal(t, "2023", sum.PeriodB)
	assert.Equal(t, 2, sum.CommonNamesCount)
	assert.Equal(t, 1, sum.UniqueToACount)
	assert.Equal(t, 1, sum.UniqueToBCount)
	assert.Equal(t, 1, db.txs)

	st := r.pairs[key("2022", "2023")]
	require.NotNil(t, st)
	require.Len(t, st.common, 2)
	assert.Equal(t, "anna", st.common[0].Name)
	assert.Equal(t, 3, st.common[0].TotalFrequency)
	require.Len(t, st.unique[domain.SideA], 1)
	assert.Equal(t, "Carl", st.unique[domain.SideA][0].Name)
	require.Len(t, st.unique[domain.SideB], 1)
	assert.Equal(t, "Dora", st.unique[domain.SideB][0].Name)
}

func TestRun_Prerequisites(t *testing.T) {
	s, r, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := s.Run(ctx, "2022", "2022")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))

	_, err = s.Run(ctx, "2022", "1999")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))

	_, err = s.Run(ctx, "2022", "2024")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))
	assert.Contains(t, err.Error(), "2024")
	assert.Empty(t, r.pairs)

	r.writeErr = perr.DBf("boom")
	_, err = s.Run(ctx, "2022", "2023")
	require.Error(t, err)
	_, ok, _ := r.Summary(ctx, "2022", "2023")
	assert.False(t, ok)
}

func TestSummary_OrderedPair(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()

	_, err := s.Summary(ctx, "2022", "2023")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	_, err = s.Run(ctx, "2022", "2023")
	require.NoError(t, err)

	got, err := s.Summary(ctx, "2022", "2023")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, 4, got.TotalRecordsA)

	_, err = s.Summary(ctx, "2023", "2022")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))
}

func TestCommonAndUnique_Pages(t *testing.T) {
	s, _, _, _ := newSvc(t)
	ctx := context.Background()
	_, err := s.Run(ctx, "2022", "2023")
	require.NoError(t, err)

	page, err := s.Common(ctx, "2022", "2023", domain.CommonQuery{Page: 2, PerPage: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "ben", page.Items[0].Name)

	uniq, err := s.Unique(ctx, "2022", "2023", domain.SideB, domain.UniqueQuery{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, uniq.Items, 1)
	assert.Equal(t, "dora", uniq.Items[0].NormalizedName)

	all, err := s.AllCommon(ctx, "2022", "2023", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	allA, err := s.AllUnique(ctx, "2022", "2023", domain.SideA, false)
	require.NoError(t, err)
	assert.Len(t, allA, 1)

	_, err = s.AllUnique(ctx, "2023", "2022", domain.SideA, false)
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))
}

func TestParseSide(t *testing.T) {
	got, err := domain.ParseSide(" B ")
	require.NoError(t, err)
	assert.Equal(t, domain.SideB, got)
	_, err = domain.ParseSide("c")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}
