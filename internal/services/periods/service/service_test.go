package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/core/cleaning"
	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
	"namecensus/internal/services/periods/catalog"
	"namecensus/internal/services/periods/domain"
	"namecensus/internal/services/periods/repo"

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
	mu       sync.Mutex
	leases   map[string]bool
	released []string
	rows     map[string][]repo.RowRecord
	periods  map[string]repo.RowPeriod
	copies   int
	copyErr  error
	lastList repo.ListQuery
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leases:  map[string]bool{},
		rows:    map[string][]repo.RowRecord{},
		periods: map[string]repo.RowPeriod{},
	}
}

func (f *fakeRepo) AcquireLease(_ context.Context, p string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.leases[p] {
		return false, nil
	}
	f.leases[p] = true
	return true, nil
}

func (f *fakeRepo) ReleaseLease(_ context.Context, p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.leases, p)
	f.released = append(f.released, p)
	return nil
}

func (f *fakeRepo) ClearRecords(_ context.Context, p string) error {
	delete(f.rows, p)
	return nil
}

func (f *fakeRepo) CopyRecords(_ context.Context, p string, rows []repo.RowRecord) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.copies++
	f.rows[p] = append(f.rows[p], rows...)
	return int64(len(rows)), nil
}

func (f *fakeRepo) UpsertPeriod(_ context.Context, p repo.RowPeriod) error {
	f.periods[p.Key] = p
	return nil
}

func (f *fakeRepo) MarkAnalyzed(_ context.Context, p string, at time.Time) error {
	rp, ok := f.periods[p]
	if !ok {
		return perr.FailedPreconditionf("period %s has not been ingested", p)
	}
	rp.AnalyzedAt = &at
	f.periods[p] = rp
	return nil
}

func (f *fakeRepo) Periods(context.Context) ([]repo.RowPeriod, error) {
	var out []repo.RowPeriod
	for _, p := range f.periods {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) Counts(_ context.Context, p string) (map[domain.TableType]int, error) {
	out := map[domain.TableType]int{}
	for _, r := range f.rows[p] {
		out[domain.TableType(r.Record.Status.String())]++
		out[domain.TableOriginal]++
	}
	return out, nil
}

func (f *fakeRepo) Page(_ context.Context, p string, t domain.TableType, q repo.ListQuery) ([]domain.RecordRow, int, error) {
	f.lastList = q
	all, _ := f.All(context.Background(), p, t)
	end := min(q.Offset+q.Limit, len(all))
	if q.Offset >= len(all) {
		return nil, len(all), nil
	}
	return all[q.Offset:end], len(all), nil
}

func (f *fakeRepo) All(_ context.Context, p string, t domain.TableType) ([]domain.RecordRow, error) {
	var out []domain.RecordRow
	for _, r := range f.rows[p] {
		if t != domain.TableOriginal && string(t) != r.Record.Status.String() {
			continue
		}
		out = append(out, domain.RecordRow{ID: r.Record.ID, Position: r.Record.Position, Name: r.Raw[0]})
	}
	return out, nil
}

func (f *fakeRepo) Included(_ context.Context, p string) ([]records.Record, error) {
	var out []records.Record
	for _, r := range f.rows[p] {
		if r.Record.Status == records.StatusIncluded {
			out = append(out, r.Record)
		}
	}
	return out, nil
}

type archiveSpy struct {
	rows int
	err  error
}

func (a *archiveSpy) Archive(_ context.Context, _ string, rows []repo.RowRecord, _ time.Time) error {
	a.rows = len(rows)
	return a.err
}

var sheet = [][]string{
	{"firstname", "birthday", "birthmonth", "birthyear"},
	{"Alice", "1", "2", "1990"},
	{"Bo", "1", "2", "1990"},
	{"alice", "3.0", "4", "1991"},
	{"Carol", "40", "1", "1930"},
	{"Dave"},
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		domain.Period{Key: "2023", Label: "Class of 2023", Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "a.csv"}},
		domain.Period{Key: "2024", Label: "Class of 2024", Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "b.csv"}},
	)
	require.NoError(t, err)
	return c
}

func newSvc(t *testing.T, r *fakeRepo, rows [][]string, cfg Config, arch Archiver) *Svc {
	t.Helper()
	ids := 0
	var mu sync.Mutex
	cleaner := cleaning.New(cleaning.WithIDFunc(func() string {
		mu.Lock()
		defer mu.Unlock()
		ids++
		return fmt.Sprintf("id-%d", ids)
	}))
	fetch := ingest.FetcherFunc(func(context.Context, ingest.Ref) ([][]string, error) { return rows, nil })
	return New(&fakeDB{}, repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return r }), Options{
		Catalog:  testCatalog(t),
		Fetcher:  fetch,
		Cleaner:  cleaner,
		Archiver: arch,
		Config:   cfg,
	})
}

func TestIngest_CleansAndStores(t *testing.T) {
	r := newFakeRepo()
	arch := &archiveSpy{}
	s := newSvc(t, r, sheet, Config{BatchSize: 2, Archive: true}, arch)

	res, err := s.Ingest(context.Background(), "2023")
	require.NoError(t, err)
	assert.Equal(t, "2023", res.Period)
	assert.Equal(t, cleaning.Stats{Total: 5, Included: 2, Excluded: 3}, res.Stats)
	assert.True(t, res.Archived)
	assert.Equal(t, 5, arch.rows)

	// three batches of at most two rows, positions kept in order
	assert.Equal(t, 3, r.copies)
	stored := r.rows["2023"]
	require.Len(t, stored, 5)
	for i, rr := range stored {
		assert.Equal(t, i+1, rr.Record.Position)
	}
	assert.Equal(t, [4]string{"alice", "3.0", "4", "1991"}, stored[2].Raw)
	assert.Equal(t, "3", stored[2].Record.Day)
	assert.Equal(t, [4]string{"Dave", "", "", ""}, stored[4].Raw)

	p := r.periods["2023"]
	assert.Equal(t, 5, p.TotalRows)
	assert.Equal(t, 2, p.IncludedCount)
	assert.NotNil(t, p.IngestedAt)
	assert.Equal(t, []string{"2023"}, r.released)
}

func TestIngest_ReplacesPreviousRows(t *testing.T) {
	r := newFakeRepo()
	s := newSvc(t, r, sheet, Config{}, nil)
	_, err := s.Ingest(context.Background(), "2023")
	require.NoError(t, err)
	_, err = s.Ingest(context.Background(), "2023")
	require.NoError(t, err)
	assert.Len(t, r.rows["2023"], 5)
}

func TestIngest_Errors(t *testing.T) {
	t.Run("unknown period", func(t *testing.T) {
		s := newSvc(t, newFakeRepo(), sheet, Config{}, nil)
		_, err := s.Ingest(context.Background(), "1999")
		assert.True(t, perr.IsCode(err, perr.ErrorCodeNotFound))
	})
	t.Run("header only", func(t *testing.T) {
		r := newFakeRepo()
		s := newSvc(t, r, sheet[:1], Config{}, nil)
		_, err := s.Ingest(context.Background(), "2023")
		assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
		assert.Contains(t, err.Error(), "no data found in sheet")
		assert.Equal(t, []string{"2023"}, r.released)
	})
	t.Run("lease held", func(t *testing.T) {
		r := newFakeRepo()
		r.leases["2023"] = true
		s := newSvc(t, r, sheet, Config{}, nil)
		_, err := s.Ingest(context.Background(), "2023")
		assert.True(t, perr.IsCode(err, perr.ErrorCodeConflict))
		assert.Empty(t, r.released)
	})
	t.Run("store failure", func(t *testing.T) {
		r := newFakeRepo()
		r.copyErr = errors.New("copy failed")
		s := newSvc(t, r, sheet, Config{}, nil)
		_, err := s.Ingest(context.Background(), "2023")
		assert.Error(t, err)
		assert.Empty(t, r.periods)
	})
}

func TestIngest_ArchiveFailureIsNotFatal(t *testing.T) {
	r := newFakeRepo()
	arch := &archiveSpy{err: errors.New("clickhouse down")}
	s := newSvc(t, r, sheet, Config{Archive: true}, arch)
	res, err := s.Ingest(context.Background(), "2023")
	require.NoError(t, err)
	assert.False(t, res.Archived)
}

func TestStatusAndRecords(t *testing.T) {
	r := newFakeRepo()
	s := newSvc(t, r, sheet, Config{}, nil)

	st, err := s.Status(context.Background(), "2023")
	require.NoError(t, err)
	assert.False(t, st.Tables[domain.TableOriginal].Exists)

	_, err = s.Ingest(context.Background(), "2023")
	require.NoError(t, err)

	st, err = s.Status(context.Background(), "2023")
	require.NoError(t, err)
	assert.Equal(t, domain.TableStatus{Exists: true, Count: 5}, st.Tables[domain.TableOriginal])
	assert.Equal(t, domain.TableStatus{Exists: true, Count: 2}, st.Tables[domain.TableIncluded])
	assert.Equal(t, domain.TableStatus{Exists: true, Count: 3}, st.Tables[domain.TableExcluded])

	page, err := s.Records(context.Background(), "2023", domain.TableExcluded, domain.RecordsQuery{Page: 2, PerPage: 2, SortOrder: "desc"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, repo.ListQuery{Offset: 2, Limit: 2, Desc: true}, r.lastList)

	_, err = s.Records(context.Background(), "2023", domain.TableIncluded, domain.RecordsQuery{SortBy: "exclusion_reason"})
	assert.True(t, perr.IsCode(err, perr.ErrorCodeInvalidArgument))
}

func TestLoadSet(t *testing.T) {
	r := newFakeRepo()
	s := newSvc(t, r, sheet, Config{}, nil)

	_, err := s.LoadSet(context.Background(), "2023")
	assert.True(t, perr.IsCode(err, perr.ErrorCodeFailedPrecondition))

	_, err = s.Ingest(context.Background(), "2023")
	require.NoError(t, err)

	set, err := s.LoadSet(context.Background(), "2023")
	require.NoError(t, err)
	assert.Equal(t, "2023", set.Period())
	assert.Equal(t, 2, set.Len())

	require.NoError(t, s.MarkAnalyzed(context.Background(), "2023"))
	assert.NotNil(t, r.periods["2023"].AnalyzedAt)
	assert.Error(t, s.MarkAnalyzed(context.Background(), "2024"))
}

func TestList_MergesCatalogAndStore(t *testing.T) {
	r := newFakeRepo()
	s := newSvc(t, r, sheet, Config{}, nil)
	_, err := s.Ingest(context.Background(), "2024")
	require.NoError(t, err)

	views, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "2023", views[0].Key)
	assert.False(t, views[0].Ingested)
	assert.True(t, views[1].Ingested)
	assert.Equal(t, 5, views[1].TotalRows)
	assert.Equal(t, "workbook", views[1].SourceKind)

	v, err := s.Get(context.Background(), "2023")
	require.NoError(t, err)
	assert.Equal(t, "Class of 2023", v.Label)
}
