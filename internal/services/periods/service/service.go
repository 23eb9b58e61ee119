// Package service contains period catalog, ingest and record workflows
package service

import (
	"context"
	"time"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/core/cleaning"
	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/logger"
	"namecensus/internal/services/periods/catalog"
	"namecensus/internal/services/periods/domain"
	"namecensus/internal/services/periods/repo"

	"golang.org/x/sync/errgroup"
)

// Service defines the service contract for periods
type Service interface {
	domain.ServicePort
	domain.RecordsPort
}

// Archiver mirrors raw rows somewhere outside postgres
type Archiver interface {
	Archive(ctx context.Context, period string, rows []repo.RowRecord, at time.Time) error
}

// Config holds ingest tuning
type Config struct {
	// BatchSize is the number of rows cleaned and copied per batch; <=0 -> 100000
	BatchSize int
	// Workers bounds concurrent cleaning batches; <=0 -> 4
	Workers int
	// Archive enables the raw row mirror when an Archiver is wired
	Archive bool
	// LeaseTTL is how long an ingest lease blocks other runs; <=0 -> 1h
	LeaseTTL time.Duration
}

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	catalog  *catalog.Catalog
	fetch    ingest.Fetcher
	cleaner  *cleaning.Cleaner
	archiver Archiver
	cfg      Config
	log      logger.Logger
	now      func() time.Time
}

// Options carries the collaborators of Svc
type Options struct {
	Catalog  *catalog.Catalog
	Fetcher  ingest.Fetcher
	Cleaner  *cleaning.Cleaner
	Archiver Archiver
	Config   Config
}

// New creates a new periods service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], o Options) *Svc {
	if db == nil {
		panic("periods.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("periods.Service requires a non nil Repo binder")
	}
	if o.Catalog == nil {
		panic("periods.Service requires a period catalog")
	}
	if o.Cleaner == nil {
		o.Cleaner = cleaning.New()
	}
	if o.Config.BatchSize <= 0 {
		o.Config.BatchSize = 100_000
	}
	if o.Config.Workers <= 0 {
		o.Config.Workers = 4
	}
	if o.Config.LeaseTTL <= 0 {
		o.Config.LeaseTTL = time.Hour
	}
	return &Svc{
		Repo:     repokit.MustBind(binder, db),
		binder:   binder,
		db:       db,
		catalog:  o.Catalog,
		fetch:    o.Fetcher,
		cleaner:  o.Cleaner,
		archiver: o.Archiver,
		cfg:      o.Config,
		log:      *logger.Named("periods"),
		now:      time.Now,
	}
}

// Describe returns the catalog entry for key
func (s *Svc) Describe(key string) (domain.Period, error) { return s.catalog.Get(key) }

// List returns every catalog period merged with its stored state
func (s *Svc) List(ctx context.Context) ([]domain.PeriodView, error) {
	rows, err := s.Repo.Periods(ctx)
	if err != nil {
		return nil, err
	}
	stored := make(map[string]repo.RowPeriod, len(rows))
	for _, r := range rows {
		stored[r.Key] = r
	}
	out := make([]domain.PeriodView, 0, len(rows))
	for _, p := range s.catalog.List() {
		out = append(out, view(p, stored[p.Key], stored[p.Key].IngestedAt != nil))
	}
	return out, nil
}

// Get returns one period view
func (s *Svc) Get(ctx context.Context, key string) (domain.PeriodView, error) {
	views, err := s.List(ctx)
	if err != nil {
		return domain.PeriodView{}, err
	}
	p, err := s.catalog.Get(key)
	if err != nil {
		return domain.PeriodView{}, err
	}
	for _, v := range views {
		if v.Key == p.Key {
			return v, nil
		}
	}
	return view(p, repo.RowPeriod{}, false), nil
}

func view(p domain.Period, r repo.RowPeriod, ingested bool) domain.PeriodView {
	return domain.PeriodView{
		Key:           p.Key,
		Label:         p.Label,
		SourceKind:    string(p.Source.Kind),
		Ingested:      ingested,
		TotalRows:     r.TotalRows,
		IncludedCount: r.IncludedCount,
		ExcludedCount: r.ExcludedCount,
		IngestedAt:    r.IngestedAt,
		AnalyzedAt:    r.AnalyzedAt,
	}
}

// Ingest fetches, cleans and stores the rows of a period
// the previous rows of the period are replaced in one transaction
func (s *Svc) Ingest(ctx context.Context, key string) (domain.IngestResult, error) {
	p, err := s.catalog.Get(key)
	if err != nil {
		return domain.IngestResult{}, err
	}
	if s.fetch == nil {
		return domain.IngestResult{}, perr.Unavailablef("no row source configured")
	}
	log := s.log.With().Str("period", p.Key).Logger()
	start := s.now()

	var claimed bool
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		claimed, err = s.binder.Bind(q).AcquireLease(ctx, p.Key, s.cfg.LeaseTTL)
		return err
	})
	if err != nil {
		return domain.IngestResult{}, err
	}
	if !claimed {
		return domain.IngestResult{}, perr.Conflictf("ingest of period %s is already running", p.Key)
	}
	defer func() {
		if err := s.Repo.ReleaseLease(context.WithoutCancel(ctx), p.Key); err != nil {
			log.Error().Err(err).Msg("release ingest lease")
		}
	}()

	raw, err := s.fetch.Fetch(ctx, p.Source)
	if err != nil {
		log.Error().Err(err).Msg("fetch rows")
		return domain.IngestResult{}, err
	}
	data, err := ingest.DataRows(raw)
	if err != nil {
		return domain.IngestResult{}, err
	}

	batches, stats, err := s.clean(ctx, data)
	if err != nil {
		return domain.IngestResult{}, err
	}

	at := s.now().UTC()
	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.ClearRecords(ctx, p.Key); err != nil {
			return err
		}
		for _, b := range batches {
			if _, err := r.CopyRecords(ctx, p.Key, b); err != nil {
				return err
			}
		}
		return r.UpsertPeriod(ctx, repo.RowPeriod{
			Key:           p.Key,
			Label:         p.Label,
			TotalRows:     stats.Total,
			IncludedCount: stats.Included,
			ExcludedCount: stats.Excluded,
			IngestedAt:    &at,
		})
	})
	if err != nil {
		log.Error().Err(err).Msg("store records")
		return domain.IngestResult{}, err
	}

	res := domain.IngestResult{Period: p.Key, Stats: stats}
	if s.cfg.Archive && s.archiver != nil {
		all := make([]repo.RowRecord, 0, stats.Total)
		for _, b := range batches {
			all = append(all, b...)
		}
		if err := s.archiver.Archive(ctx, p.Key, all, at); err != nil {
			log.Warn().Err(err).Msg("archive raw rows")
		} else {
			res.Archived = true
		}
	}

	elapsed := s.now().Sub(start)
	res.ElapsedMS = float64(elapsed.Microseconds()) / 1000
	log.Info().
		Int("total", stats.Total).
		Int("included", stats.Included).
		Int("excluded", stats.Excluded).
		Dur("elapsed", elapsed).
		Msg("period ingested")
	return res, nil
}

// clean validates data in batches on a bounded worker group
func (s *Svc) clean(ctx context.Context, data [][]string) ([][]repo.RowRecord, cleaning.Stats, error) {
	size := s.cfg.BatchSize
	n := (len(data) + size - 1) / size
	batches := make([][]repo.RowRecord, n)
	stats := make([]cleaning.Stats, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lo := i * size
			hi := min(lo+size, len(data))
			recs, st := s.cleaner.CleanRows(lo+1, data[lo:hi])
			out := make([]repo.RowRecord, len(recs))
			for j, rec := range recs {
				out[j] = repo.RowRecord{Raw: rawCells(data[lo+j]), Record: rec}
			}
			batches[i], stats[i] = out, st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, cleaning.Stats{}, err
	}
	var total cleaning.Stats
	for _, st := range stats {
		total.Add(st)
	}
	return batches, total, nil
}

func rawCells(cells []string) [4]string {
	var out [4]string
	copy(out[:], cells)
	return out
}

// Status reports which table types hold rows for a period
func (s *Svc) Status(ctx context.Context, key string) (domain.Status, error) {
	p, err := s.catalog.Get(key)
	if err != nil {
		return domain.Status{}, err
	}
	counts, err := s.Repo.Counts(ctx, p.Key)
	if err != nil {
		return domain.Status{}, err
	}
	st := domain.Status{Period: p.Key, Tables: make(map[domain.TableType]domain.TableStatus, 3)}
	for _, t := range domain.TableTypes() {
		n := counts[t]
		st.Tables[t] = domain.TableStatus{Exists: n > 0, Count: n}
	}
	return st, nil
}

// Records returns one page of a period's rows
func (s *Svc) Records(ctx context.Context, key string, t domain.TableType, in domain.RecordsQuery) (domain.RecordPage, error) {
	p, err := s.catalog.Get(key)
	if err != nil {
		return domain.RecordPage{}, err
	}
	if _, err := repo.SortColumn(t, in.SortBy); err != nil {
		return domain.RecordPage{}, err
	}
	pq := repokit.PageQuery{Page: in.Page, PerPage: in.PerPage}.Norm(100, 1000)
	rows, total, err := s.Repo.Page(ctx, p.Key, t, repo.ListQuery{
		Offset: pq.Offset(),
		Limit:  pq.PerPage,
		SortBy: in.SortBy,
		Desc:   in.SortOrder == "desc" || in.SortOrder == "DESC",
	})
	if err != nil {
		return domain.RecordPage{}, err
	}
	return repokit.NewPage(rows, total, pq), nil
}

// AllRecords returns every row of a table type in position order
func (s *Svc) AllRecords(ctx context.Context, key string, t domain.TableType) ([]domain.RecordRow, error) {
	p, err := s.catalog.Get(key)
	if err != nil {
		return nil, err
	}
	return s.Repo.All(ctx, p.Key, t)
}

// LoadSet returns the included records of a period as a record set
func (s *Svc) LoadSet(ctx context.Context, key string) (*records.Set, error) {
	p, err := s.catalog.Get(key)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.Counts(ctx, p.Key)
	if err != nil {
		return nil, err
	}
	if counts[domain.TableOriginal] == 0 {
		return nil, perr.FailedPreconditionf("period %s has not been ingested", p.Key)
	}
	rs, err := s.Repo.Included(ctx, p.Key)
	if err != nil {
		return nil, err
	}
	return records.NewSet(p.Key, rs), nil
}

// MarkAnalyzed stamps the analysis time of a period
func (s *Svc) MarkAnalyzed(ctx context.Context, key string) error {
	p, err := s.catalog.Get(key)
	if err != nil {
		return err
	}
	return s.Repo.MarkAnalyzed(ctx, p.Key, s.now().UTC())
}
