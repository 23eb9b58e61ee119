// Package service contains analysis run and result workflows
package service

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/engine"
	"namecensus/internal/core/frequency"
	"namecensus/internal/core/normalize"
	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/logger"
	"namecensus/internal/services/analytics/domain"
	"namecensus/internal/services/analytics/repo"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Service defines the service contract for analytics
type Service interface {
	domain.ServicePort
	domain.ResultsPort
}

// Svc implements the Service interface
type Svc struct {
	Repo   repo.Repo
	binder repokit.Binder[repo.Repo]
	db     repokit.TxRunner

	periods periodsdom.RecordsPort
	opts    engine.Options
	log     logger.Logger
	now     func() time.Time
}

// New creates a new analytics service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], periods periodsdom.RecordsPort, opts engine.Options) *Svc {
	if db == nil {
		panic("analytics.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("analytics.Service requires a non nil Repo binder")
	}
	if periods == nil {
		panic("analytics.Service requires the periods records port")
	}
	return &Svc{
		Repo:    repokit.MustBind(binder, db),
		binder:  binder,
		db:      db,
		periods: periods,
		opts:    opts,
		log:     *logger.Named("analytics"),
		now:     time.Now,
	}
}

// Run analyzes the included records of a period and replaces its stored results
func (s *Svc) Run(ctx context.Context, period string) (domain.Summary, error) {
	p, err := s.periods.Describe(period)
	if err != nil {
		return domain.Summary{}, err
	}
	log := s.log.With().Str("period", p.Key).Logger()
	start := s.now()

	set, err := s.periods.LoadSet(ctx, p.Key)
	if err != nil {
		return domain.Summary{}, err
	}
	a, err := engine.Analyze(ctx, set, s.opts)
	if err != nil {
		log.Error().Err(err).Msg("analyze")
		return domain.Summary{}, err
	}

	sum := summarize(a, s.opts)
	sum.ComputedAt = s.now().UTC()
	sum.ElapsedMS = float64(s.now().Sub(start).Microseconds()) / 1000
	blob, err := json.Marshal(sum)
	if err != nil {
		return domain.Summary{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode analysis summary")
	}

	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.Clear(ctx, p.Key); err != nil {
			return err
		}
		if err := r.WriteFrequencies(ctx, p.Key, append(frequencyRows(a.Exact), frequencyRows(a.Normalized)...)); err != nil {
			return err
		}
		if err := r.WriteDistribution(ctx, p.Key, append(bucketRows(a.Years), bucketRows(a.Months)...)); err != nil {
			return err
		}
		if err := r.WriteGroups(ctx, p.Key, groupRows(a.Duplicates)); err != nil {
			return err
		}
		return r.WriteSummary(ctx, p.Key, blob)
	})
	if err != nil {
		log.Error().Err(err).Msg("store analysis")
		return domain.Summary{}, err
	}
	if err := s.periods.MarkAnalyzed(ctx, p.Key); err != nil {
		log.Warn().Err(err).Msg("mark analyzed")
	}

	log.Info().
		Int("records", sum.TotalRecords).
		Int("unique_names", sum.UniqueNames).
		Int("top80", sum.Top80Count).
		Int("duplicate_records", sum.DuplicateRecords).
		Dur("elapsed", s.now().Sub(start)).
		Msg("period analyzed")
	return sum, nil
}

func summarize(a *engine.Analysis, opts engine.Options) domain.Summary {
	sum := domain.Summary{
		Period:                 a.Period,
		Summary:                a.Summary,
		UniqueNamesNormalized:  a.Normalized.Len(),
		DuplicateRecordsByPair: make(map[string]int, 6),
		DuplicateGroupsByPair:  make(map[string]int, 6),
		Top80RecordsPct:        frequency.Percent(a.Summary.Top80Records, a.Exact.Total),
		YearDistribution:       buckets(a.Years),
		MonthDistribution:      buckets(a.Months),
		DuplicateMode:          opts.DuplicateMode.String(),
	}
	for _, p := range duplicates.Pairs() {
		sum.DuplicateRecordsByPair[p.String()] = a.Duplicates.RecordsIn(p)
		sum.DuplicateGroupsByPair[p.String()] = len(a.Duplicates.Groups[p])
	}
	sum.Top80Names = make([]string, 0, a.Exact.CoverageLen())
	for _, e := range a.Exact.Coverage() {
		sum.Top80Names = append(sum.Top80Names, e.Key)
	}
	return sum
}

// buckets lists a distribution in ascending value order
func buckets(t *frequency.Table) []domain.Bucket {
	out := make([]domain.Bucket, 0, t.Len())
	for _, e := range t.Entries {
		out = append(out, domain.Bucket{Value: e.Key, Count: e.Count, Percentage: t.PercentOfTotal(e)})
	}
	slices.SortFunc(out, func(a, b domain.Bucket) int { return records.CompareValues(a.Value, b.Value) })
	return out
}

func frequencyRows(t *frequency.Table) []repo.RowFrequency {
	out := make([]repo.RowFrequency, 0, t.Len())
	for i, e := range t.Entries {
		out = append(out, repo.RowFrequency{
			Mode:               t.Mode.String(),
			Name:               e.Key,
			Count:              e.Count,
			Rank:               e.Rank,
			CumulativeCount:    e.CumulativeCount,
			CumulativeFraction: e.CumulativeFraction,
			InTop80:            i < t.CoverageLen(),
		})
	}
	return out
}

func bucketRows(t *frequency.Table) []repo.RowBucket {
	out := make([]repo.RowBucket, 0, t.Len())
	for _, e := range t.Entries {
		out = append(out, repo.RowBucket{Field: t.Field.String(), Value: e.Key, Count: e.Count, Rank: e.Rank})
	}
	return out
}

func groupRows(res *duplicates.Result) []repo.RowGroup {
	var out []repo.RowGroup
	for _, p := range duplicates.Pairs() {
		for i, g := range res.Groups[p] {
			rg := repo.RowGroup{
				Pair:    p.String(),
				GroupNo: i + 1,
				ValueA:  g.ValueA,
				ValueB:  g.ValueB,
				Size:    g.Size(),
				Members: make([]repo.RowMember, 0, g.Size()),
			}
			for _, m := range g.Members {
				rg.Members = append(rg.Members, repo.RowMember{RecordID: m.ID, Position: m.Position})
			}
			out = append(out, rg)
		}
	}
	return out
}

// Summary returns the stored summary of the last run
func (s *Svc) Summary(ctx context.Context, period string) (domain.Summary, error) {
	p, err := s.periods.Describe(period)
	if err != nil {
		return domain.Summary{}, err
	}
	blob, ok, err := s.Repo.Summary(ctx, p.Key)
	if err != nil {
		return domain.Summary{}, err
	}
	if !ok {
		return domain.Summary{}, perr.FailedPreconditionf("period %s has not been analyzed", p.Key)
	}
	var sum domain.Summary
	if err := json.Unmarshal(blob, &sum); err != nil {
		return domain.Summary{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode analysis summary")
	}
	return sum, nil
}

// analyzed resolves period and fails when it has no stored run
func (s *Svc) analyzed(ctx context.Context, period string) (string, error) {
	sum, err := s.Summary(ctx, period)
	if err != nil {
		return "", err
	}
	return sum.Period, nil
}

func parseMode(s string) (normalize.Mode, error) {
	m, ok := normalize.ParseMode(s)
	if !ok {
		return m, perr.WithField(perr.InvalidArgf("unknown mode %q (want exact or normalized)", s), "mode")
	}
	return m, nil
}

// Frequencies returns one page of a stored name ranking
func (s *Svc) Frequencies(ctx context.Context, period string, q domain.FrequencyQuery) (domain.FrequencyPage, error) {
	mode, err := parseMode(q.Mode)
	if err != nil {
		return domain.FrequencyPage{}, err
	}
	key, err := s.analyzed(ctx, period)
	if err != nil {
		return domain.FrequencyPage{}, err
	}
	pq := repokit.PageQuery{Page: q.Page, PerPage: q.PerPage}.Norm(100, 1000)
	total, err := s.Repo.NameTotal(ctx, key, mode.String())
	if err != nil {
		return domain.FrequencyPage{}, err
	}
	rows, n, err := s.Repo.Frequencies(ctx, key, mode.String(), q.Top80Only, pq.Offset(), pq.PerPage)
	if err != nil {
		return domain.FrequencyPage{}, err
	}
	return repokit.NewPage(frequencyDTOs(rows, total), n, pq), nil
}

// AllFrequencies returns a whole stored name ranking
func (s *Svc) AllFrequencies(ctx context.Context, period string, mode normalize.Mode, top80Only bool) ([]domain.FrequencyRow, error) {
	key, err := s.analyzed(ctx, period)
	if err != nil {
		return nil, err
	}
	total, err := s.Repo.NameTotal(ctx, key, mode.String())
	if err != nil {
		return nil, err
	}
	rows, _, err := s.Repo.Frequencies(ctx, key, mode.String(), top80Only, 0, 0)
	if err != nil {
		return nil, err
	}
	return frequencyDTOs(rows, total), nil
}

func frequencyDTOs(rows []repo.RowFrequency, total int) []domain.FrequencyRow {
	out := make([]domain.FrequencyRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.FrequencyRow{
			Rank:                 r.Rank,
			Name:                 r.Name,
			Count:                r.Count,
			PercentageOfTotal:    frequency.Percent(r.Count, total),
			CumulativeCount:      r.CumulativeCount,
			CumulativePercentage: frequency.Percent(r.CumulativeCount, total),
			InTop80:              r.InTop80,
		})
	}
	return out
}

// NameTable rebuilds a stored name ranking as a frequency table
func (s *Svc) NameTable(ctx context.Context, period string, mode normalize.Mode) (*frequency.Table, error) {
	key, err := s.analyzed(ctx, period)
	if err != nil {
		return nil, err
	}
	counts, err := s.Repo.Counts(ctx, key, mode.String())
	if err != nil {
		return nil, err
	}
	return frequency.FromCounts(counts, mode, records.FieldName), nil
}

// Duplicates returns one page of the stored groups of a pair
func (s *Svc) Duplicates(ctx context.Context, period string, pair duplicates.Pair, q domain.GroupQuery) (domain.GroupPage, error) {
	key, err := s.analyzed(ctx, period)
	if err != nil {
		return domain.GroupPage{}, err
	}
	pq := repokit.PageQuery{Page: q.Page, PerPage: q.PerPage}.Norm(50, 500)
	rows, total, err := s.Repo.Groups(ctx, key, pair.String(), pq.Offset(), pq.PerPage)
	if err != nil {
		return domain.GroupPage{}, err
	}
	return repokit.NewPage(groupDTOs(rows), total, pq), nil
}

// AllDuplicates returns every stored group of a pair
func (s *Svc) AllDuplicates(ctx context.Context, period string, pair duplicates.Pair) ([]domain.DuplicateGroup, error) {
	key, err := s.analyzed(ctx, period)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.Repo.Groups(ctx, key, pair.String(), 0, 0)
	if err != nil {
		return nil, err
	}
	return groupDTOs(rows), nil
}

func groupDTOs(rows []repo.RowGroup) []domain.DuplicateGroup {
	out := make([]domain.DuplicateGroup, 0, len(rows))
	for _, g := range rows {
		dg := domain.DuplicateGroup{
			Pair:    g.Pair,
			ValueA:  g.ValueA,
			ValueB:  g.ValueB,
			Size:    g.Size,
			Members: make([]domain.Member, 0, len(g.Members)),
		}
		for _, m := range g.Members {
			dg.Members = append(dg.Members, domain.Member{
				ID: m.RecordID, Position: m.Position, Name: m.Name, Day: m.Day, Month: m.Month, Year: m.Year,
			})
		}
		out = append(out, dg)
	}
	return out
}
