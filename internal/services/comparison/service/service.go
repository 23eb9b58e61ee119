// Package service contains cross period comparison workflows
package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"namecensus/internal/core/compare"
	"namecensus/internal/core/normalize"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/logger"
	analyticsdom "namecensus/internal/services/analytics/domain"
	"namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/comparison/repo"
	periodsdom "namecensus/internal/services/periods/domain"

	"github.com/google/uuid"
)

// Service defines the service contract for comparisons
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
	results analyticsdom.ResultsPort
	log     logger.Logger
	now     func() time.Time
	newID   func() string
}

// New creates a new comparison service
func New(db repokit.TxRunner, binder repokit.Binder[repo.Repo], periods periodsdom.RecordsPort, results analyticsdom.ResultsPort) *Svc {
	if db == nil {
		panic("comparison.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("comparison.Service requires a non nil Repo binder")
	}
	if periods == nil || results == nil {
		panic("comparison.Service requires the periods and analytics ports")
	}
	return &Svc{
		Repo:    repokit.MustBind(binder, db),
		binder:  binder,
		db:      db,
		periods: periods,
		results: results,
		log:     *logger.Named("comparison"),
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// pair resolves both catalog keys of an ordered comparison
func (s *Svc) pair(a, b string) (string, string, error) {
	pa, err := s.periods.Describe(strings.TrimSpace(a))
	if err != nil {
		return "", "", err
	}
	pb, err := s.periods.Describe(strings.TrimSpace(b))
	if err != nil {
		return "", "", err
	}
	if pa.Key == pb.Key {
		return "", "", perr.WithField(perr.InvalidArgf("cannot compare period %s with itself", pa.Key), "period_b")
	}
	return pa.Key, pb.Key, nil
}

func (s *Svc) side(ctx context.Context, key string) (compare.Period, error) {
	// the stored ranking doubles as the analyzed check
	tbl, err := s.results.NameTable(ctx, key, normalize.Normalized)
	if err != nil {
		return compare.Period{}, err
	}
	set, err := s.periods.LoadSet(ctx, key)
	if err != nil {
		return compare.Period{}, err
	}
	return compare.Period{Key: key, Set: set, Table: tbl}, nil
}

// Run compares two analyzed periods and replaces the stored result of the pair
func (s *Svc) Run(ctx context.Context, a, b string) (domain.Summary, error) {
	a, b, err := s.pair(a, b)
	if err != nil {
		return domain.Summary{}, err
	}
	log := s.log.With().Str("period_a", a).Str("period_b", b).Logger()
	start := s.now()

	pa, err := s.side(ctx, a)
	if err != nil {
		return domain.Summary{}, err
	}
	pb, err := s.side(ctx, b)
	if err != nil {
		return domain.Summary{}, err
	}

	res, err := compare.Compare(ctx, pa, pb)
	if err != nil {
		log.Error().Err(err).Msg("compare")
		return domain.Summary{}, err
	}

	sum := domain.Summary{
		RunID:      s.newID(),
		Summary:    res.Summary,
		ComputedAt: s.now().UTC(),
		ElapsedMS:  float64(s.now().Sub(start).Microseconds()) / 1000,
	}
	blob, err := json.Marshal(sum)
	if err != nil {
		return domain.Summary{}, perr.Wrap(err, perr.ErrorCodeJSON, "encode comparison summary")
	}

	err = s.db.Tx(ctx, func(q repokit.Queryer) error {
		r := s.binder.Bind(q)
		if err := r.Clear(ctx, a, b); err != nil {
			return err
		}
		if err := r.WriteCommon(ctx, a, b, res.Common); err != nil {
			return err
		}
		if err := r.WriteUnique(ctx, a, b, domain.SideA, res.UniqueA); err != nil {
			return err
		}
		if err := r.WriteUnique(ctx, a, b, domain.SideB, res.UniqueB); err != nil {
			return err
		}
		return r.WriteSummary(ctx, a, b, blob)
	})
	if err != nil {
		log.Error().Err(err).Msg("store comparison")
		return domain.Summary{}, err
	}

	log.Info().
		Str("run_id", sum.RunID).
		Int("common", sum.CommonNamesCount).
		Int("unique_a", sum.UniqueToARecords).
		Int("unique_b", sum.UniqueToBRecords).
		Dur("elapsed", s.now().Sub(start)).
		Msg("periods compared")
	return sum, nil
}

// Summary returns the stored summary of a compared pair
func (s *Svc) Summary(ctx context.Context, a, b string) (domain.Summary, error) {
	a, b, err := s.pair(a, b)
	if err != nil {
		return domain.Summary{}, err
	}
	blob, ok, err := s.Repo.Summary(ctx, a, b)
	if err != nil {
		return domain.Summary{}, err
	}
	if !ok {
		return domain.Summary{}, perr.FailedPreconditionf("periods %s and %s have not been compared", a, b)
	}
	var sum domain.Summary
	if err := json.Unmarshal(blob, &sum); err != nil {
		return domain.Summary{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode comparison summary")
	}
	return sum, nil
}

// compared resolves the pair and fails when it has no stored result
func (s *Svc) compared(ctx context.Context, a, b string) (string, string, error) {
	sum, err := s.Summary(ctx, a, b)
	if err != nil {
		return "", "", err
	}
	return sum.PeriodA, sum.PeriodB, nil
}

// Common returns one page of common names
func (s *Svc) Common(ctx context.Context, a, b string, q domain.CommonQuery) (domain.CommonPage, error) {
	a, b, err := s.compared(ctx, a, b)
	if err != nil {
		return domain.CommonPage{}, err
	}
	pq := repokit.PageQuery{Page: q.Page, PerPage: q.PerPage}.Norm(100, 1000)
	rows, total, err := s.Repo.Common(ctx, a, b, q.Top80, pq.Offset(), pq.PerPage)
	if err != nil {
		return domain.CommonPage{}, err
	}
	return repokit.NewPage(rows, total, pq), nil
}

// Unique returns one page of records unique to one side
func (s *Svc) Unique(ctx context.Context, a, b string, side domain.Side, q domain.UniqueQuery) (domain.UniquePage, error) {
	a, b, err := s.compared(ctx, a, b)
	if err != nil {
		return domain.UniquePage{}, err
	}
	pq := repokit.PageQuery{Page: q.Page, PerPage: q.PerPage}.Norm(100, 1000)
	rows, total, err := s.Repo.Unique(ctx, a, b, side, q.Top80Only, pq.Offset(), pq.PerPage)
	if err != nil {
		return domain.UniquePage{}, err
	}
	return repokit.NewPage(rows, total, pq), nil
}

// AllCommon returns every stored common name of a pair
func (s *Svc) AllCommon(ctx context.Context, a, b, top80 string) ([]domain.CommonRow, error) {
	a, b, err := s.compared(ctx, a, b)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.Repo.Common(ctx, a, b, top80, 0, 0)
	return rows, err
}

// AllUnique returns every stored unique record of one side
func (s *Svc) AllUnique(ctx context.Context, a, b string, side domain.Side, top80Only bool) ([]domain.UniqueRow, error) {
	a, b, err := s.compared(ctx, a, b)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.Repo.Unique(ctx, a, b, side, top80Only, 0, 0)
	return rows, err
}
