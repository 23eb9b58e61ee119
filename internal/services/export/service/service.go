// Package service turns stored records and results into downloadable tables
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"namecensus/internal/adapters/export"
	"namecensus/internal/core/duplicates"
	"namecensus/internal/core/normalize"
	"namecensus/internal/platform/logger"
	analyticsdom "namecensus/internal/services/analytics/domain"
	comparisondom "namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/export/domain"
	periodsdom "namecensus/internal/services/periods/domain"
)

// Svc implements domain.ServicePort
type Svc struct {
	periods    periodsdom.RecordsPort
	analytics  analyticsdom.ResultsPort
	comparison comparisondom.ResultsPort
	opts       export.Options
	log        logger.Logger
	now        func() time.Time
}

// New creates a new export service
func New(periods periodsdom.RecordsPort, analytics analyticsdom.ResultsPort, comparison comparisondom.ResultsPort, opts export.Options) *Svc {
	if periods == nil || analytics == nil || comparison == nil {
		panic("export.Service requires the periods, analytics and comparison ports")
	}
	s := &Svc{
		periods:    periods,
		analytics:  analytics,
		comparison: comparison,
		opts:       opts,
		log:        *logger.Named("export"),
		now:        time.Now,
	}
	if s.opts.Now == nil {
		s.opts.Now = func() time.Time { return s.now() }
	}
	return s
}

var recordTitles = map[periodsdom.TableType]string{
	periodsdom.TableIncluded: "DATA INCLUDED REPORT",
	periodsdom.TableExcluded: "DATA EXCLUSION REPORT",
	periodsdom.TableOriginal: "ORIGINAL DATA REPORT",
}

// Records exports every stored row of one table type in position order
func (s *Svc) Records(ctx context.Context, key string, t periodsdom.TableType, f export.Format) (domain.Download, error) {
	p, err := s.periods.Describe(key)
	if err != nil {
		return domain.Download{}, err
	}
	rows, err := s.periods.AllRecords(ctx, p.Key, t)
	if err != nil {
		return domain.Download{}, err
	}
	tbl := export.Table{
		Title:   recordTitles[t] + " - " + p.Label,
		Columns: []string{"position", "firstname", "birthday", "birthmonth", "birthyear"},
		Rows:    make([][]any, 0, len(rows)),
	}
	if t != periodsdom.TableIncluded {
		tbl.Columns = append(tbl.Columns, "exclusion_reason")
	}
	for _, r := range rows {
		row := []any{r.Position, r.Name, r.Day, r.Month, r.Year}
		if t != periodsdom.TableIncluded {
			row = append(row, r.Reason)
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return s.download(p.Label, string(t), f, tbl), nil
}

// Frequencies exports a stored name ranking with a metadata block
func (s *Svc) Frequencies(ctx context.Context, key string, mode normalize.Mode, top80Only bool, f export.Format) (domain.Download, error) {
	p, err := s.periods.Describe(key)
	if err != nil {
		return domain.Download{}, err
	}
	rows, err := s.analytics.AllFrequencies(ctx, p.Key, mode, top80Only)
	if err != nil {
		return domain.Download{}, err
	}
	sum, err := s.analytics.Summary(ctx, p.Key)
	if err != nil {
		return domain.Download{}, err
	}

	tbl := export.Table{
		Title:   "MOST COMMON NAMES - " + p.Label,
		Columns: []string{"rank", "name", "frequency", "percentage_of_total", "cumulative_count", "cumulative_percentage", "in_top80"},
		Rows:    make([][]any, 0, len(rows)),
		Meta: map[string]any{
			"period":        p.Key,
			"label":         p.Label,
			"identifier":    p.Identifier,
			"mode":          mode.String(),
			"total_names":   len(rows),
			"total_records": sum.TotalRecords,
			"top80_count":   sum.Top80Count,
			"coverage":      "80% of included records",
		},
	}
	for _, r := range rows {
		tbl.Rows = append(tbl.Rows, []any{r.Rank, r.Name, r.Count, r.PercentageOfTotal, r.CumulativeCount, r.CumulativePercentage, r.InTop80})
	}
	kind := "common_names_" + mode.String()
	if top80Only {
		kind += "_top80"
	}
	return s.download(p.Label, kind, f, tbl), nil
}

// Duplicates exports the groups of one pair flattened to one row per member
func (s *Svc) Duplicates(ctx context.Context, key string, pair duplicates.Pair, f export.Format) (domain.Download, error) {
	p, err := s.periods.Describe(key)
	if err != nil {
		return domain.Download{}, err
	}
	groups, err := s.analytics.AllDuplicates(ctx, p.Key, pair)
	if err != nil {
		return domain.Download{}, err
	}
	tbl := export.Table{
		Title: "DUPLICATES " + pair.String() + " - " + p.Label,
		Columns: []string{
			"group", pair.A.String(), pair.B.String(), "size",
			"position", "firstname", "birthday", "birthmonth", "birthyear",
		},
	}
	for i, g := range groups {
		for _, m := range g.Members {
			tbl.Rows = append(tbl.Rows, []any{i + 1, g.ValueA, g.ValueB, g.Size, m.Position, m.Name, m.Day, m.Month, m.Year})
		}
	}
	return s.download(p.Label, "duplicates_"+pair.String(), f, tbl), nil
}

// Common exports the common names of a compared pair
func (s *Svc) Common(ctx context.Context, a, b, top80 string, f export.Format) (domain.Download, error) {
	rows, err := s.comparison.AllCommon(ctx, a, b, top80)
	if err != nil {
		return domain.Download{}, err
	}
	la, lb := s.label(a), s.label(b)
	tbl := export.Table{
		Title: fmt.Sprintf("COMMON NAMES - %s vs %s", la, lb),
		Columns: []string{
			"name", "frequency_a", "frequency_b", "total_frequency", "in_top80_a", "in_top80_b", "rank_a", "rank_b",
		},
		Rows: make([][]any, 0, len(rows)),
		Meta: map[string]any{"period_a": a, "period_b": b, "top80": top80, "total_names": len(rows)},
	}
	for _, e := range rows {
		tbl.Rows = append(tbl.Rows, []any{e.Name, e.FrequencyA, e.FrequencyB, e.TotalFrequency, e.InTop80A, e.InTop80B, e.RankA, e.RankB})
	}
	return s.download(la+" vs "+lb, "common", f, tbl), nil
}

// Unique exports the records of one side whose name never occurs in the other
func (s *Svc) Unique(ctx context.Context, a, b string, side comparisondom.Side, top80Only bool, f export.Format) (domain.Download, error) {
	rows, err := s.comparison.AllUnique(ctx, a, b, side, top80Only)
	if err != nil {
		return domain.Download{}, err
	}
	own, other := a, b
	if side == comparisondom.SideB {
		own, other = b, a
	}
	lo, lt := s.label(own), s.label(other)
	tbl := export.Table{
		Title:   fmt.Sprintf("NAMES UNIQUE TO %s (NOT IN %s)", lo, lt),
		Columns: []string{"position", "firstname", "normalized_name", "birthday", "birthmonth", "birthyear", "in_top80"},
		Rows:    make([][]any, 0, len(rows)),
		Meta:    map[string]any{"period": own, "compared_with": other, "top80_only": top80Only, "total_records": len(rows)},
	}
	for _, u := range rows {
		tbl.Rows = append(tbl.Rows, []any{u.Position, u.Name, u.NormalizedName, u.Day, u.Month, u.Year, u.InTop80})
	}
	return s.download(lo+" vs "+lt, "unique", f, tbl), nil
}

// Render writes d in its format
func (s *Svc) Render(w io.Writer, d domain.Download) error {
	if err := export.Write(w, d.Format, d.Table, s.opts); err != nil {
		s.log.Error().Err(err).Str("file", d.Filename).Msg("render export")
		return err
	}
	s.log.Info().Str("file", d.Filename).Int("rows", len(d.Table.Rows)).Msg("export rendered")
	return nil
}

func (s *Svc) label(key string) string {
	if p, err := s.periods.Describe(key); err == nil {
		return p.Label
	}
	return key
}

func (s *Svc) download(display, kind string, f export.Format, t export.Table) domain.Download {
	return domain.Download{Filename: export.Filename(display, kind, f, s.now()), Format: f, Table: t}
}
