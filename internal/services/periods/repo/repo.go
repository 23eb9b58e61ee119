// Package repo provides postgres access for periods and their records
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"namecensus/internal/core/records"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/services/periods/domain"
)

// Repo defines the repository contract for periods
type Repo interface {
	// AcquireLease claims the ingest lease of a period, false when another run holds it
	// a lease older than stale is taken over
	AcquireLease(ctx context.Context, period string, stale time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, period string) error

	// ClearRecords drops the stored rows of a period
	// analysis and comparison results built on those rows are dropped with them
	ClearRecords(ctx context.Context, period string) error
	// CopyRecords bulk loads one batch of rows
	CopyRecords(ctx context.Context, period string, rows []RowRecord) (int64, error)
	UpsertPeriod(ctx context.Context, p RowPeriod) error
	MarkAnalyzed(ctx context.Context, period string, at time.Time) error

	Periods(ctx context.Context) ([]RowPeriod, error)
	Counts(ctx context.Context, period string) (map[domain.TableType]int, error)
	Page(ctx context.Context, period string, t domain.TableType, q ListQuery) ([]domain.RecordRow, int, error)
	All(ctx context.Context, period string, t domain.TableType) ([]domain.RecordRow, error)
	Included(ctx context.Context, period string) ([]records.Record, error)
}

// RowPeriod represents a periods row
type RowPeriod struct {
	Key           string
	Label         string
	TotalRows     int
	IncludedCount int
	ExcludedCount int
	IngestedAt    *time.Time
	AnalyzedAt    *time.Time
}

// RowRecord is one source row with its cleaned counterpart
type RowRecord struct {
	Raw    [4]string
	Record records.Record
}

// ListQuery is a validated page request
type ListQuery struct {
	Offset int
	Limit  int
	SortBy string
	Desc   bool
}

// sortable maps api sort names to columns per table type
var sortable = map[domain.TableType]map[string]string{
	domain.TableOriginal: {
		"position": "position", "name": "raw_name", "day": "raw_day", "month": "raw_month", "year": "raw_year",
	},
	domain.TableIncluded: {
		"position": "position", "name": "name", "day": "day::int", "month": "month::int", "year": "year::int",
	},
	domain.TableExcluded: {
		"position": "position", "name": "raw_name", "day": "raw_day", "month": "raw_month", "year": "raw_year",
		"exclusion_reason": "exclusion_reason",
	},
}

// SortColumn resolves a sort name against the whitelist of t
func SortColumn(t domain.TableType, name string) (string, error) {
	if name == "" {
		name = "position"
	}
	col, ok := sortable[t][strings.ToLower(name)]
	if !ok {
		return "", perr.WithField(perr.InvalidArgf("cannot sort %s records by %q", t, name), "sort_by")
	}
	return col, nil
}

var recordColumns = []string{
	"period", "id", "position", "status",
	"raw_name", "raw_day", "raw_month", "raw_year",
	"name", "day", "month", "year", "exclusion_reason",
}

type (
	// PG implements the Repo interface using Postgres
	PG struct{}

	// queries holds the database query methods
	queries struct{ q repokit.Queryer }
)

// NewPG creates a new Postgres repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Postgres queryer to the Repo implementation
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

func (r *queries) AcquireLease(ctx context.Context, period string, stale time.Duration) (bool, error) {
	rows, err := r.q.Query(ctx, `
		insert into ingest_leases (period)
		values ($1)
		on conflict (period) do update set acquired_at = now()
		where ingest_leases.acquired_at < now() - make_interval(secs => $2)
		returning true
	`, period, stale.Seconds())
	if err != nil {
		return false, perr.FromPostgres(err, "acquire ingest lease")
	}
	defer rows.Close()
	claimed := rows.Next()
	return claimed, rows.Err()
}

func (r *queries) ReleaseLease(ctx context.Context, period string) error {
	_, err := r.q.Exec(ctx, `delete from ingest_leases where period = $1`, period)
	return err
}

// staleResults are derived from period_records and go away on re-ingest
var staleResults = []string{
	`delete from analysis_summaries where period = $1`,
	`delete from comparisons where period_a = $1 or period_b = $1`,
	`delete from comparison_common where period_a = $1 or period_b = $1`,
	`delete from comparison_unique where period_a = $1 or period_b = $1`,
	`delete from period_records where period = $1`,
}

func (r *queries) ClearRecords(ctx context.Context, period string) error {
	for _, sql := range staleResults {
		if _, err := r.q.Exec(ctx, sql, period); err != nil {
			return perr.FromPostgres(err, "clear stored period")
		}
	}
	return nil
}

func (r *queries) CopyRecords(ctx context.Context, period string, rows []RowRecord) (int64, error) {
	data := make([][]any, 0, len(rows))
	for _, rr := range rows {
		rec := rr.Record
		data = append(data, []any{
			period, rec.ID, rec.Position, rec.Status.String(),
			rr.Raw[0], rr.Raw[1], rr.Raw[2], rr.Raw[3],
			rec.Name, rec.Day, rec.Month, rec.Year, rec.Reason,
		})
	}
	n, err := repokit.CopyRows(ctx, r.q, "period_records", recordColumns, data)
	return n, perr.FromPostgres(err, "copy period records")
}

func (r *queries) UpsertPeriod(ctx context.Context, p RowPeriod) error {
	_, err := r.q.Exec(ctx, `
		insert into periods (key, label, total_rows, included_count, excluded_count, ingested_at)
		values ($1, $2, $3, $4, $5, $6)
		on conflict (key) do update set
			label = excluded.label,
			total_rows = excluded.total_rows,
			included_count = excluded.included_count,
			excluded_count = excluded.excluded_count,
			ingested_at = excluded.ingested_at,
			analyzed_at = null
	`, p.Key, p.Label, p.TotalRows, p.IncludedCount, p.ExcludedCount, p.IngestedAt)
	return perr.FromPostgres(err, "upsert period")
}

func (r *queries) MarkAnalyzed(ctx context.Context, period string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `update periods set analyzed_at = $2 where key = $1`, period, at)
	if err != nil {
		return err
	}
	if tag != nil && tag.RowsAffected() == 0 {
		return perr.FailedPreconditionf("period %s has not been ingested", period)
	}
	return nil
}

func (r *queries) Periods(ctx context.Context) ([]RowPeriod, error) {
	rows, err := r.q.Query(ctx, `
		select key, label, total_rows, included_count, excluded_count, ingested_at, analyzed_at
		from periods
		order by key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RowPeriod
	for rows.Next() {
		var p RowPeriod
		if err := rows.Scan(
			&p.Key,
			&p.Label,
			&p.TotalRows,
			&p.IncludedCount,
			&p.ExcludedCount,
			&p.IngestedAt,
			&p.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *queries) Counts(ctx context.Context, period string) (map[domain.TableType]int, error) {
	rows, err := r.q.Query(ctx, `
		select status, count(*)
		from period_records
		where period = $1
		group by status
	`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[domain.TableType]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[domain.TableType(status)] += n
		out[domain.TableOriginal] += n
	}
	return out, rows.Err()
}

// selectRows builds the projection and filter of a table type
func selectRows(t domain.TableType, arg func(any) string, period string) string {
	var sb strings.Builder
	switch t {
	case domain.TableIncluded:
		sb.WriteString(`select id, position, name, day, month, year, '' from period_records`)
	case domain.TableExcluded:
		sb.WriteString(`select id, position, raw_name, raw_day, raw_month, raw_year, exclusion_reason from period_records`)
	default:
		sb.WriteString(`select id, position, raw_name, raw_day, raw_month, raw_year, '' from period_records`)
	}
	sb.WriteString(" where period = " + arg(period))
	if t != domain.TableOriginal {
		sb.WriteString(" and status = " + arg(string(t)))
	}
	return sb.String()
}

func (r *queries) Page(ctx context.Context, period string, t domain.TableType, lq ListQuery) ([]domain.RecordRow, int, error) {
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	countSQL := "select count(*) from (" + selectRows(t, arg, period) + ") s"
	var total int
	if err := r.q.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, err := SortColumn(t, lq.SortBy)
	if err != nil {
		return nil, 0, err
	}
	dir := "asc"
	if lq.Desc {
		dir = "desc"
	}

	args = args[:0]
	var sb strings.Builder
	sb.WriteString(selectRows(t, arg, period))
	sb.WriteString(" order by " + col + " " + dir)
	if col != "position" {
		sb.WriteString(", position asc")
	}
	sb.WriteString(" limit " + arg(lq.Limit) + " offset " + arg(lq.Offset))

	out, err := r.scanRows(ctx, sb.String(), args...)
	return out, total, err
}

func (r *queries) All(ctx context.Context, period string, t domain.TableType) ([]domain.RecordRow, error) {
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }
	sql := selectRows(t, arg, period) + " order by position asc"
	return r.scanRows(ctx, sql, args...)
}

func (r *queries) scanRows(ctx context.Context, sql string, args ...any) ([]domain.RecordRow, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RecordRow
	for rows.Next() {
		var rr domain.RecordRow
		if err := rows.Scan(&rr.ID, &rr.Position, &rr.Name, &rr.Day, &rr.Month, &rr.Year, &rr.Reason); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (r *queries) Included(ctx context.Context, period string) ([]records.Record, error) {
	rows, err := r.q.Query(ctx, `
		select id, position, name, day, month, year
		from period_records
		where period = $1 and status = 'included'
		order by position
	`, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []records.Record
	for rows.Next() {
		rec := records.Record{Status: records.StatusIncluded}
		if err := rows.Scan(&rec.ID, &rec.Position, &rec.Name, &rec.Day, &rec.Month, &rec.Year); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
