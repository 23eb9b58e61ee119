// Package repo provides persistence for comparison results
package repo

import (
	"context"
	"fmt"

	"namecensus/internal/core/compare"
	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
	"namecensus/internal/services/comparison/domain"
)

// Repo defines the comparison store; rows are keyed by the ordered pair (a, b)
type Repo interface {
	Clear(ctx context.Context, a, b string) error
	WriteSummary(ctx context.Context, a, b string, summary []byte) error
	WriteCommon(ctx context.Context, a, b string, rows []compare.Entry) error
	WriteUnique(ctx context.Context, a, b string, side domain.Side, rows []compare.UniqueEntry) error

	Summary(ctx context.Context, a, b string) ([]byte, bool, error)
	// Common lists common names in stored order; limit 0 reads everything
	Common(ctx context.Context, a, b, top80 string, offset, limit int) ([]domain.CommonRow, int, error)
	// Unique lists one side's records in position order; limit 0 reads everything
	Unique(ctx context.Context, a, b string, side domain.Side, top80Only bool, offset, limit int) ([]domain.UniqueRow, int, error)
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

var pairTables = []string{"comparison_unique", "comparison_common", "comparisons"}

func (r *queries) Clear(ctx context.Context, a, b string) error {
	for _, t := range pairTables {
		if _, err := r.q.Exec(ctx, "delete from "+t+" where period_a = $1 and period_b = $2", a, b); err != nil {
			return perr.FromPostgresf(err, "clear %s", t)
		}
	}
	return nil
}

func (r *queries) WriteSummary(ctx context.Context, a, b string, summary []byte) error {
	_, err := r.q.Exec(ctx, `
		insert into comparisons (period_a, period_b, summary, computed_at)
		values ($1, $2, $3, now())
		on conflict (period_a, period_b) do update set summary = excluded.summary, computed_at = excluded.computed_at
	`, a, b, summary)
	return perr.FromPostgres(err, "write comparison summary")
}

func (r *queries) WriteCommon(ctx context.Context, a, b string, rows []compare.Entry) error {
	data := make([][]any, 0, len(rows))
	for i, e := range rows {
		data = append(data, []any{a, b, i + 1, e.Name, e.FrequencyA, e.FrequencyB, e.TotalFrequency, e.InTop80A, e.InTop80B, e.RankA, e.RankB})
	}
	_, err := repokit.CopyRows(ctx, r.q, "comparison_common", []string{
		"period_a", "period_b", "ord", "name", "frequency_a", "frequency_b", "total_frequency",
		"in_top80_a", "in_top80_b", "rank_a", "rank_b",
	}, data)
	return perr.FromPostgres(err, "write common names")
}

func (r *queries) WriteUnique(ctx context.Context, a, b string, side domain.Side, rows []compare.UniqueEntry) error {
	data := make([][]any, 0, len(rows))
	for _, u := range rows {
		data = append(data, []any{a, b, string(side), u.ID, u.Position, u.Name, u.NormalizedName, u.Day, u.Month, u.Year, u.InTop80})
	}
	_, err := repokit.CopyRows(ctx, r.q, "comparison_unique", []string{
		"period_a", "period_b", "side", "record_id", "position", "name", "normalized_name",
		"day", "month", "year", "in_top80",
	}, data)
	return perr.FromPostgresf(err, "write names unique to %s", side)
}

func (r *queries) Summary(ctx context.Context, a, b string) ([]byte, bool, error) {
	rows, err := r.q.Query(ctx, `select summary from comparisons where period_a = $1 and period_b = $2`, a, b)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var blob []byte
	if err := rows.Scan(&blob); err != nil {
		return nil, false, err
	}
	return blob, true, rows.Err()
}

// top80Filter maps a coverage filter onto a where fragment
var top80Filter = map[string]string{
	"":     "",
	"a":    " and in_top80_a",
	"b":    " and in_top80_b",
	"both": " and in_top80_a and in_top80_b",
}

func (r *queries) Common(ctx context.Context, a, b, top80 string, offset, limit int) ([]domain.CommonRow, int, error) {
	filter, ok := top80Filter[top80]
	if !ok {
		return nil, 0, perr.WithField(perr.InvalidArgf("unknown top80 filter %q (want a, b or both)", top80), "top80")
	}
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }
	where := " where period_a = " + arg(a) + " and period_b = " + arg(b) + filter

	var total int
	if err := r.q.QueryRow(ctx, "select count(*) from comparison_common"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `select name, frequency_a, frequency_b, total_frequency, in_top80_a, in_top80_b, rank_a, rank_b from comparison_common` +
		where + " order by ord"
	if limit > 0 {
		sql += " limit " + arg(limit) + " offset " + arg(offset)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]domain.CommonRow, 0)
	for rows.Next() {
		var e domain.CommonRow
		if err := rows.Scan(&e.Name, &e.FrequencyA, &e.FrequencyB, &e.TotalFrequency, &e.InTop80A, &e.InTop80B, &e.RankA, &e.RankB); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *queries) Unique(ctx context.Context, a, b string, side domain.Side, top80Only bool, offset, limit int) ([]domain.UniqueRow, int, error) {
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }
	where := " where period_a = " + arg(a) + " and period_b = " + arg(b) + " and side = " + arg(string(side))
	if top80Only {
		where += " and in_top80"
	}

	var total int
	if err := r.q.QueryRow(ctx, "select count(*) from comparison_unique"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `select record_id, position, name, normalized_name, day, month, year, in_top80 from comparison_unique` +
		where + " order by position"
	if limit > 0 {
		sql += " limit " + arg(limit) + " offset " + arg(offset)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]domain.UniqueRow, 0)
	for rows.Next() {
		var u domain.UniqueRow
		if err := rows.Scan(&u.ID, &u.Position, &u.Name, &u.NormalizedName, &u.Day, &u.Month, &u.Year, &u.InTop80); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}
