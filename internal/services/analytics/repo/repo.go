// Package repo provides postgres access for analysis results
package repo

import (
	"context"
	"fmt"
	"strings"

	"namecensus/internal/modkit/repokit"
	perr "namecensus/internal/platform/errors"
)

// Repo defines the repository contract for analytics
type Repo interface {
	// Clear drops every stored result of a period
	Clear(ctx context.Context, period string) error
	WriteFrequencies(ctx context.Context, period string, rows []RowFrequency) error
	WriteDistribution(ctx context.Context, period string, rows []RowBucket) error
	WriteGroups(ctx context.Context, period string, groups []RowGroup) error
	WriteSummary(ctx context.Context, period string, summary []byte) error

	Summary(ctx context.Context, period string) ([]byte, bool, error)
	Counts(ctx context.Context, period, mode string) (map[string]int, error)
	NameTotal(ctx context.Context, period, mode string) (int, error)
	Frequencies(ctx context.Context, period, mode string, top80Only bool, offset, limit int) ([]RowFrequency, int, error)
	Groups(ctx context.Context, period, pair string, offset, limit int) ([]RowGroup, int, error)
}

// RowFrequency represents a name_frequencies row
type RowFrequency struct {
	Mode               string
	Name               string
	Count              int
	Rank               int
	CumulativeCount    int
	CumulativeFraction float64
	InTop80            bool
}

// RowBucket represents a field_distributions row
type RowBucket struct {
	Field string
	Value string
	Count int
	Rank  int
}

// RowMember is a duplicate group member joined to its record
type RowMember struct {
	RecordID string
	Position int
	Name     string
	Day      string
	Month    string
	Year     string
}

// RowGroup represents a duplicate_groups row and its members
type RowGroup struct {
	Pair    string
	GroupNo int
	ValueA  string
	ValueB  string
	Size    int
	Members []RowMember
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

// resultTables are cleared together when a run is replaced
var resultTables = []string{
	"name_frequencies", "field_distributions", "duplicate_members", "duplicate_groups", "analysis_summaries",
}

func (r *queries) Clear(ctx context.Context, period string) error {
	for _, t := range resultTables {
		if _, err := r.q.Exec(ctx, "delete from "+t+" where period = $1", period); err != nil {
			return perr.FromPostgresf(err, "clear %s", t)
		}
	}
	return nil
}

func (r *queries) WriteFrequencies(ctx context.Context, period string, rows []RowFrequency) error {
	data := make([][]any, 0, len(rows))
	for _, f := range rows {
		data = append(data, []any{period, f.Mode, f.Name, f.Count, f.Rank, f.CumulativeCount, f.CumulativeFraction, f.InTop80})
	}
	_, err := repokit.CopyRows(ctx, r.q, "name_frequencies", []string{
		"period", "mode", "name", "count", "rank", "cumulative_count", "cumulative_fraction", "in_top80",
	}, data)
	return perr.FromPostgres(err, "write name frequencies")
}

func (r *queries) WriteDistribution(ctx context.Context, period string, rows []RowBucket) error {
	data := make([][]any, 0, len(rows))
	for _, b := range rows {
		data = append(data, []any{period, b.Field, b.Value, b.Count, b.Rank})
	}
	_, err := repokit.CopyRows(ctx, r.q, "field_distributions", []string{"period", "field", "value", "count", "rank"}, data)
	return perr.FromPostgres(err, "write field distributions")
}

func (r *queries) WriteGroups(ctx context.Context, period string, groups []RowGroup) error {
	gs := make([][]any, 0, len(groups))
	var ms [][]any
	for _, g := range groups {
		gs = append(gs, []any{period, g.Pair, g.GroupNo, g.ValueA, g.ValueB, g.Size})
		for _, m := range g.Members {
			ms = append(ms, []any{period, g.Pair, g.GroupNo, m.RecordID, m.Position})
		}
	}
	if _, err := repokit.CopyRows(ctx, r.q, "duplicate_groups", []string{
		"period", "pair", "group_no", "value_a", "value_b", "size",
	}, gs); err != nil {
		return perr.FromPostgres(err, "write duplicate groups")
	}
	_, err := repokit.CopyRows(ctx, r.q, "duplicate_members", []string{
		"period", "pair", "group_no", "record_id", "position",
	}, ms)
	return perr.FromPostgres(err, "write duplicate members")
}

func (r *queries) WriteSummary(ctx context.Context, period string, summary []byte) error {
	_, err := r.q.Exec(ctx, `
		insert into analysis_summaries (period, summary, computed_at)
		values ($1, $2, now())
		on conflict (period) do update set summary = excluded.summary, computed_at = excluded.computed_at
	`, period, summary)
	return perr.FromPostgres(err, "write analysis summary")
}

func (r *queries) Summary(ctx context.Context, period string) ([]byte, bool, error) {
	rows, err := r.q.Query(ctx, `select summary from analysis_summaries where period = $1`, period)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	var b []byte
	if err := rows.Scan(&b); err != nil {
		return nil, false, err
	}
	return b, true, rows.Err()
}

func (r *queries) Counts(ctx context.Context, period, mode string) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		select name, count
		from name_frequencies
		where period = $1 and mode = $2
	`, period, mode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}

func (r *queries) Frequencies(ctx context.Context, period, mode string, top80Only bool, offset, limit int) ([]RowFrequency, int, error) {
	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }

	var where strings.Builder
	where.WriteString(" where period = " + arg(period) + " and mode = " + arg(mode))
	if top80Only {
		where.WriteString(" and in_top80")
	}

	var total int
	if err := r.q.QueryRow(ctx, "select count(*) from name_frequencies"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sql := `select mode, name, count, rank, cumulative_count, cumulative_fraction, in_top80 from name_frequencies` +
		where.String() + " order by rank"
	if limit > 0 {
		sql += " limit " + arg(limit) + " offset " + arg(offset)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []RowFrequency
	for rows.Next() {
		var f RowFrequency
		if err := rows.Scan(&f.Mode, &f.Name, &f.Count, &f.Rank, &f.CumulativeCount, &f.CumulativeFraction, &f.InTop80); err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	return out, total, rows.Err()
}

func (r *queries) Groups(ctx context.Context, period, pair string, offset, limit int) ([]RowGroup, int, error) {
	var total int
	if err := r.q.QueryRow(ctx,
		`select count(*) from duplicate_groups where period = $1 and pair = $2`, period, pair,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	var args []any
	arg := func(v any) string { args = append(args, v); return fmt.Sprintf("$%d", len(args)) }
	sql := `select group_no, value_a, value_b, size from duplicate_groups where period = ` + arg(period) +
		` and pair = ` + arg(pair) + ` order by group_no`
	if limit > 0 {
		sql += " limit " + arg(limit) + " offset " + arg(offset)
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	var (
		out   []RowGroup
		index = map[int]int{}
		nos   []int
	)
	for rows.Next() {
		g := RowGroup{Pair: pair}
		if err := rows.Scan(&g.GroupNo, &g.ValueA, &g.ValueB, &g.Size); err != nil {
			rows.Close()
			return nil, 0, err
		}
		index[g.GroupNo] = len(out)
		nos = append(nos, g.GroupNo)
		out = append(out, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(out) == 0 {
		return out, total, nil
	}

	mrows, err := r.q.Query(ctx, `
		select m.group_no, m.record_id, m.position, p.name, p.day, p.month, p.year
		from duplicate_members m
		join period_records p on p.period = m.period and p.id = m.record_id
		where m.period = $1 and m.pair = $2 and m.group_no = any($3)
		order by m.group_no, m.position
	`, period, pair, nos)
	if err != nil {
		return nil, 0, err
	}
	defer mrows.Close()
	for mrows.Next() {
		var (
			no int
			m  RowMember
		)
		if err := mrows.Scan(&no, &m.RecordID, &m.Position, &m.Name, &m.Day, &m.Month, &m.Year); err != nil {
			return nil, 0, err
		}
		if i, ok := index[no]; ok {
			out[i].Members = append(out[i].Members, m)
		}
	}
	return out, total, mrows.Err()
}

func (r *queries) NameTotal(ctx context.Context, period, mode string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		select coalesce(sum(count), 0)::int
		from name_frequencies
		where period = $1 and mode = $2
	`, period, mode).Scan(&n)
	return n, err
}
