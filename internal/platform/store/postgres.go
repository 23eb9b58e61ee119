package store

import (
	"context"
	"errors"
	"strings"
	"time"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/logger"
	"namecensus/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	_ TxRunner = (*pgAdapter)(nil)
	_ Copier   = (*pgAdapter)(nil)
	_ Copier   = querier{}
)

const (
	pingBackoffStart   = 150 * time.Millisecond
	pingBackoffCeiling = 2 * time.Second
)

// openPG builds the pool and only returns once a ping succeeds
func openPG(ctx context.Context, cfg Config, log logger.Logger) (*pgAdapter, error) {
	var tracer pg.QueryTracer
	if cfg.PG.LogSQL {
		tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		SlowMs:   cfg.PG.SlowQueryMs,
		AppName:  cfg.AppName,
	}, tracer)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = 20
	}
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	backoff := pingBackoffStart
	var lastErr error
	for i := range attempts {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		lastErr = p.Pool.Ping(pctx)
		cancel()
		if lastErr == nil {
			return newPGAdapter(p), nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, pingBackoffCeiling)
	}
	p.Close()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, perr.Wrapf(lastErr, perr.ErrorCodeUnavailable, "postgres ping failed after %d attempts", attempts)
}

// pgExecutor is the statement surface shared by the pool and a transaction
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// traceFunc reports one finished statement
type traceFunc func(ctx context.Context, sql string, args []any, start time.Time, err error)

// querier runs statements on a pgExecutor and traces each one
type querier struct {
	db    pgExecutor
	trace traceFunc
}

func (q querier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.db.Exec(ctx, sql, args...)
	q.trace(ctx, sql, args, start, err)
	return tag{ct}, err
}

func (q querier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := q.db.Query(ctx, sql, args...)
	q.trace(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// QueryRow traces once the caller scans, so the scan error is recorded
func (q querier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := q.db.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(err error) { q.trace(ctx, sql, args, start, err) }}
}

func (q querier) CopyFrom(ctx context.Context, table string, columns []string, rs [][]any) (int64, error) {
	start := time.Now()
	n, err := q.db.CopyFrom(ctx, pgx.Identifier(strings.Split(table, ".")), columns, pgx.CopyFromRows(rs))
	q.trace(ctx, "COPY "+table, []any{len(rs)}, start, err)
	return n, err
}

// pgAdapter is the pool backed TxRunner
type pgAdapter struct {
	querier
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter {
	a := &pgAdapter{p: p}
	a.querier = querier{db: p.Pool, trace: a.emit}
	return a
}

// Tx begins on the pool and hands fn a traced querier bound to the transaction
func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(querier{db: tx, trace: a.emit}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	var one int
	return a.QueryRow(ctx, "select 1").Scan(&one)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if a.p == nil || a.p.Tracer == nil {
		return
	}
	us := time.Since(start).Microseconds()
	a.p.Tracer.OnQuery(ctx, pg.QueryEvent{SQL: sql, Args: args, ElapsedUS: us, Err: err, Slow: a.p.IsSlow(us)})
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return err
}

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
