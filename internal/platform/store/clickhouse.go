package store

import (
	"context"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store/ch"
)

// chConn is the part of *ch.CH the archive seam needs
type chConn interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	role := cfg.CH.Role
	if role == "" {
		role = cfg.AppName
	}
	c, err := ch.Open(ctx, ch.Config{URL: cfg.CH.URL, Role: role, Tag: cfg.CH.Tag})
	if err != nil {
		return nil, err
	}
	return &chAdapter{c: c}, nil
}

type chAdapter struct{ c chConn }

var _ Clickhouse = (*chAdapter)(nil)

// Insert accepts rows in table column order
func (a *chAdapter) Insert(ctx context.Context, table string, data any) error {
	rows, ok := data.([][]any)
	if !ok {
		return perr.InvalidArgf("clickhouse insert into %s: want [][]any, got %T", table, data)
	}
	return a.c.Insert(ctx, table, rows)
}

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	return a.c.Exec(ctx, sql, args...)
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := a.c.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chAdapter) Ping(ctx context.Context) error { return a.c.Ping(ctx) }

func (a *chAdapter) Close() error { return a.c.Close() }

// chRows drops the error from driver Close to fit Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
