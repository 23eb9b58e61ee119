// Package archive mirrors raw period rows into clickhouse
package archive

import (
	"context"
	"sync"
	"time"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
	"namecensus/internal/services/periods/repo"
)

// Table is the clickhouse table holding raw rows
const Table = "records_original"

const ddl = `
create table if not exists ` + Table + ` (
	period           LowCardinality(String),
	id               String,
	position         UInt32,
	status           LowCardinality(String),
	firstname        String,
	birthday         String,
	birthmonth       String,
	birthyear        String,
	exclusion_reason String,
	ingested_at      DateTime64(3, 'UTC')
)
engine = ReplacingMergeTree(ingested_at)
order by (period, position)
`

// CH writes archive rows through the store clickhouse seam
type CH struct {
	ch   store.Clickhouse
	once sync.Once
	err  error
}

// New returns an archive over ch
func New(ch store.Clickhouse) *CH {
	if ch == nil {
		panic("archive.CH requires a non nil clickhouse seam")
	}
	return &CH{ch: ch}
}

func (a *CH) ensure(ctx context.Context) error {
	a.once.Do(func() {
		if err := a.ch.Exec(ctx, ddl); err != nil {
			a.err = perr.Wrap(err, perr.ErrorCodeUnavailable, "create clickhouse archive table")
		}
	})
	return a.err
}

// Archive replaces the archived rows of period with rows
func (a *CH) Archive(ctx context.Context, period string, rows []repo.RowRecord, at time.Time) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	if err := a.ch.Exec(ctx, "alter table "+Table+" delete where period = ?", period); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "clear clickhouse archive")
	}
	data := make([][]any, 0, len(rows))
	for _, rr := range rows {
		data = append(data, []any{
			period,
			rr.Record.ID,
			uint32(max(rr.Record.Position, 0)),
			rr.Record.Status.String(),
			rr.Raw[0], rr.Raw[1], rr.Raw[2], rr.Raw[3],
			rr.Record.Reason,
			at.UTC(),
		})
	}
	if err := a.ch.Insert(ctx, Table, data); err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "write clickhouse archive")
	}
	return nil
}
