package repokit

import (
	"context"
	"fmt"
	"strings"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
)

// insertChunk bounds a fallback multi row insert under the 65535 bind parameter cap
const insertChunk = 60000

// CopyRows bulk loads rows into table
// queriers that speak the copy protocol use it, anything else gets chunked multi row inserts
func CopyRows(ctx context.Context, q Queryer, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return 0, perr.InvalidArgf("copy %s: row %d has %d values, want %d", table, i, len(r), len(columns))
		}
	}
	if c, ok := q.(store.Copier); ok {
		return c.CopyFrom(ctx, table, columns, rows)
	}

	per := max(insertChunk/len(columns), 1)
	var total int64
	for start := 0; start < len(rows); start += per {
		end := min(start+per, len(rows))
		sql, args := insertSQL(table, columns, rows[start:end])
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return total, err
		}
		if tag != nil {
			total += tag.RowsAffected()
		} else {
			total += int64(end - start)
		}
	}
	return total, nil
}

func insertSQL(table string, columns []string, rows [][]any) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	for i, r := range rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('(')
		for j, v := range r {
			if j > 0 {
				sb.WriteByte(',')
			}
			args = append(args, v)
			fmt.Fprintf(&sb, "$%d", len(args))
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}
