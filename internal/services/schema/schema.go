// Package schema holds the postgres tables backing the result sink
package schema

import (
	"context"
	_ "embed"
	"strings"

	perr "namecensus/internal/platform/errors"
	"namecensus/internal/platform/store"
)

//go:embed schema.sql
var ddl string

// Statements returns the DDL split into single statements, comments dropped
func Statements() []string {
	var (
		out []string
		sb  strings.Builder
	)
	for line := range strings.SplitSeq(ddl, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "--") {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
		if strings.HasSuffix(t, ";") {
			out = append(out, strings.TrimSpace(sb.String()))
			sb.Reset()
		}
	}
	if rest := strings.TrimSpace(sb.String()); rest != "" {
		out = append(out, rest)
	}
	return out
}

// Ensure creates missing tables and indexes in one transaction
// every statement is idempotent so it is safe on each boot
func Ensure(ctx context.Context, db store.TxRunner) error {
	return db.Tx(ctx, func(q store.RowQuerier) error {
		for i, stmt := range Statements() {
			if _, err := q.Exec(ctx, stmt); err != nil {
				return perr.Wrapf(err, perr.ErrorCodeDB, "schema statement %d", i+1)
			}
		}
		return nil
	})
}
