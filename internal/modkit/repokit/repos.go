// Package repokit holds the pieces every census repo shares: binders, bulk copy and paging
package repokit

import "namecensus/internal/platform/store"

type (
	// Queryer is what a bound repo runs sql against
	Queryer = store.RowQuerier
	// TxRunner opens the transactions services bind repos to
	TxRunner = store.TxRunner
)
