package ch

import (
	"context"
	"testing"

	perr "namecensus/internal/platform/errors"
)

func TestOpenRejectsBadDSN(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), Config{URL: "clickhouse://[::1"})
	if err == nil {
		t.Fatalf("Open expected error for malformed dsn")
	}
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", perr.CodeOf(err))
	}
}

func TestInsertValidatesTable(t *testing.T) {
	t.Parallel()

	cl := &CH{}
	err := cl.Insert(context.Background(), "names; drop table x", [][]any{{1}})
	if !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("want invalid argument, got %v", err)
	}
	// empty batches never touch the connection
	if err := cl.Insert(context.Background(), "analytics.name_frequencies", nil); err != nil {
		t.Fatalf("empty insert: %v", err)
	}
}

func TestCloseNil(t *testing.T) {
	t.Parallel()

	var cl *CH
	if err := cl.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := (&CH{}).Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestBuildClientInfo(t *testing.T) {
	t.Parallel()

	info := BuildClientInfo("cli", "  ")
	got := map[string]string{}
	for _, p := range info.Products {
		got[p.Name] = p.Version
	}
	if got["namecensus"] != "dev" || got["role"] != "cli" || got["tag"] != "unknown" {
		t.Fatalf("products = %v", got)
	}
	if got["go"] == "" || got["commit"] == "" {
		t.Fatalf("missing build products: %v", got)
	}
}
