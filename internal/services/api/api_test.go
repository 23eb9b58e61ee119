package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/modkit"
	"namecensus/internal/modkit/module"
	"namecensus/internal/platform/config"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/platform/store"
	analyticsmod "namecensus/internal/services/analytics/module"
	"namecensus/internal/services/periods/catalog"
	"namecensus/internal/services/periods/domain"
	periodsmod "namecensus/internal/services/periods/module"
)

type emptyRows struct{}

func (emptyRows) Next() bool         { return false }
func (emptyRows) Scan(...any) error  { return nil }
func (emptyRows) Err() error         { return nil }
func (emptyRows) Close()             {}

type fakePG struct{}

func (fakePG) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakePG) Query(context.Context, string, ...any) (store.Rows, error)      { return emptyRows{}, nil }
func (fakePG) QueryRow(context.Context, string, ...any) store.Row             { return emptyRows{} }
func (f fakePG) Tx(ctx context.Context, fn func(store.RowQuerier) error) error {
	return fn(f)
}

func testServer(t *testing.T) *phttp.Server {
	t.Helper()
	cat, err := catalog.New(domain.Period{
		Key:    "2023",
		Label:  "Class of 2023",
		Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "2023.xlsx"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	srv := phttp.NewServer(config.New())
	Mount(srv.Router(), Options{
		Config: config.New(),
		Store:  &store.Store{PG: fakePG{}},
		Periods: &periodsmod.Inject{
			Catalog: cat,
			Fetcher: ingest.FetcherFunc(func(context.Context, ingest.Ref) ([][]string, error) { return nil, nil }),
		},
	})
	return srv
}

func get(t *testing.T, srv *phttp.Server, path string) (int, phttp.Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, rec.Body.String())
	}
	return rec.Code, env
}

func TestMount_RoutesEveryModule(t *testing.T) {
	srv := testServer(t)

	if code, _ := get(t, srv, "/api/v1/meta/engine"); code != http.StatusOK {
		t.Fatalf("engine: got %d", code)
	}
	if code, _ := get(t, srv, "/api/v1/periods/2023"); code != http.StatusOK {
		t.Fatalf("period: got %d", code)
	}
	if code, _ := get(t, srv, "/api/v1/periods/1999"); code != http.StatusNotFound {
		t.Fatalf("unknown period: got %d", code)
	}
	if code, _ := get(t, srv, "/api/v1/analytics/1999/summary"); code != http.StatusNotFound {
		t.Fatalf("analytics unknown period: got %d", code)
	}
	if code, _ := get(t, srv, "/api/v1/comparisons/2023/2023/summary"); code != http.StatusBadRequest {
		t.Fatalf("self comparison: got %d", code)
	}
}

func TestModules_WiresPorts(t *testing.T) {
	cat, err := catalog.New(domain.Period{
		Key:    "2023",
		Label:  "Class of 2023",
		Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "2023.xlsx"},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	mods := Modules(modkit.Deps{Cfg: config.New(), PG: fakePG{}}, &periodsmod.Inject{Catalog: cat})

	var names []string
	for _, m := range mods {
		names = append(names, m.Name())
	}
	if strings.Join(names, ",") != "meta,periods,analytics,comparisons,exports" {
		t.Fatalf("modules %v", names)
	}
	if p, ok := module.PortsOf[analyticsmod.Ports](mods[2]); !ok || p.Results == nil {
		t.Fatalf("analytics ports missing")
	}
}
