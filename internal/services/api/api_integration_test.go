//go:build integration_pg
// +build integration_pg

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"namecensus/internal/adapters/ingest"
	"namecensus/internal/platform/config"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/platform/store"
	analyticsdom "namecensus/internal/services/analytics/domain"
	comparisondom "namecensus/internal/services/comparison/domain"
	"namecensus/internal/services/periods/catalog"
	"namecensus/internal/services/periods/domain"
	periodsmod "namecensus/internal/services/periods/module"
	"namecensus/internal/services/schema"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

var sources = map[string][][]string{
	"2022.xlsx": {
		{"firstname", "birthday", "birthmonth", "birthyear"},
		{"Anna", "1", "1", "1990"},
		{"Anna", "2", "2", "1991"},
		{"Ben", "3", "3", "1990"},
		{"Carl", "4", "4", "1985"},
		{"Xi", "1", "1", "1990"},
	},
	"2023.xlsx": {
		{"firstname", "birthday", "birthmonth", "birthyear"},
		{"ANNA", "5", "5", "2000"},
		{"Dora", "6", "6", "2001"},
		{"ben", "7", "7", "2002"},
	},
}

type client struct {
	t   *testing.T
	srv *phttp.Server
}

func (c client) do(method, path string, body any, into any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c.srv.Router().Mux().ServeHTTP(rec, req)
	if into == nil {
		return rec.Code
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		c.t.Fatalf("%s %s: decode: %v (%s)", method, path, err, rec.Body.String())
	}
	raw, _ := json.Marshal(env.Data)
	if err := json.Unmarshal(raw, into); err != nil {
		c.t.Fatalf("%s %s: data: %v", method, path, err)
	}
	return rec.Code
}

func TestIntegration_IngestAnalyzeCompareExport(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 4}})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	if err := schema.Ensure(ctx, st.PG); err != nil {
		t.Fatalf("schema: %v", err)
	}
	// idempotent on a second boot
	if err := schema.Ensure(ctx, st.PG); err != nil {
		t.Fatalf("schema again: %v", err)
	}

	cat, err := catalog.New(
		domain.Period{Key: "2022", Label: "Class of 2022", Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "2022.xlsx"}},
		domain.Period{Key: "2023", Label: "Class of 2023", Source: ingest.Ref{Kind: ingest.KindWorkbook, Path: "2023.xlsx"}},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	srv := phttp.NewServer(config.New())
	Mount(srv.Router(), Options{
		Config: config.New(),
		Store:  st,
		Periods: &periodsmod.Inject{
			Catalog: cat,
			Fetcher: ingest.FetcherFunc(func(_ context.Context, ref ingest.Ref) ([][]string, error) {
				return sources[ref.Path], nil
			}),
		},
	})
	c := client{t: t, srv: srv}

	var ing domain.IngestResult
	if code := c.do(http.MethodPost, "/api/v1/periods/2022/ingest", nil, &ing); code != http.StatusOK {
		t.Fatalf("ingest 2022: %d", code)
	}
	if ing.Total != 5 || ing.Included != 4 || ing.Excluded != 1 {
		t.Fatalf("ingest stats: %+v", ing.Stats)
	}
	if code := c.do(http.MethodPost, "/api/v1/periods/2023/ingest", nil, &ing); code != http.StatusOK {
		t.Fatalf("ingest 2023: %d", code)
	}

	// comparing before analysis is a precondition failure
	if code := c.do(http.MethodPost, "/api/v1/comparisons", comparisondom.RunRequest{PeriodA: "2022", PeriodB: "2023"}, nil); code != http.StatusConflict {
		t.Fatalf("early compare: %d", code)
	}

	var sum analyticsdom.Summary
	for _, key := range []string{"2022", "2023"} {
		if code := c.do(http.MethodPost, "/api/v1/analytics/"+key+"/run", nil, &sum); code != http.StatusOK {
			t.Fatalf("analyze %s: %d", key, code)
		}
	}
	if code := c.do(http.MethodGet, "/api/v1/analytics/2022/summary", nil, &sum); code != http.StatusOK {
		t.Fatalf("summary: %d", code)
	}
	if sum.TotalRecords != 4 || sum.UniqueNames != 3 || len(sum.Top80Names) == 0 || sum.Top80Names[0] != "Anna" {
		t.Fatalf("summary: %+v", sum)
	}

	var freq analyticsdom.FrequencyPage
	if code := c.do(http.MethodGet, "/api/v1/analytics/2022/frequencies?mode=exact", nil, &freq); code != http.StatusOK {
		t.Fatalf("frequencies: %d", code)
	}
	if freq.TotalCount != 3 || freq.Items[0].Name != "Anna" || freq.Items[0].Count != 2 {
		t.Fatalf("frequencies: %+v", freq)
	}

	var cmp comparisondom.Summary
	if code := c.do(http.MethodPost, "/api/v1/comparisons", comparisondom.RunRequest{PeriodA: "2022", PeriodB: "2023"}, &cmp); code != http.StatusOK {
		t.Fatalf("compare: %d", code)
	}
	if cmp.CommonNamesCount != 2 || cmp.UniqueToACount != 1 || cmp.UniqueToBCount != 1 {
		t.Fatalf("comparison: %+v", cmp.Summary)
	}

	var common comparisondom.CommonPage
	if code := c.do(http.MethodGet, "/api/v1/comparisons/2022/2023/common", nil, &common); code != http.StatusOK {
		t.Fatalf("common: %d", code)
	}
	if len(common.Items) != 2 || common.Items[0].Name != "anna" || common.Items[0].TotalFrequency != 3 {
		t.Fatalf("common: %+v", common.Items)
	}

	rec := httptest.NewRecorder()
	srv.Router().Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/exports/comparisons/2022/2023/common?format=csv", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"anna"`) {
		t.Fatalf("export body: %q", rec.Body.String())
	}

	// re-ingest drops the derived results of the period
	if code := c.do(http.MethodPost, "/api/v1/periods/2022/ingest", nil, &ing); code != http.StatusOK {
		t.Fatalf("re-ingest: %d", code)
	}
	if code := c.do(http.MethodGet, "/api/v1/comparisons/2022/2023/summary", nil, nil); code != http.StatusConflict {
		t.Fatalf("stale comparison: %d", code)
	}
}
