package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"namecensus/internal/core/duplicates"
	perr "namecensus/internal/platform/errors"
	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/services/analytics/domain"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSvc struct {
	key   string
	pair  duplicates.Pair
	freq  domain.FrequencyQuery
	group domain.GroupQuery
}

func (s *stubSvc) Run(_ context.Context, key string) (domain.Summary, error) {
	s.key = key
	return domain.Summary{Period: key}, nil
}

func (s *stubSvc) Summary(_ context.Context, key string) (domain.Summary, error) {
	return domain.Summary{}, perr.FailedPreconditionf("period %s has not been analyzed", key)
}

func (s *stubSvc) Frequencies(_ context.Context, key string, q domain.FrequencyQuery) (domain.FrequencyPage, error) {
	s.key, s.freq = key, q
	return domain.FrequencyPage{Items: []domain.FrequencyRow{}}, nil
}

func (s *stubSvc) Duplicates(_ context.Context, key string, p duplicates.Pair, q domain.GroupQuery) (domain.GroupPage, error) {
	s.key, s.pair, s.group = key, p, q
	return domain.GroupPage{Items: []domain.DuplicateGroup{}}, nil
}

func serve(t *testing.T, svc domain.ServicePort, method, target string) (int, map[string]any) {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), svc)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRun(t *testing.T) {
	svc := &stubSvc{}
	code, body := serve(t, svc, stdhttp.MethodPost, "/2023/run")
	require.Equal(t, stdhttp.StatusOK, code)
	assert.Equal(t, "2023", svc.key)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "2023", data["period"])
}

func TestSummary_NotAnalyzed(t *testing.T) {
	code, body := serve(t, &stubSvc{}, stdhttp.MethodGet, "/2023/summary")
	assert.Equal(t, stdhttp.StatusConflict, code)
	assert.Contains(t, body["error"], "has not been analyzed")
}

func TestFrequencies_Query(t *testing.T) {
	svc := &stubSvc{}
	code, _ := serve(t, svc, stdhttp.MethodGet, "/2023/frequencies?mode=normalized&top80_only=true&per_page=20")
	require.Equal(t, stdhttp.StatusOK, code)
	assert.Equal(t, domain.FrequencyQuery{Mode: "normalized", Page: 1, PerPage: 20, Top80Only: true}, svc.freq)

	code, _ = serve(t, svc, stdhttp.MethodGet, "/2023/frequencies?mode=phonetic")
	assert.Equal(t, stdhttp.StatusBadRequest, code)
}

func TestDuplicates_Pair(t *testing.T) {
	svc := &stubSvc{}
	code, _ := serve(t, svc, stdhttp.MethodGet, "/2023/duplicates/month_day?page=2")
	require.Equal(t, stdhttp.StatusOK, code)
	assert.Equal(t, duplicates.MonthDay, svc.pair)
	assert.Equal(t, domain.GroupQuery{Page: 2, PerPage: 50}, svc.group)

	code, body := serve(t, svc, stdhttp.MethodGet, "/2023/duplicates/name_name")
	assert.Equal(t, stdhttp.StatusBadRequest, code)
	assert.Contains(t, body["error"], "unknown pair")
}
