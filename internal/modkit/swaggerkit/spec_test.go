package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	phttp "namecensus/internal/platform/net/http"
	"namecensus/internal/platform/testkit"

	"github.com/go-chi/chi/v5"
)

func TestDecorate(t *testing.T) {
	spec := map[string]any{
		"swagger": "2.0",
		"paths": map[string]any{
			"/periods": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{}}},
			},
			"/comparisons": map[string]any{
				"post": map[string]any{"responses": map[string]any{"400": "kept"}},
			},
		},
	}
	decorate(spec)

	if spec["openapi"] != "3.0.3" || spec["swagger"] != nil {
		t.Fatalf("version not lifted: %v", spec)
	}
	if _, ok := spec["components"].(map[string]any)["schemas"].(map[string]any)["Envelope"]; !ok {
		t.Fatalf("envelope schema missing")
	}
	get := spec["paths"].(map[string]any)["/periods"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)
	if _, ok := get["500"]; !ok {
		t.Fatalf("500 not added: %v", get)
	}
	post := spec["paths"].(map[string]any)["/comparisons"].(map[string]any)["post"].(map[string]any)["responses"].(map[string]any)
	if post["400"] != "kept" {
		t.Fatalf("existing response overwritten: %v", post["400"])
	}
}

func TestMount(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), true)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json: %d", rec.Code)
	}
	var spec map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec["openapi"] != "3.0.3" {
		t.Fatalf("spec %v", spec)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect: %d", rec.Code)
	}
}

func TestServeDocJSON_BadDocument(t *testing.T) {
	testkit.Swap(t, &docReader, func() string { return "{" })
	rec := httptest.NewRecorder()
	serveDocJSON()(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMount_Disabled(t *testing.T) {
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), false)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/docs/doc.json", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
}
