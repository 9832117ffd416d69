package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/config"
	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/ferguson"
	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/monitoring"
	"github.com/cxc-ai/catalog-bot/internal/store"
)

type stubEnricher struct {
	result *enrich.Result
	err    error

	portal model.Portal
	req    model.EnrichRequest
	meta   enrich.CallMeta
}

func (s *stubEnricher) Enrich(_ context.Context, portal model.Portal, req model.EnrichRequest, meta enrich.CallMeta) (*enrich.Result, error) {
	s.portal, s.req, s.meta = portal, req, meta
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCatalog struct {
	search *ferguson.SearchResult
	lookup *ferguson.LookupResult
	err    error
}

func (s *stubCatalog) Search(context.Context, string, int) (*ferguson.SearchResult, error) {
	return s.search, s.err
}

func (s *stubCatalog) Detail(context.Context, string) (*ferguson.DetailResult, error) {
	return &ferguson.DetailResult{}, s.err
}

func (s *stubCatalog) Lookup(context.Context, string, bool) (*ferguson.LookupResult, error) {
	return s.lookup, s.err
}

// fakeStore is an in-memory store.Store for handler tests.
type fakeStore struct {
	logs   []model.CallLog
	pruned bool
}

func (f *fakeStore) InsertCallLog(_ context.Context, entry *model.CallLog) error {
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeStore) ListCallLogs(_ context.Context, filter store.LogFilter) ([]model.CallLog, error) {
	var out []model.CallLog
	for _, l := range f.logs {
		if filter.Portal != "" && l.Portal != filter.Portal {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeStore) PruneCallLogs(context.Context, int) (int, error) {
	f.pruned = true
	n := len(f.logs)
	f.logs = nil
	return n, nil
}

func (f *fakeStore) ProviderStats(_ context.Context, provider string, portal model.Portal) (*model.ProviderStats, error) {
	stats := &model.ProviderStats{Provider: provider}
	for _, l := range f.logs {
		if l.Provider != provider {
			continue
		}
		if portal != "" && l.Portal != portal {
			continue
		}
		stats.TotalRequests++
		if l.Success {
			stats.SuccessfulRequests++
		} else {
			stats.FailedRequests++
		}
	}
	return stats, nil
}

func (f *fakeStore) PortalStats(_ context.Context, portal model.Portal) (*model.PortalStats, error) {
	stats := &model.PortalStats{Portal: portal}
	for _, l := range f.logs {
		if l.Portal == portal {
			stats.TotalRequests++
		}
	}
	return stats, nil
}

func (f *fakeStore) Migrate(context.Context) error { return nil }
func (f *fakeStore) Close() error                  { return nil }

func testServer(t *testing.T, cfg config.ServerConfig) (*Server, *stubEnricher, *fakeStore) {
	t.Helper()
	enricher := &stubEnricher{result: &enrich.Result{
		Data:     map[string]any{"brand": "Kohler"},
		Provider: "openai",
	}}
	st := &fakeStore{}
	collector := monitoring.NewCollector(st, []string{"openai", "xai"}, nil)
	catalog := &stubCatalog{
		search: &ferguson.SearchResult{Query: "K-2362", ResultCount: 1},
		lookup: &ferguson.LookupResult{ModelNumber: "K-2362-8", MatchedModel: "K-2362-8"},
	}
	return New(enricher, catalog, st, collector, cfg), enricher, st
}

func doRequest(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuthRequired(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{APIKey: "secret"})
	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAPIKeyEnforced(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{APIKey: "secret"})

	rec := doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`,
		map[string]string{"X-API-KEY": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyDisabledWhenUnset(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})
	rec := doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnrichRoutesPerPortal(t *testing.T) {
	srv, enricher, _ := testServer(t, config.ServerConfig{})

	rec := doRequest(t, srv, http.MethodPost, "/enrich-part",
		`{"brand":"Whirlpool","part_number":"WP2198202"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PortalParts, enricher.portal)
	assert.Equal(t, "WP2198202", enricher.req.PartNumber)

	rec = doRequest(t, srv, http.MethodPost, "/enrich-home-product",
		`{"brand":"Kohler","model_number":"K-2362-8"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.PortalHomeProducts, enricher.portal)
}

func TestEnrichSourceDetection(t *testing.T) {
	srv, enricher, _ := testServer(t, config.ServerConfig{
		UIRefererHosts: []string{"vercel.app", "localhost"},
	})

	doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`,
		map[string]string{"Referer": "https://catalog-portal.vercel.app/products"})
	assert.Equal(t, model.SourceUI, enricher.meta.Source)

	doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`, nil)
	assert.Equal(t, model.SourceAPI, enricher.meta.Source)
}

func TestEnrichBadRequests(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})

	rec := doRequest(t, srv, http.MethodPost, "/enrich", `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/enrich", `{"model_number":"K-2362-8"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "brand is required")
}

func TestEnrichFailureIs502(t *testing.T) {
	srv, enricher, _ := testServer(t, config.ServerConfig{})
	enricher.err = eris.New("all providers failed")

	rec := doRequest(t, srv, http.MethodPost, "/enrich",
		`{"brand":"Kohler","model_number":"K-2362-8"}`, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestFergusonSearchRequiresQuery(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})

	rec := doRequest(t, srv, http.MethodPost, "/search-ferguson", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/search-ferguson", `{"search":"K-2362"}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "K-2362")
}

func TestFergusonLookupNoMatchIs404(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})
	catalog := srv.catalog.(*stubCatalog)
	catalog.err = &ferguson.NoMatchError{
		ModelNumber:     "K-9999",
		AvailableModels: []string{"K-2362-0", "K-2362-8"},
	}

	rec := doRequest(t, srv, http.MethodPost, "/lookup-ferguson-complete", `{"model_number":"K-9999"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["available_models"], 2)
}

func TestFergusonLookupNoProductsIs404(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})
	srv.catalog.(*stubCatalog).err = &ferguson.NoProductsError{ModelNumber: "ZZ-0"}

	rec := doRequest(t, srv, http.MethodPost, "/lookup-ferguson-complete", `{"model_number":"ZZ-0"}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogsFilteredByPortal(t *testing.T) {
	srv, _, st := testServer(t, config.ServerConfig{})
	st.logs = []model.CallLog{
		{ID: "1", Portal: model.PortalCatalog, Provider: "openai"},
		{ID: "2", Portal: model.PortalParts, Provider: "xai"},
	}

	rec := doRequest(t, srv, http.MethodGet, "/request-logs?portal=parts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Logs  []model.CallLog `json:"logs"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "2", body.Logs[0].ID)
}

func TestRequestLogsRejectsUnknownPortal(t *testing.T) {
	srv, _, _ := testServer(t, config.ServerConfig{})
	rec := doRequest(t, srv, http.MethodGet, "/request-logs?portal=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoints(t *testing.T) {
	srv, _, st := testServer(t, config.ServerConfig{})
	st.logs = []model.CallLog{
		{Portal: model.PortalCatalog, Provider: "openai", Success: true},
		{Portal: model.PortalCatalog, Provider: "xai", Success: false},
	}

	rec := doRequest(t, srv, http.MethodGet, "/ai-metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "openai")

	rec = doRequest(t, srv, http.MethodGet, "/portal-metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catalog")

	rec = doRequest(t, srv, http.MethodGet, "/ai-comparison", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "recommendation")
}

func TestAIMetricsPortalFilter(t *testing.T) {
	srv, _, st := testServer(t, config.ServerConfig{})
	st.logs = []model.CallLog{
		{Portal: model.PortalParts, Provider: "openai", Success: true},
		{Portal: model.PortalParts, Provider: "openai", Success: true},
		{Portal: model.PortalHomeProducts, Provider: "openai", Success: true},
	}

	rec := doRequest(t, srv, http.MethodGet, "/ai-metrics?portal=parts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Portal    string                          `json:"portal"`
		Providers map[string]*model.ProviderStats `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "parts", body.Portal)
	require.Contains(t, body.Providers, "openai")
	assert.Equal(t, 2, body.Providers["openai"].TotalRequests)

	rec = doRequest(t, srv, http.MethodGet, "/ai-metrics?portal=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsReset(t *testing.T) {
	srv, _, st := testServer(t, config.ServerConfig{})
	st.logs = []model.CallLog{{ID: "1", Portal: model.PortalCatalog}}

	rec := doRequest(t, srv, http.MethodPost, "/ai-metrics/reset", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, st.pruned)
	assert.Empty(t, st.logs)
}
