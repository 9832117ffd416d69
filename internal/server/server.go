// Package server exposes the enrichment and Ferguson lookup APIs over
// HTTP, with API-key auth and per-portal call metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cxc-ai/catalog-bot/internal/config"
	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/ferguson"
	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/monitoring"
	"github.com/cxc-ai/catalog-bot/internal/store"
)

// Enricher runs a single product enrichment. *enrich.Enricher satisfies it.
type Enricher interface {
	Enrich(ctx context.Context, portal model.Portal, req model.EnrichRequest, meta enrich.CallMeta) (*enrich.Result, error)
}

// Catalog serves Ferguson product lookups. *ferguson.Service satisfies it.
type Catalog interface {
	Search(ctx context.Context, query string, page int) (*ferguson.SearchResult, error)
	Detail(ctx context.Context, productURL string) (*ferguson.DetailResult, error)
	Lookup(ctx context.Context, modelNumber string, fuzzy bool) (*ferguson.LookupResult, error)
}

// Server wires HTTP handlers to the enrichment and lookup services.
type Server struct {
	enricher  Enricher
	catalog   Catalog
	store     store.Store
	collector *monitoring.Collector
	cfg       config.ServerConfig
}

// New creates a Server. catalog, store and collector may be nil; the
// routes needing them return 503.
func New(enricher Enricher, catalog Catalog, st store.Store, collector *monitoring.Collector, cfg config.ServerConfig) *Server {
	return &Server{
		enricher:  enricher,
		catalog:   catalog,
		store:     st,
		collector: collector,
		cfg:       cfg,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-KEY"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		for _, portal := range model.Portals {
			r.Post(portal.Endpoint(), s.handleEnrich(portal))
		}

		r.Post("/search-ferguson", s.handleFergusonSearch)
		r.Post("/product-detail-ferguson", s.handleFergusonDetail)
		r.Post("/lookup-ferguson-complete", s.handleFergusonLookup)

		r.Get("/ai-providers", s.handleProviders)
		r.Get("/ai-metrics", s.handleAIMetrics)
		r.Get("/portal-metrics", s.handlePortalMetrics)
		r.Get("/ai-comparison", s.handleComparison)
		r.Post("/ai-metrics/reset", s.handleMetricsReset)

		r.Get("/request-logs", s.handleRequestLogs)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "catalog-bot",
		"portals": model.Portals,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
