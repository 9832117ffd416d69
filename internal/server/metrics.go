package server

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/monitoring"
	"github.com/cxc-ai/catalog-bot/internal/store"
)

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not configured")
		return
	}
	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collect metrics: "+err.Error())
		return
	}

	providers := make([]string, 0, len(snap.Providers))
	for name := range snap.Providers {
		providers = append(providers, name)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers":        providers,
		"circuit_breakers": snap.Breakers,
	})
}

func (s *Server) handleAIMetrics(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not configured")
		return
	}

	portal := model.Portal(r.URL.Query().Get("portal"))
	if portal != "" {
		if !portal.Valid() {
			writeError(w, http.StatusBadRequest, "unknown portal")
			return
		}
		providers, err := s.collector.ProviderBreakdown(r.Context(), portal)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "collect metrics: "+err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"portal":       portal,
			"providers":    providers,
			"collected_at": time.Now().UTC(),
		})
		return
	}

	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collect metrics: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers":    snap.Providers,
		"collected_at": snap.CollectedAt,
	})
}

func (s *Server) handlePortalMetrics(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not configured")
		return
	}
	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collect metrics: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"portals":      snap.Portals,
		"collected_at": snap.CollectedAt,
	})
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "metrics not configured")
		return
	}
	snap, err := s.collector.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "collect metrics: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, monitoring.Compare(snap.Providers))
}

func (s *Server) handleMetricsReset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}
	removed, err := s.store.PruneCallLogs(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reset metrics: "+err.Error())
		return
	}
	zap.L().Info("server: metrics reset", zap.Int("logs_removed", removed))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "reset",
		"logs_removed": removed,
	})
}

func (s *Server) handleRequestLogs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "store not configured")
		return
	}

	filter := store.LogFilter{
		Portal:   model.Portal(r.URL.Query().Get("portal")),
		Provider: r.URL.Query().Get("provider"),
	}
	if filter.Portal != "" && !filter.Portal.Valid() {
		writeError(w, http.StatusBadRequest, "unknown portal")
		return
	}
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	filter.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := s.store.ListCallLogs(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list call logs: "+err.Error())
		return
	}
	if logs == nil {
		logs = []model.CallLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"count": len(logs),
	})
}
