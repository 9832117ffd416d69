package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/ferguson"
	"github.com/cxc-ai/catalog-bot/internal/model"
)

func (s *Server) handleEnrich(portal model.Portal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req model.EnrichRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.Validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		meta := enrich.CallMeta{
			Source:    s.callSource(r),
			UserAgent: r.UserAgent(),
		}

		result, err := s.enricher.Enrich(r.Context(), portal, req, meta)
		if err != nil {
			zap.L().Error("server: enrichment failed",
				zap.String("portal", string(portal)),
				zap.String("identifier", req.Identifier()),
				zap.Error(err))
			writeError(w, http.StatusBadGateway, "enrichment failed: "+err.Error())
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

type fergusonSearchRequest struct {
	Search string `json:"search"`
	Page   int    `json:"page"`
}

type fergusonDetailRequest struct {
	URL string `json:"url"`
}

type fergusonLookupRequest struct {
	ModelNumber string `json:"model_number"`
	Fuzzy       *bool  `json:"fuzzy,omitempty"`
}

func (s *Server) handleFergusonSearch(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "ferguson lookups not configured")
		return
	}

	var req fergusonSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Search == "" {
		writeError(w, http.StatusBadRequest, "search is required")
		return
	}

	result, err := s.catalog.Search(r.Context(), req.Search, req.Page)
	if err != nil {
		writeError(w, http.StatusBadGateway, "search failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFergusonDetail(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "ferguson lookups not configured")
		return
	}

	var req fergusonDetailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	result, err := s.catalog.Detail(r.Context(), req.URL)
	if err != nil {
		writeError(w, http.StatusBadGateway, "detail fetch failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFergusonLookup(w http.ResponseWriter, r *http.Request) {
	if s.catalog == nil {
		writeError(w, http.StatusServiceUnavailable, "ferguson lookups not configured")
		return
	}

	var req fergusonLookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	modelNumber := req.ModelNumber
	if modelNumber == "" {
		writeError(w, http.StatusBadRequest, "model_number is required")
		return
	}
	fuzzy := req.Fuzzy == nil || *req.Fuzzy

	result, err := s.catalog.Lookup(r.Context(), modelNumber, fuzzy)
	if err != nil {
		var noProducts *ferguson.NoProductsError
		var noMatch *ferguson.NoMatchError
		switch {
		case errors.As(err, &noProducts):
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":        "no products found",
				"model_number": modelNumber,
			})
		case errors.As(err, &noMatch):
			writeJSON(w, http.StatusNotFound, map[string]any{
				"error":            "no matching variant found",
				"model_number":     modelNumber,
				"available_models": noMatch.AvailableModels,
			})
		default:
			writeError(w, http.StatusBadGateway, "lookup failed: "+err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
