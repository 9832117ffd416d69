package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

// requireAPIKey rejects requests without the configured X-API-KEY
// header. Auth is disabled while no key is configured.
func (s *Server) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIKey != "" {
			key := r.Header.Get("X-API-KEY")
			if subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.APIKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid or missing API key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// callSource classifies a request as portal-UI or direct-API traffic by
// its referer.
func (s *Server) callSource(r *http.Request) model.CallSource {
	referer := strings.ToLower(r.Referer())
	for _, host := range s.cfg.UIRefererHosts {
		if host != "" && strings.Contains(referer, strings.ToLower(host)) {
			return model.SourceUI
		}
	}
	return model.SourceAPI
}
