package model

import "time"

// Portal identifies which product catalog an enrichment request serves.
type Portal string

const (
	PortalCatalog      Portal = "catalog"
	PortalParts        Portal = "parts"
	PortalHomeProducts Portal = "home_products"
)

// Portals lists every portal in display order.
var Portals = []Portal{PortalCatalog, PortalParts, PortalHomeProducts}

// Valid reports whether p names a known portal.
func (p Portal) Valid() bool {
	switch p {
	case PortalCatalog, PortalParts, PortalHomeProducts:
		return true
	}
	return false
}

// Endpoint returns the HTTP path serving this portal.
func (p Portal) Endpoint() string {
	switch p {
	case PortalParts:
		return "/enrich-part"
	case PortalHomeProducts:
		return "/enrich-home-product"
	default:
		return "/enrich"
	}
}

// CallSource distinguishes portal-UI traffic from direct API traffic.
type CallSource string

const (
	SourceUI  CallSource = "ui"
	SourceAPI CallSource = "api"
)

// CallLog is one completed enrichment or lookup request. Logs feed the
// per-portal and per-provider metrics aggregations.
type CallLog struct {
	ID           string     `json:"id"`
	Timestamp    time.Time  `json:"timestamp"`
	Portal       Portal     `json:"portal"`
	Endpoint     string     `json:"endpoint"`
	Source       CallSource `json:"source"`
	Provider     string     `json:"provider,omitempty"`
	Success      bool       `json:"success"`
	ResponseTime float64    `json:"response_time"` // seconds
	ModelNumber  string     `json:"model_number,omitempty"`
	Brand        string     `json:"brand,omitempty"`
	UserAgent    string     `json:"user_agent,omitempty"`
	TokensUsed   int        `json:"tokens_used,omitempty"`
	Completeness float64    `json:"completeness,omitempty"` // percent of requested fields populated
	Error        string     `json:"error,omitempty"`
}

// ProviderStats aggregates call logs for one AI provider.
type ProviderStats struct {
	Provider           string     `json:"provider"`
	TotalRequests      int        `json:"total_requests"`
	SuccessfulRequests int        `json:"successful_requests"`
	FailedRequests     int        `json:"failed_requests"`
	AvgResponseTime    float64    `json:"avg_response_time"`
	TotalTokensUsed    int        `json:"total_tokens_used"`
	AvgTokens          int        `json:"avg_tokens"`
	AvgCompleteness    float64    `json:"avg_completeness"`
	LastUsed           *time.Time `json:"last_used"`
	RecentErrors       []string   `json:"recent_errors,omitempty"`
}

// SuccessRate returns the success percentage, 0 when no requests were
// made.
func (s ProviderStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100
}

// PortalStats aggregates call logs for one portal endpoint.
type PortalStats struct {
	Portal             Portal     `json:"portal"`
	TotalRequests      int        `json:"total_requests"`
	SuccessfulRequests int        `json:"successful_requests"`
	FailedRequests     int        `json:"failed_requests"`
	AvgResponseTime    float64    `json:"avg_response_time"`
	UICalls            int        `json:"ui_calls"`
	APICalls           int        `json:"api_calls"`
	LastUsed           *time.Time `json:"last_used"`
}

// SuccessRate returns the success percentage, 0 when no requests were
// made.
func (s PortalStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests) * 100
}
