package store

import (
	"context"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

// LogFilter specifies criteria for listing call logs.
type LogFilter struct {
	Portal   model.Portal `json:"portal,omitempty"`
	Provider string       `json:"provider,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Offset   int          `json:"offset,omitempty"`
}

// Store defines persistence for enrichment call logs and the metrics
// aggregated from them.
type Store interface {
	// Call logs
	InsertCallLog(ctx context.Context, entry *model.CallLog) error
	ListCallLogs(ctx context.Context, filter LogFilter) ([]model.CallLog, error)
	// PruneCallLogs deletes all but the newest keep entries and returns
	// how many were removed.
	PruneCallLogs(ctx context.Context, keep int) (int, error)

	// Aggregations. An empty portal aggregates across all portals.
	ProviderStats(ctx context.Context, provider string, portal model.Portal) (*model.ProviderStats, error)
	PortalStats(ctx context.Context, portal model.Portal) (*model.PortalStats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
