package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/resilience"
)

// MetricsSnapshot holds a point-in-time view of enrichment health.
type MetricsSnapshot struct {
	Providers   map[string]*model.ProviderStats     `json:"providers"`
	Portals     map[model.Portal]*model.PortalStats `json:"portals"`
	Breakers    map[string]resilience.CircuitState  `json:"circuit_breakers,omitempty"`
	CollectedAt time.Time                           `json:"collected_at"`
}

// StatsSource is the slice of the store the collector reads from. An
// empty portal aggregates provider stats across all portals.
type StatsSource interface {
	ProviderStats(ctx context.Context, provider string, portal model.Portal) (*model.ProviderStats, error)
	PortalStats(ctx context.Context, portal model.Portal) (*model.PortalStats, error)
}

// BreakerInspector exposes circuit breaker states. A
// resilience.ServiceBreakers satisfies it.
type BreakerInspector interface {
	States() map[string]resilience.CircuitState
}

// Collector gathers per-provider and per-portal metrics from the store.
type Collector struct {
	stats     StatsSource
	providers []string
	breakers  BreakerInspector
}

// NewCollector creates a metrics collector over the named providers.
// breakers may be nil.
func NewCollector(stats StatsSource, providers []string, breakers BreakerInspector) *Collector {
	return &Collector{stats: stats, providers: providers, breakers: breakers}
}

// Collect gathers a snapshot of provider and portal metrics.
func (c *Collector) Collect(ctx context.Context) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		Portals:     make(map[model.Portal]*model.PortalStats, len(model.Portals)),
		CollectedAt: time.Now().UTC(),
	}

	providers, err := c.ProviderBreakdown(ctx, "")
	if err != nil {
		return nil, err
	}
	snap.Providers = providers

	for _, portal := range model.Portals {
		stats, err := c.stats.PortalStats(ctx, portal)
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: portal stats for %s", portal)
		}
		snap.Portals[portal] = stats
	}

	if c.breakers != nil {
		snap.Breakers = c.breakers.States()
	}

	return snap, nil
}

// ProviderBreakdown gathers per-provider stats scoped to one portal, or
// to all portals when portal is empty.
func (c *Collector) ProviderBreakdown(ctx context.Context, portal model.Portal) (map[string]*model.ProviderStats, error) {
	out := make(map[string]*model.ProviderStats, len(c.providers))
	for _, name := range c.providers {
		stats, err := c.stats.ProviderStats(ctx, name, portal)
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: provider stats for %s", name)
		}
		out[name] = stats
	}
	return out, nil
}
