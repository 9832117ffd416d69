package monitoring

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/resilience"
)

type stubStats struct {
	providers map[string]*model.ProviderStats
	portals   map[model.Portal]*model.PortalStats
	err       error

	lastPortal model.Portal
}

func (s *stubStats) ProviderStats(_ context.Context, provider string, portal model.Portal) (*model.ProviderStats, error) {
	s.lastPortal = portal
	if s.err != nil {
		return nil, s.err
	}
	if stats, ok := s.providers[provider]; ok {
		return stats, nil
	}
	return &model.ProviderStats{Provider: provider}, nil
}

func (s *stubStats) PortalStats(_ context.Context, portal model.Portal) (*model.PortalStats, error) {
	if s.err != nil {
		return nil, s.err
	}
	if stats, ok := s.portals[portal]; ok {
		return stats, nil
	}
	return &model.PortalStats{Portal: portal}, nil
}

type stubBreakers struct {
	states map[string]resilience.CircuitState
}

func (s *stubBreakers) States() map[string]resilience.CircuitState { return s.states }

func providerStats(name string, total, ok int, avgRT, avgComplete float64) *model.ProviderStats {
	return &model.ProviderStats{
		Provider:           name,
		TotalRequests:      total,
		SuccessfulRequests: ok,
		FailedRequests:     total - ok,
		AvgResponseTime:    avgRT,
		AvgCompleteness:    avgComplete,
	}
}

func TestCollector_Collect(t *testing.T) {
	st := &stubStats{
		providers: map[string]*model.ProviderStats{
			"openai": providerStats("openai", 10, 9, 2.0, 85),
		},
		portals: map[model.Portal]*model.PortalStats{
			model.PortalCatalog: {Portal: model.PortalCatalog, TotalRequests: 7, UICalls: 3, APICalls: 4},
		},
	}
	breakers := &stubBreakers{states: map[string]resilience.CircuitState{
		"openai": resilience.CircuitClosed,
		"xai":    resilience.CircuitOpen,
	}}

	collector := NewCollector(st, []string{"openai", "xai"}, breakers)
	snap, err := collector.Collect(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Providers, 2)
	assert.Equal(t, 10, snap.Providers["openai"].TotalRequests)
	assert.Zero(t, snap.Providers["xai"].TotalRequests)

	require.Len(t, snap.Portals, 3)
	assert.Equal(t, 3, snap.Portals[model.PortalCatalog].UICalls)
	assert.Zero(t, snap.Portals[model.PortalParts].TotalRequests)

	assert.Equal(t, resilience.CircuitOpen, snap.Breakers["xai"])
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_ProviderBreakdownScopesToPortal(t *testing.T) {
	st := &stubStats{
		providers: map[string]*model.ProviderStats{
			"openai": providerStats("openai", 4, 4, 1.5, 90),
		},
	}
	collector := NewCollector(st, []string{"openai"}, nil)

	providers, err := collector.ProviderBreakdown(context.Background(), model.PortalParts)
	require.NoError(t, err)
	assert.Equal(t, model.PortalParts, st.lastPortal)
	require.Contains(t, providers, "openai")
	assert.Equal(t, 4, providers["openai"].TotalRequests)

	_, err = collector.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Portal(""), st.lastPortal)
}

func TestCollector_NilBreakers(t *testing.T) {
	collector := NewCollector(&stubStats{}, []string{"openai"}, nil)
	snap, err := collector.Collect(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.Breakers)
}

func TestCollector_StoreErrorPropagates(t *testing.T) {
	collector := NewCollector(&stubStats{err: eris.New("db down")}, []string{"openai"}, nil)
	_, err := collector.Collect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider stats for openai")
}
