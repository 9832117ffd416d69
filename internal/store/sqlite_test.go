package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func logFixture(portal model.Portal, provider string, success bool) *model.CallLog {
	return &model.CallLog{
		Portal:       portal,
		Endpoint:     portal.Endpoint(),
		Source:       model.SourceAPI,
		Provider:     provider,
		Success:      success,
		ResponseTime: 1.5,
		ModelNumber:  "K-2362-8",
		Brand:        "Kohler",
		TokensUsed:   400,
		Completeness: 80,
	}
}

func TestInsertCallLogAssignsIDAndTimestamp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := logFixture(model.PortalCatalog, "openai", true)
	require.NoError(t, s.InsertCallLog(ctx, entry))

	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	logs, err := s.ListCallLogs(ctx, LogFilter{})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
	assert.Equal(t, model.PortalCatalog, logs[0].Portal)
	assert.Equal(t, "K-2362-8", logs[0].ModelNumber)
}

func TestListCallLogsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertCallLog(ctx, logFixture(model.PortalCatalog, "openai", true)))
	require.NoError(t, s.InsertCallLog(ctx, logFixture(model.PortalParts, "xai", true)))
	require.NoError(t, s.InsertCallLog(ctx, logFixture(model.PortalParts, "openai", false)))

	logs, err := s.ListCallLogs(ctx, LogFilter{Portal: model.PortalParts})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = s.ListCallLogs(ctx, LogFilter{Provider: "openai"})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	logs, err = s.ListCallLogs(ctx, LogFilter{Portal: model.PortalParts, Provider: "xai"})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestListCallLogsNewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 5 {
		entry := logFixture(model.PortalCatalog, "openai", true)
		entry.Timestamp = base.Add(time.Duration(i) * time.Minute)
		entry.ModelNumber = "M-" + string(rune('A'+i))
		require.NoError(t, s.InsertCallLog(ctx, entry))
	}

	logs, err := s.ListCallLogs(ctx, LogFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "M-E", logs[0].ModelNumber)
	assert.Equal(t, "M-D", logs[1].ModelNumber)
}

func TestPruneCallLogsKeepsNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := range 10 {
		entry := logFixture(model.PortalCatalog, "openai", true)
		entry.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.InsertCallLog(ctx, entry))
	}

	removed, err := s.PruneCallLogs(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	logs, err := s.ListCallLogs(ctx, LogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 3)
	assert.Equal(t, base.Add(9*time.Minute).Unix(), logs[0].Timestamp.Unix())
}

func TestProviderStatsAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok := logFixture(model.PortalCatalog, "openai", true)
	ok.ResponseTime = 2.0
	ok.TokensUsed = 500
	ok.Completeness = 90
	require.NoError(t, s.InsertCallLog(ctx, ok))

	ok2 := logFixture(model.PortalParts, "openai", true)
	ok2.ResponseTime = 4.0
	ok2.TokensUsed = 300
	ok2.Completeness = 70
	require.NoError(t, s.InsertCallLog(ctx, ok2))

	failed := logFixture(model.PortalCatalog, "openai", false)
	failed.Error = "timeout talking to upstream"
	require.NoError(t, s.InsertCallLog(ctx, failed))

	require.NoError(t, s.InsertCallLog(ctx, logFixture(model.PortalCatalog, "xai", true)))

	stats, err := s.ProviderStats(ctx, "openai", "")
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.SuccessfulRequests)
	assert.Equal(t, 1, stats.FailedRequests)
	assert.InDelta(t, 3.0, stats.AvgResponseTime, 0.001)
	assert.Equal(t, 800, stats.TotalTokensUsed)
	assert.Equal(t, 400, stats.AvgTokens)
	assert.InDelta(t, 80.0, stats.AvgCompleteness, 0.001)
	assert.InDelta(t, 66.67, stats.SuccessRate(), 0.01)
	require.NotNil(t, stats.LastUsed)
	require.Len(t, stats.RecentErrors, 1)
	assert.Equal(t, "timeout talking to upstream", stats.RecentErrors[0])

	partsOnly, err := s.ProviderStats(ctx, "openai", model.PortalParts)
	require.NoError(t, err)
	assert.Equal(t, 1, partsOnly.TotalRequests)
	assert.Equal(t, 300, partsOnly.TotalTokensUsed)
	assert.Empty(t, partsOnly.RecentErrors)
}

func TestProviderStatsEmpty(t *testing.T) {
	s := newTestStore(t)

	stats, err := s.ProviderStats(context.Background(), "anthropic", "")
	require.NoError(t, err)

	assert.Zero(t, stats.TotalRequests)
	assert.Zero(t, stats.SuccessRate())
	assert.Nil(t, stats.LastUsed)
	assert.Empty(t, stats.RecentErrors)
}

func TestPortalStatsAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ui := logFixture(model.PortalHomeProducts, "openai", true)
	ui.Source = model.SourceUI
	ui.ResponseTime = 1.0
	require.NoError(t, s.InsertCallLog(ctx, ui))

	api := logFixture(model.PortalHomeProducts, "xai", false)
	api.ResponseTime = 9.0
	require.NoError(t, s.InsertCallLog(ctx, api))

	require.NoError(t, s.InsertCallLog(ctx, logFixture(model.PortalCatalog, "openai", true)))

	stats, err := s.PortalStats(ctx, model.PortalHomeProducts)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.SuccessfulRequests)
	assert.Equal(t, 1, stats.FailedRequests)
	assert.Equal(t, 1, stats.UICalls)
	assert.Equal(t, 1, stats.APICalls)
	// Only successful calls count toward the average.
	assert.InDelta(t, 1.0, stats.AvgResponseTime, 0.001)
	require.NotNil(t, stats.LastUsed)
}
