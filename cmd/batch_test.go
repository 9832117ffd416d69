package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/provider"
)

type scriptedChain struct {
	failFor string // identifier substring that should error
}

func (s *scriptedChain) Complete(_ context.Context, req provider.Request) (*provider.Result, error) {
	if s.failFor != "" && strings.Contains(req.Prompt, s.failFor) {
		return nil, eris.New("provider unavailable")
	}
	return &provider.Result{
		Response: provider.Response{
			Text:         `{"brand": "Kohler"}`,
			Model:        "gpt-4o-mini",
			InputTokens:  100,
			OutputTokens: 100,
		},
		Provider: "openai",
	}, nil
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBatchRequests(t *testing.T) {
	path := writeBatchFile(t, `[
		{"brand": "Kohler", "model_number": "K-2362-8"},
		{"brand": "Whirlpool", "part_number": "WP2198202"}
	]`)

	reqs, err := loadBatchRequests(path)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "K-2362-8", reqs[0].ModelNumber)
	assert.Equal(t, "WP2198202", reqs[1].PartNumber)
}

func TestLoadBatchRequestsRejectsBadInput(t *testing.T) {
	_, err := loadBatchRequests(writeBatchFile(t, `not json`))
	assert.Error(t, err)

	_, err = loadBatchRequests(writeBatchFile(t, `[]`))
	assert.Error(t, err)

	_, err = loadBatchRequests(writeBatchFile(t, `[{"model_number": "K-2362-8"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "brand is required")

	_, err = loadBatchRequests(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRunBatchAggregates(t *testing.T) {
	enricher := enrich.New(&scriptedChain{}, nil, enrich.Options{})
	reqs := []model.EnrichRequest{
		{Brand: "Kohler", ModelNumber: "K-2362-0"},
		{Brand: "Kohler", ModelNumber: "K-2362-8"},
	}

	summary := runBatch(context.Background(), enricher, model.PortalCatalog, reqs, 2)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 400, summary.TokensUsed)
	require.Len(t, summary.Items, 2)
	assert.NotNil(t, summary.Items[0].Result)
}

func TestRunBatchRecordsFailuresWithoutAborting(t *testing.T) {
	enricher := enrich.New(&scriptedChain{failFor: "K-BAD"}, nil, enrich.Options{})
	reqs := []model.EnrichRequest{
		{Brand: "Kohler", ModelNumber: "K-2362-8"},
		{Brand: "Kohler", ModelNumber: "K-BAD"},
		{Brand: "Kohler", ModelNumber: "K-2362-0"},
	}

	summary := runBatch(context.Background(), enricher, model.PortalCatalog, reqs, 1)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.NotEmpty(t, summary.Items[1].Error)
	assert.Nil(t, summary.Items[1].Result)
}
