package main

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/model"
)

var (
	batchFile        string
	batchPortal      string
	batchConcurrency int
)

// batchItem pairs a request with its outcome for the summary output.
type batchItem struct {
	Request model.EnrichRequest `json:"request"`
	Result  *enrich.Result      `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// batchSummary is the aggregate printed after a batch run.
type batchSummary struct {
	Portal     model.Portal `json:"portal"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	TokensUsed int          `json:"tokens_used"`
	Items      []batchItem  `json:"items"`
}

func loadBatchRequests(path string) ([]model.EnrichRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch file %s", path)
	}
	var reqs []model.EnrichRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		return nil, eris.Wrapf(err, "parse batch file %s", path)
	}
	if len(reqs) == 0 {
		return nil, eris.Errorf("batch file %s contains no requests", path)
	}
	for i, r := range reqs {
		if msg := r.Validate(); msg != "" {
			return nil, eris.Errorf("batch file %s entry %d: %s", path, i, msg)
		}
	}
	return reqs, nil
}

// runBatch enriches every request with bounded concurrency. Individual
// failures are recorded, not fatal.
func runBatch(ctx context.Context, enricher *enrich.Enricher, portal model.Portal, reqs []model.EnrichRequest, concurrency int) *batchSummary {
	if concurrency < 1 {
		concurrency = 3
	}

	summary := &batchSummary{
		Portal: portal,
		Total:  len(reqs),
		Items:  make([]batchItem, len(reqs)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			result, err := enricher.Enrich(gctx, portal, req, enrich.CallMeta{Source: model.SourceAPI})

			mu.Lock()
			defer mu.Unlock()
			summary.Items[i] = batchItem{Request: req}
			if err != nil {
				summary.Items[i].Error = err.Error()
				summary.Failed++
				zap.L().Warn("batch item failed",
					zap.String("identifier", req.Identifier()),
					zap.Error(err))
				return nil
			}
			summary.Items[i].Result = result
			summary.Succeeded++
			summary.TokensUsed += result.TokensUsed
			return nil
		})
	}

	_ = g.Wait()
	return summary
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Enrich a batch of products from a JSON file",
	Long:  "Reads a JSON array of enrichment requests and processes them concurrently against one portal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		portal := model.Portal(batchPortal)
		if !portal.Valid() {
			return eris.Errorf("unknown portal %q (want catalog, parts or home_products)", batchPortal)
		}

		reqs, err := loadBatchRequests(batchFile)
		if err != nil {
			return err
		}

		env, err := initApp(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		summary := runBatch(ctx, env.Enricher, portal, reqs, batchConcurrency)

		zap.L().Info("batch complete",
			zap.Int("total", summary.Total),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("failed", summary.Failed),
			zap.Int("tokens_used", summary.TokensUsed))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "JSON file with an array of enrichment requests (required)")
	batchCmd.Flags().StringVar(&batchPortal, "portal", "catalog", "portal (catalog, parts, home_products)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 3, "concurrent enrichments")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
