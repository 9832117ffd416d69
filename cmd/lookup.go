package main

import (
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/ferguson"
	"github.com/cxc-ai/catalog-bot/pkg/unwrangle"
)

var (
	lookupModelNumber string
	lookupNoFuzzy     bool
	searchQuery       string
	searchPage        int
	detailURL         string
)

// newFergusonService builds a standalone Ferguson service for the lookup
// commands, which don't need the store or providers.
func newFergusonService() (*ferguson.Service, error) {
	if err := cfg.Validate("lookup"); err != nil {
		return nil, err
	}
	client := unwrangle.NewClient(cfg.Unwrangle.Key,
		unwrangle.WithBaseURL(cfg.Unwrangle.BaseURL),
		unwrangle.WithRateLimit(cfg.Unwrangle.RatePerSec, cfg.Unwrangle.Burst))
	ttl := time.Duration(cfg.Ferguson.CacheTTLMins) * time.Minute
	return ferguson.NewService(client, cfg.Ferguson.Prefixes, ttl), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Complete Ferguson lookup: search, match variant, fetch detail, merge",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newFergusonService()
		if err != nil {
			return err
		}

		result, err := svc.Lookup(cmd.Context(), lookupModelNumber, !lookupNoFuzzy)
		if err != nil {
			var noMatch *ferguson.NoMatchError
			if errors.As(err, &noMatch) {
				zap.L().Warn("no matching variant",
					zap.String("model_number", lookupModelNumber),
					zap.Strings("available_models", noMatch.AvailableModels))
			}
			return eris.Wrap(err, "lookup")
		}

		zap.L().Info("lookup complete",
			zap.String("model_number", result.ModelNumber),
			zap.String("matched_model", result.MatchedModel),
			zap.String("match_type", string(result.MatchTier)),
			zap.Int("credits_used", result.CreditsUsed))
		return printJSON(result)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the Ferguson catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newFergusonService()
		if err != nil {
			return err
		}
		result, err := svc.Search(cmd.Context(), searchQuery, searchPage)
		if err != nil {
			return eris.Wrap(err, "search")
		}
		return printJSON(result)
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail",
	Short: "Fetch Ferguson product detail by URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newFergusonService()
		if err != nil {
			return err
		}
		result, err := svc.Detail(cmd.Context(), detailURL)
		if err != nil {
			return eris.Wrap(err, "detail")
		}
		return printJSON(result)
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupModelNumber, "model-number", "", "model number to look up (required)")
	lookupCmd.Flags().BoolVar(&lookupNoFuzzy, "no-fuzzy", false, "disable partial variant matching")
	_ = lookupCmd.MarkFlagRequired("model-number")

	searchCmd.Flags().StringVar(&searchQuery, "query", "", "search query (required)")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "result page")
	_ = searchCmd.MarkFlagRequired("query")

	detailCmd.Flags().StringVar(&detailURL, "url", "", "product URL (required)")
	_ = detailCmd.MarkFlagRequired("url")

	rootCmd.AddCommand(lookupCmd, searchCmd, detailCmd)
}
