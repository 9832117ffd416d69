package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/monitoring"
)

var metricsProviders []string

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print provider and portal metrics from the call log",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		collector := monitoring.NewCollector(st, metricsProviders, nil)
		snap, err := collector.Collect(ctx)
		if err != nil {
			return err
		}

		out := struct {
			Providers  map[string]*model.ProviderStats     `json:"providers"`
			Portals    map[model.Portal]*model.PortalStats `json:"portals"`
			Comparison *monitoring.Comparison              `json:"comparison"`
		}{
			Providers:  snap.Providers,
			Portals:    snap.Portals,
			Comparison: monitoring.Compare(snap.Providers),
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	metricsCmd.Flags().StringSliceVar(&metricsProviders, "providers",
		[]string{"openai", "xai", "anthropic"}, "providers to report on")
	rootCmd.AddCommand(metricsCmd)
}
