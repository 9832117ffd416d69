package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/enrich"
	"github.com/cxc-ai/catalog-bot/internal/ferguson"
	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/monitoring"
	"github.com/cxc-ai/catalog-bot/internal/provider"
	"github.com/cxc-ai/catalog-bot/internal/resilience"
	"github.com/cxc-ai/catalog-bot/internal/store"
	"github.com/cxc-ai/catalog-bot/pkg/unwrangle"
)

// appEnv holds the initialized store, provider chain and services shared
// by the serve/enrich/batch commands.
type appEnv struct {
	Store     store.Store
	Chain     *provider.Chain
	Enricher  *enrich.Enricher
	Ferguson  *ferguson.Service // nil without an Unwrangle key
	Collector *monitoring.Collector
}

// Close releases resources held by the environment.
func (ae *appEnv) Close() {
	if ae.Store != nil {
		_ = ae.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "catalog.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &cfg.Store.Pool)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildChain assembles the provider fallback chain in configured order,
// skipping providers without a key.
func buildChain() (*provider.Chain, error) {
	var completers []provider.Completer
	for _, name := range cfg.Providers.Order {
		switch name {
		case "openai":
			if cfg.OpenAI.Key != "" {
				completers = append(completers, provider.NewOpenAI(cfg.OpenAI.Key, cfg.OpenAI.Model))
			}
		case "xai":
			if cfg.XAI.Key != "" {
				completers = append(completers, provider.NewOpenAICompatible(
					"xai", cfg.XAI.Key, cfg.XAI.Model, provider.WithBaseURL(cfg.XAI.BaseURL)))
			}
		case "anthropic":
			if cfg.Anthropic.Key != "" {
				completers = append(completers, provider.NewAnthropic(cfg.Anthropic.Key, cfg.Anthropic.Model))
			}
		default:
			return nil, eris.Errorf("unknown provider in providers.order: %s", name)
		}
	}
	if len(completers) == 0 {
		return nil, eris.New("no provider keys configured")
	}

	retry := resilience.FromRetryConfig(
		cfg.Resilience.Retry.MaxAttempts,
		cfg.Resilience.Retry.InitialBackoffMs,
		cfg.Resilience.Retry.MaxBackoffMs,
		cfg.Resilience.Retry.Multiplier,
		cfg.Resilience.Retry.JitterFraction,
	)
	circuit := resilience.FromCircuitConfig(
		cfg.Resilience.Circuit.FailureThreshold,
		cfg.Resilience.Circuit.ResetTimeoutSecs,
	)

	return provider.NewChain(retry, circuit, completers...), nil
}

// initApp sets up the store, provider chain, enricher, Ferguson service
// and metrics collector. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	chain, err := buildChain()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	zap.L().Info("provider chain assembled", zap.Strings("providers", chain.Providers()))

	criticalFields, err := loadCriticalFields()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	enricher := enrich.New(chain, st, enrich.Options{
		Strict:            cfg.Verify.Strict,
		CriticalFields:    criticalFields,
		AuthorizedSources: cfg.Verify.AuthorizedSources,
		KeepLogs:          cfg.Verify.KeepLogs,
	})

	var fergusonSvc *ferguson.Service
	if cfg.Unwrangle.Key != "" {
		client := unwrangle.NewClient(cfg.Unwrangle.Key,
			unwrangle.WithBaseURL(cfg.Unwrangle.BaseURL),
			unwrangle.WithRateLimit(cfg.Unwrangle.RatePerSec, cfg.Unwrangle.Burst))
		ttl := time.Duration(cfg.Ferguson.CacheTTLMins) * time.Minute
		fergusonSvc = ferguson.NewService(client, cfg.Ferguson.Prefixes, ttl)
	} else {
		zap.L().Warn("CATALOG_UNWRANGLE_KEY not set, Ferguson lookups disabled")
	}

	collector := monitoring.NewCollector(st, chain.Providers(), chain.Breakers())

	return &appEnv{
		Store:     st,
		Chain:     chain,
		Enricher:  enricher,
		Ferguson:  fergusonSvc,
		Collector: collector,
	}, nil
}

// loadCriticalFields reads per-portal critical field overrides when a
// fields file is configured. Portals absent from the file keep the
// built-in lists.
func loadCriticalFields() (map[model.Portal][]string, error) {
	raw, err := cfg.Verify.CriticalFields()
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	fields := make(map[model.Portal][]string, len(enrich.DefaultCriticalFields))
	for portal, list := range enrich.DefaultCriticalFields {
		fields[portal] = list
	}
	for name, list := range raw {
		portal := model.Portal(name)
		if !portal.Valid() {
			return nil, eris.Errorf("fields file: unknown portal %q", name)
		}
		fields[portal] = list
	}
	return fields, nil
}
