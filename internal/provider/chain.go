package provider

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/resilience"
)

// Result is a completion annotated with which provider produced it and
// how long the call took, including retries.
type Result struct {
	Response
	Provider string
	Duration time.Duration
}

// Chain tries providers in declared order until one answers. Each
// provider gets its own circuit breaker so a dead vendor is skipped
// cheaply while the others keep serving.
type Chain struct {
	completers []Completer
	breakers   *resilience.ServiceBreakers
	retry      resilience.RetryConfig
}

// NewChain creates a fallback chain over the given providers.
func NewChain(retry resilience.RetryConfig, breaker resilience.CircuitBreakerConfig, completers ...Completer) *Chain {
	return &Chain{
		completers: completers,
		breakers:   resilience.NewServiceBreakers(breaker),
		retry:      retry,
	}
}

// Providers returns the names of the chained providers in order.
func (c *Chain) Providers() []string {
	names := make([]string, len(c.completers))
	for i, p := range c.completers {
		names[i] = p.Name()
	}
	return names
}

// BreakerStates reports the circuit state per provider.
func (c *Chain) BreakerStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}

// Breakers exposes the per-provider circuit breakers for metrics
// collection.
func (c *Chain) Breakers() *resilience.ServiceBreakers {
	return c.breakers
}

// Complete runs the prompt through the first provider whose circuit
// admits the call and whose retries succeed. Returns the last provider's
// error when every provider fails.
func (c *Chain) Complete(ctx context.Context, req Request) (*Result, error) {
	if len(c.completers) == 0 {
		return nil, eris.New("provider: no providers configured")
	}

	var lastErr error
	for _, completer := range c.completers {
		name := completer.Name()
		cb := c.breakers.Get(name)
		start := time.Now()

		cfg := c.retry
		cfg.OnRetry = resilience.RetryLogger(name, "complete")

		resp, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Response, error) {
			return resilience.ExecuteVal(ctx, cb, func(ctx context.Context) (*Response, error) {
				return completer.Complete(ctx, req)
			})
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Warn("provider: falling through to next provider",
				zap.String("provider", name),
				zap.Error(err))
			lastErr = err
			continue
		}

		return &Result{
			Response: *resp,
			Provider: name,
			Duration: time.Since(start),
		}, nil
	}

	return nil, eris.Wrap(lastErr, "provider: all providers failed")
}
