package provider

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/resilience"
)

type stubCompleter struct {
	name  string
	text  string
	err   error
	calls int
}

func (s *stubCompleter) Name() string { return s.name }

func (s *stubCompleter) Complete(_ context.Context, _ Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &Response{Text: s.text, Model: s.name + "-model", OutputTokens: 5}, nil
}

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: 1}
}

func TestChainUsesFirstProvider(t *testing.T) {
	primary := &stubCompleter{name: "openai", text: "primary answer"}
	backup := &stubCompleter{name: "xai", text: "backup answer"}
	chain := NewChain(fastRetry(), resilience.DefaultCircuitBreakerConfig(), primary, backup)

	res, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "primary answer", res.Text)
	assert.Zero(t, backup.calls)
}

func TestChainFallsThroughOnFailure(t *testing.T) {
	primary := &stubCompleter{name: "openai", err: eris.New("quota exhausted")}
	backup := &stubCompleter{name: "xai", text: "backup answer"}
	chain := NewChain(fastRetry(), resilience.DefaultCircuitBreakerConfig(), primary, backup)

	res, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "xai", res.Provider)
	assert.Equal(t, "backup answer", res.Text)
	assert.Equal(t, 1, primary.calls)
}

func TestChainAllProvidersFail(t *testing.T) {
	primary := &stubCompleter{name: "openai", err: eris.New("down")}
	backup := &stubCompleter{name: "xai", err: eris.New("also down")}
	chain := NewChain(fastRetry(), resilience.DefaultCircuitBreakerConfig(), primary, backup)

	res, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "all providers failed")
}

func TestChainOpenCircuitSkipsProvider(t *testing.T) {
	primary := &stubCompleter{name: "openai", err: resilience.NewTransientError(eris.New("503"), 503)}
	backup := &stubCompleter{name: "xai", text: "backup answer"}
	breaker := resilience.CircuitBreakerConfig{FailureThreshold: 2}
	chain := NewChain(fastRetry(), breaker, primary, backup)

	// Two failing calls trip the primary's breaker.
	for range 2 {
		res, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "xai", res.Provider)
	}
	callsWhenTripped := primary.calls

	res, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "xai", res.Provider)
	assert.Equal(t, callsWhenTripped, primary.calls, "open circuit should not reach the provider")
	assert.Equal(t, resilience.CircuitOpen, chain.BreakerStates()["openai"])
}

func TestChainNoProviders(t *testing.T) {
	chain := NewChain(fastRetry(), resilience.DefaultCircuitBreakerConfig(), nil...)

	_, err := chain.Complete(context.Background(), Request{Prompt: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no providers configured")
}

func TestChainProviderNames(t *testing.T) {
	chain := NewChain(fastRetry(), resilience.DefaultCircuitBreakerConfig(),
		&stubCompleter{name: "openai"}, &stubCompleter{name: "xai"}, &stubCompleter{name: "anthropic"})

	assert.Equal(t, []string{"openai", "xai", "anthropic"}, chain.Providers())
}
