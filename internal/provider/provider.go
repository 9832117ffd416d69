// Package provider abstracts the OpenAI-compatible and Anthropic chat
// APIs behind one completion interface so enrichment can fail over
// between vendors without caring which SDK answered.
package provider

import "context"

// Request is a single system+user prompt pair.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Response is the text completion plus token accounting for cost and
// comparison metrics.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Completer produces one chat completion. Implementations are safe for
// concurrent use.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (*Response, error)
}
