package provider

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sashabaranov/go-openai"
)

// XAIBaseURL is the OpenAI-compatible endpoint for xAI Grok models.
const XAIBaseURL = "https://api.x.ai/v1"

// OpenAICompatible is a Completer backed by any chat API speaking the
// OpenAI wire protocol. Both our OpenAI and xAI providers are this type,
// differing only in name, base URL and model.
type OpenAICompatible struct {
	name   string
	model  string
	client *openai.Client
}

// OpenAIOption configures an OpenAICompatible provider.
type OpenAIOption func(*openai.ClientConfig)

// WithBaseURL points the client at a non-OpenAI endpoint.
func WithBaseURL(u string) OpenAIOption {
	return func(cfg *openai.ClientConfig) {
		cfg.BaseURL = u
	}
}

// NewOpenAICompatible creates a provider for an OpenAI-protocol API.
func NewOpenAICompatible(name, apiKey, model string, opts ...OpenAIOption) *OpenAICompatible {
	cfg := openai.DefaultConfig(apiKey)
	for _, o := range opts {
		o(&cfg)
	}
	return &OpenAICompatible{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(apiKey, model string) *OpenAICompatible {
	if model == "" {
		model = openai.GPT4oMini
	}
	return NewOpenAICompatible("openai", apiKey, model)
}

// NewXAI creates the xAI provider.
func NewXAI(apiKey, model string) *OpenAICompatible {
	if model == "" {
		model = "grok-2-latest"
	}
	return NewOpenAICompatible("xai", apiKey, model, WithBaseURL(XAIBaseURL))
}

func (p *OpenAICompatible) Name() string {
	return p.name
}

func (p *OpenAICompatible) Complete(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, eris.Wrapf(err, "provider %s: create chat completion", p.name)
	}
	if len(resp.Choices) == 0 {
		return nil, eris.Errorf("provider %s: empty choices in response", p.name)
	}

	return &Response{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}
