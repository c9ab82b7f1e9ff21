// Package langchain serves OpenAI and Ollama models through langchaingo.
package langchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	domainllm "chatprojects/internal/domain/services/llm"
)

// Provider wraps a langchaingo model under a provider name
type Provider struct {
	name     string
	model    llms.Model
	supports func(model string) bool
}

// NewOpenAIProvider creates a provider for OpenAI chat models
func NewOpenAIProvider(apiKey, defaultModel string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	model, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(defaultModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}

	return &Provider{
		name:  "openai",
		model: model,
		supports: func(m string) bool {
			m = strings.ToLower(m)
			return strings.HasPrefix(m, "gpt-") || strings.HasPrefix(m, "o1-") || strings.HasPrefix(m, "o3-")
		},
	}, nil
}

// NewOllamaProvider creates a provider for models served by a local Ollama
func NewOllamaProvider(serverURL, defaultModel string) (*Provider, error) {
	model, err := ollama.New(
		ollama.WithModel(defaultModel),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}

	return &Provider{
		name:  "ollama",
		model: model,
		// Ollama serves whatever has been pulled, so any name is accepted
		supports: func(m string) bool { return m != "" },
	}, nil
}

// NewProvider wraps an arbitrary langchaingo model
func NewProvider(name string, model llms.Model) *Provider {
	return &Provider{name: name, model: model, supports: func(m string) bool { return m != "" }}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return p.name
}

// SupportsModel reports whether the model belongs to this provider
func (p *Provider) SupportsModel(model string) bool {
	return p.supports(model)
}

// GenerateResponse sends the prompt as chat messages
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, domainllm.Permanent(fmt.Errorf("model '%s' is not supported by %s provider", req.Model, p.name))
	}

	opts := []llms.CallOption{llms.WithModel(req.Model)}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := p.model.GenerateContent(ctx, convertMessages(req.Messages), opts...)
	if err != nil {
		return nil, fmt.Errorf("%s generate: %w", p.name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return nil, fmt.Errorf("%s returned no response choices", p.name)
	}
	choice := resp.Choices[0]

	return &domainllm.GenerateResponse{
		Text:         choice.Content,
		Model:        req.Model,
		InputTokens:  intInfo(choice.GenerationInfo, "PromptTokens"),
		OutputTokens: intInfo(choice.GenerationInfo, "CompletionTokens"),
		StopReason:   choice.StopReason,
	}, nil
}

func convertMessages(messages []domainllm.Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case domainllm.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case domainllm.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func intInfo(info map[string]any, key string) int {
	if v, ok := info[key].(int); ok {
		return v
	}
	return 0
}
