package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	domainllm "chatprojects/internal/domain/services/llm"
)

// defaultMaxTokens is used when the request and the catalog give no limit;
// the Messages API requires one.
const defaultMaxTokens = 4096

// Provider implements the LLMProvider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
func NewProvider(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}

	// Retries are handled by the orchestrator
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateResponse generates a response from Claude.
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, domainllm.Permanent(fmt.Errorf("model '%s' is not supported by Anthropic provider", req.Model))
	}

	apiParams := buildParams(req)

	message, err := p.client.Messages.New(ctx, apiParams)
	if err != nil {
		return nil, classifyError(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("anthropic returned no text (stop reason %q)", message.StopReason)
	}

	return &domainllm.GenerateResponse{
		Text:         text.String(),
		Model:        string(message.Model),
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
		StopReason:   string(message.StopReason),
	}, nil
}

// buildParams converts the prompt. The system message travels in System, the rest as turns.
func buildParams(req *domainllm.GenerateRequest) anthropic.MessageNewParams {
	system, rest := domainllm.SplitSystem(req.Messages)

	messages := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domainllm.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	return params
}

// classifyError marks 4xx responses other than 408/429 as permanent
func classifyError(err error) error {
	wrapped := fmt.Errorf("anthropic API call failed: %w", err)

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && domainllm.IsClientStatus(apiErr.StatusCode) {
		return domainllm.Permanent(wrapped)
	}
	return wrapped
}
