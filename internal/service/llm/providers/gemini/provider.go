// Package gemini adapts Google's GenAI SDK to the LLMProvider interface.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	domainllm "chatprojects/internal/domain/services/llm"
)

// Provider implements LLMProvider for Gemini models
type Provider struct {
	client *genai.Client
}

// NewProvider creates a Gemini provider using the Gemini API backend
func NewProvider(ctx context.Context, apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "gemini"
}

// SupportsModel returns true for "gemini-*" models
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(model), "gemini-")
}

// GenerateResponse sends the conversation in one GenerateContent call
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, domainllm.Permanent(fmt.Errorf("model '%s' is not supported by Gemini provider", req.Model))
	}

	system, contents := convertMessages(req.Messages)

	config := &genai.GenerateContentConfig{}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, classifyError(err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned no text (finish reason %q)", finishReason(resp))
	}

	out := &domainllm.GenerateResponse{
		Text:       text,
		Model:      req.Model,
		StopReason: finishReason(resp),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// convertMessages maps prompt roles onto Gemini's user/model roles
func convertMessages(messages []domainllm.Message) (string, []*genai.Content) {
	system, rest := domainllm.SplitSystem(messages)

	contents := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		role := genai.Role(genai.RoleUser)
		if m.Role == domainllm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return system, contents
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return ""
	}
	return string(resp.Candidates[0].FinishReason)
}

// classifyError marks request errors (bad key, unknown model) as permanent
func classifyError(err error) error {
	wrapped := fmt.Errorf("gemini API call failed: %w", err)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && domainllm.IsClientStatus(apiErr.Code) {
		return domainllm.Permanent(wrapped)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && domainllm.IsClientStatus(apiErrPtr.Code) {
		return domainllm.Permanent(wrapped)
	}
	return wrapped
}
