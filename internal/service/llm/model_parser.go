package llm

import (
	"fmt"
	"strings"
)

// ModelInfo contains parsed provider and model information
type ModelInfo struct {
	Provider string // Provider name: "gemini", "anthropic", "openai", "ollama", "lorem"
	Model    string // Model identifier for that provider
}

// ParseModel extracts provider information from a model string
//
// Supported formats:
//   - "gemini-2.5-flash" → {Provider: "gemini", Model: "gemini-2.5-flash"}
//   - "claude-haiku-4-5" → {Provider: "anthropic", Model: "claude-haiku-4-5"}
//   - "lorem-fast" → {Provider: "lorem", Model: "lorem-fast"}
//   - "ollama/llama3.2" → {Provider: "ollama", Model: "llama3.2"}
//
// Rules:
//   - If model contains "/" → split on first "/" to extract provider
//   - Else → infer provider from model prefix
func ParseModel(modelStr string) (*ModelInfo, error) {
	if modelStr == "" {
		return nil, fmt.Errorf("model string cannot be empty")
	}

	if provider, model, ok := strings.Cut(modelStr, "/"); ok {
		if provider == "" {
			return nil, fmt.Errorf("provider cannot be empty in model string: %s", modelStr)
		}
		if model == "" {
			return nil, fmt.Errorf("model cannot be empty in model string: %s", modelStr)
		}
		return &ModelInfo{Provider: provider, Model: model}, nil
	}

	provider := inferProvider(modelStr)
	if provider == "" {
		return nil, fmt.Errorf("unable to infer provider from model: %s", modelStr)
	}

	return &ModelInfo{Provider: provider, Model: modelStr}, nil
}

// ResolveModel picks the provider for a configured model.
// An explicit provider wins unless the model string names its own.
func ResolveModel(provider, model string) (*ModelInfo, error) {
	if strings.Contains(model, "/") || provider == "" {
		return ParseModel(model)
	}
	if model == "" {
		return nil, fmt.Errorf("model cannot be empty for provider %s", provider)
	}
	return &ModelInfo{Provider: provider, Model: model}, nil
}

// inferProvider infers the provider from model name prefix
func inferProvider(model string) string {
	modelLower := strings.ToLower(model)

	switch {
	case strings.HasPrefix(modelLower, "gemini-"):
		return "gemini"
	case strings.HasPrefix(modelLower, "claude-"):
		return "anthropic"
	case strings.HasPrefix(modelLower, "gpt-"),
		strings.HasPrefix(modelLower, "o1-"),
		strings.HasPrefix(modelLower, "o3-"):
		return "openai"
	case strings.HasPrefix(modelLower, "lorem-"):
		return "lorem"
	}

	return ""
}
