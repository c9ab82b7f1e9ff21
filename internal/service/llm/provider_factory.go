package llm

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chatprojects/internal/config"
	domainllm "chatprojects/internal/domain/services/llm"
	"chatprojects/internal/service/llm/providers/anthropic"
	"chatprojects/internal/service/llm/providers/gemini"
	"chatprojects/internal/service/llm/providers/langchain"
	"chatprojects/internal/service/llm/providers/lorem"
)

// ProviderConstructor builds a provider from config
type ProviderConstructor func(ctx context.Context, cfg *config.Config) (domainllm.LLMProvider, error)

// ProviderFactory creates LLM provider instances by name
type ProviderFactory struct {
	config       *config.Config
	constructors map[string]ProviderConstructor
}

// NewProviderFactory creates a factory with the built-in providers registered
//
// Supported providers:
//   - "gemini" - Google Gemini models via the GenAI SDK
//   - "anthropic" - Claude models via Anthropic API
//   - "openai" - OpenAI models via langchaingo
//   - "ollama" - local models via langchaingo
//   - "lorem" - Mock provider for testing (no API key required)
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	f := &ProviderFactory{
		config:       cfg,
		constructors: make(map[string]ProviderConstructor),
	}

	f.Register("gemini", createGeminiProvider)
	f.Register("anthropic", createAnthropicProvider)
	f.Register("openai", createOpenAIProvider)
	f.Register("ollama", createOllamaProvider)
	f.Register("lorem", createLoremProvider)

	return f
}

// Register adds or replaces the constructor for a provider name
func (f *ProviderFactory) Register(name string, constructor ProviderConstructor) {
	f.constructors[name] = constructor
}

// Providers returns the registered provider names in sorted order
func (f *ProviderFactory) Providers() []string {
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetProvider returns a new provider instance for the given provider name.
// Configuration errors (missing key, unknown name) are permanent.
func (f *ProviderFactory) GetProvider(ctx context.Context, providerName string) (domainllm.LLMProvider, error) {
	constructor, ok := f.constructors[providerName]
	if !ok {
		return nil, domainllm.Permanent(fmt.Errorf("unsupported provider: %s", providerName))
	}

	provider, err := constructor(ctx, f.config)
	if err != nil {
		return nil, domainllm.Permanent(err)
	}
	return provider, nil
}

func createGeminiProvider(ctx context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
	provider, err := gemini.NewProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
	}
	return provider, nil
}

func createAnthropicProvider(_ context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
	provider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
	}
	return provider, nil
}

func createOpenAIProvider(_ context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
	provider, err := langchain.NewOpenAIProvider(cfg.OpenAIAPIKey, defaultModelFor(cfg, "openai", "gpt-4o-mini"))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI provider: %w", err)
	}
	return provider, nil
}

func createOllamaProvider(_ context.Context, cfg *config.Config) (domainllm.LLMProvider, error) {
	provider, err := langchain.NewOllamaProvider(cfg.OllamaHost, defaultModelFor(cfg, "ollama", "llama3.2"))
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama provider: %w", err)
	}
	return provider, nil
}

// createLoremProvider needs no API key
func createLoremProvider(_ context.Context, _ *config.Config) (domainllm.LLMProvider, error) {
	return lorem.NewProvider(2 * time.Second), nil
}

// defaultModelFor returns the configured model when it belongs to provider.
// langchaingo clients need a model at construction; each call overrides it.
func defaultModelFor(cfg *config.Config, provider, fallback string) string {
	info, err := ResolveModel(cfg.DefaultProvider, cfg.DefaultModel)
	if err == nil && info.Provider == provider {
		return info.Model
	}
	return fallback
}
