package llm

import (
	"fmt"
	"log/slog"

	"chatprojects/internal/capabilities"
	"chatprojects/internal/config"
	domainllm "chatprojects/internal/domain/services/llm"
)

// SetupProviders initializes the provider factory and registry.
// Returns a configured ProviderRegistry or an error if setup fails.
func SetupProviders(cfg *config.Config, logger *slog.Logger) (*ProviderRegistry, error) {
	registry := NewProviderRegistry(NewProviderFactory(cfg))

	if err := registry.Validate(); err != nil {
		return nil, fmt.Errorf("provider registry validation failed: %w", err)
	}

	keys := map[string]string{
		"gemini":    cfg.GeminiAPIKey,
		"anthropic": cfg.AnthropicAPIKey,
		"openai":    cfg.OpenAIAPIKey,
	}
	for name, key := range keys {
		if key != "" {
			logger.Info("provider available", "name", name)
		} else {
			logger.Debug("provider not configured", "name", name)
		}
	}
	logger.Info("provider available", "name", "ollama", "host", cfg.OllamaHost)
	logger.Info("provider available", "name", "lorem", "models", "lorem-*")

	return registry, nil
}

// SetupOrchestrator wires the retry policy and default model into an orchestrator
func SetupOrchestrator(
	cfg *config.Config,
	providers *ProviderRegistry,
	catalog *capabilities.Registry,
	logger *slog.Logger,
) (domainllm.Orchestrator, error) {
	policy := RetryPolicyFromConfig(cfg)
	temp := cfg.Temperature

	orch, err := NewOrchestrator(providers, catalog, NewRetrier(policy, logger), OrchestratorConfig{
		Provider:    cfg.DefaultProvider,
		Model:       cfg.DefaultModel,
		Temperature: &temp,
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("conversation orchestrator ready",
		"provider", cfg.DefaultProvider,
		"model", cfg.DefaultModel,
		"retry_attempts", policy.Attempts,
	)
	return orch, nil
}
