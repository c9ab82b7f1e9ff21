package llm

import (
	"context"
	"fmt"
	"sync"

	domainllm "chatprojects/internal/domain/services/llm"
)

// ProviderRegistry caches provider instances created by the factory
type ProviderRegistry struct {
	factory *ProviderFactory
	cache   map[string]domainllm.LLMProvider // Cache provider instances
	mu      sync.RWMutex
}

// NewProviderRegistry creates a new provider registry.
func NewProviderRegistry(factory *ProviderFactory) *ProviderRegistry {
	return &ProviderRegistry{
		factory: factory,
		cache:   make(map[string]domainllm.LLMProvider),
	}
}

// GetProvider returns the provider for the given name, creating and caching it on first use.
//
// Examples:
//   - "gemini" → creates the GenAI-backed provider
//   - "lorem" → creates the Lorem provider
func (r *ProviderRegistry) GetProvider(ctx context.Context, provider string) (domainllm.LLMProvider, error) {
	if provider == "" {
		return nil, domainllm.Permanent(fmt.Errorf("provider cannot be empty"))
	}

	// Fast path: check cache with read lock
	r.mu.RLock()
	if cached, exists := r.cache[provider]; exists {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check cache after acquiring write lock
	if cached, exists := r.cache[provider]; exists {
		return cached, nil
	}

	if r.factory == nil {
		return nil, domainllm.Permanent(fmt.Errorf("provider '%s' is not registered", provider))
	}

	created, err := r.factory.GetProvider(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider '%s': %w", provider, err)
	}

	r.cache[provider] = created
	return created, nil
}

// Register installs a ready-made provider under its Name, bypassing the factory
func (r *ProviderRegistry) Register(p domainllm.LLMProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[p.Name()] = p
}

// Validate checks if the factory is properly configured.
// Should be called at startup to fail fast if misconfigured.
func (r *ProviderRegistry) Validate() error {
	if r.factory == nil {
		return fmt.Errorf("provider factory is not configured")
	}
	return nil
}
