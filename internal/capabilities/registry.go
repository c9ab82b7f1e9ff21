package capabilities

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry is the model catalog across all providers
type Registry struct {
	providers map[string]*ProviderCapabilities
	mu        sync.RWMutex
}

// NewRegistry creates a new capability registry from the embedded YAML files
func NewRegistry() (*Registry, error) {
	return NewRegistryFromFS(configFiles, "config")
}

// NewRegistryFromFS loads every *.yaml file in dir. The file name is the provider key.
func NewRegistryFromFS(fsys fs.FS, dir string) (*Registry, error) {
	r := &Registry{
		providers: make(map[string]*ProviderCapabilities),
	}

	files, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("list capability files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no capability files in %s", dir)
	}

	for _, filename := range files {
		provider := strings.TrimSuffix(path.Base(filename), ".yaml")
		if err := r.loadProviderFile(fsys, filename, provider); err != nil {
			return nil, fmt.Errorf("failed to load %s capabilities: %w", provider, err)
		}
	}

	return r, nil
}

// loadProviderFile loads a provider's capability YAML file
func (r *Registry) loadProviderFile(fsys fs.FS, filename, provider string) error {
	data, err := fs.ReadFile(fsys, filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var providerCaps ProviderCapabilities
	if err := yaml.Unmarshal(data, &providerCaps); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if providerCaps.Provider == "" {
		providerCaps.Provider = provider
	}
	if providerCaps.DefaultModel == "" && len(providerCaps.Models) > 0 {
		providerCaps.DefaultModel = providerCaps.Models[0].ID
	}

	r.mu.Lock()
	r.providers[provider] = &providerCaps
	r.mu.Unlock()

	return nil
}

// GetModelCapabilities returns capabilities for a specific model
func (r *Registry) GetModelCapabilities(provider, model string) (*ModelCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}

	for i := range providerCaps.Models {
		if providerCaps.Models[i].ID == model {
			return &providerCaps.Models[i], nil
		}
	}

	return nil, fmt.Errorf("unknown model %s for provider %s", model, provider)
}

// GetProvider returns a provider's catalog entry
func (r *Registry) GetProvider(provider string) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providerCaps, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
	return providerCaps, nil
}

// ListProviderModels returns all models for a provider (ordered as defined in YAML)
func (r *Registry) ListProviderModels(provider string) ([]ModelCapabilities, error) {
	providerCaps, err := r.GetProvider(provider)
	if err != nil {
		return nil, err
	}
	return providerCaps.Models, nil
}

// GetAllProviders returns the registered provider keys in sorted order
func (r *Registry) GetAllProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]string, 0, len(r.providers))
	for provider := range r.providers {
		providers = append(providers, provider)
	}
	sort.Strings(providers)
	return providers
}
