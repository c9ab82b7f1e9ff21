package llm

import (
	"context"
	"testing"

	"chatprojects/internal/config"
	domainllm "chatprojects/internal/domain/services/llm"
)

func TestProviderRegistryCachesInstances(t *testing.T) {
	registry := NewProviderRegistry(NewProviderFactory(&config.Config{}))

	first, err := registry.GetProvider(context.Background(), "lorem")
	if err != nil {
		t.Fatalf("GetProvider: %v", err)
	}
	second, err := registry.GetProvider(context.Background(), "lorem")
	if err != nil {
		t.Fatalf("GetProvider: %v", err)
	}
	if first != second {
		t.Error("expected cached instance")
	}
	if first.Name() != "lorem" {
		t.Errorf("Name() = %q", first.Name())
	}
}

func TestProviderRegistryErrorsArePermanent(t *testing.T) {
	registry := NewProviderRegistry(NewProviderFactory(&config.Config{}))

	for _, name := range []string{"", "unknown", "gemini", "anthropic", "openai"} {
		_, err := registry.GetProvider(context.Background(), name)
		if err == nil {
			t.Errorf("GetProvider(%q) succeeded without configuration", name)
			continue
		}
		if !domainllm.IsPermanent(err) {
			t.Errorf("GetProvider(%q) error not permanent: %v", name, err)
		}
	}
}

func TestProviderFactoryProviders(t *testing.T) {
	got := NewProviderFactory(&config.Config{}).Providers()
	want := []string{"anthropic", "gemini", "lorem", "ollama", "openai"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestDefaultModelFor(t *testing.T) {
	cfg := &config.Config{DefaultProvider: "ollama", DefaultModel: "qwen2.5"}
	if got := defaultModelFor(cfg, "ollama", "llama3.2"); got != "qwen2.5" {
		t.Errorf("got %q", got)
	}
	if got := defaultModelFor(cfg, "openai", "gpt-4o-mini"); got != "gpt-4o-mini" {
		t.Errorf("got %q", got)
	}
}
