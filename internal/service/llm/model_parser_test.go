package llm

import (
	"testing"
)

func TestParseModel(t *testing.T) {
	tests := []struct {
		name         string
		modelStr     string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{
			name:         "gemini default",
			modelStr:     "gemini-2.5-flash",
			wantProvider: "gemini",
			wantModel:    "gemini-2.5-flash",
		},
		{
			name:         "claude-haiku with version",
			modelStr:     "claude-haiku-4-5",
			wantProvider: "anthropic",
			wantModel:    "claude-haiku-4-5",
		},
		{
			name:         "ollama with explicit provider",
			modelStr:     "ollama/llama3.2",
			wantProvider: "ollama",
			wantModel:    "llama3.2",
		},
		{
			name:         "explicit provider keeps rest of path",
			modelStr:     "openai/org/custom",
			wantProvider: "openai",
			wantModel:    "org/custom",
		},
		{
			name:         "gpt model",
			modelStr:     "gpt-4o-mini",
			wantProvider: "openai",
			wantModel:    "gpt-4o-mini",
		},
		{
			name:         "lorem mock",
			modelStr:     "lorem-fast",
			wantProvider: "lorem",
			wantModel:    "lorem-fast",
		},
		{
			name:         "case insensitive prefix",
			modelStr:     "Gemini-2.5-Pro",
			wantProvider: "gemini",
			wantModel:    "Gemini-2.5-Pro",
		},
		{name: "empty", modelStr: "", wantErr: true},
		{name: "unknown prefix", modelStr: "llama3.2", wantErr: true},
		{name: "empty provider", modelStr: "/gpt-4", wantErr: true},
		{name: "empty model", modelStr: "ollama/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModel(tt.modelStr)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseModel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Provider != tt.wantProvider {
				t.Errorf("Provider = %v, want %v", got.Provider, tt.wantProvider)
			}
			if got.Model != tt.wantModel {
				t.Errorf("Model = %v, want %v", got.Model, tt.wantModel)
			}
		})
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, model       string
		wantProvider, wantMdl string
		wantErr               bool
	}{
		{"gemini", "gemini-2.5-flash", "gemini", "gemini-2.5-flash", false},
		{"ollama", "llama3.2", "ollama", "llama3.2", false},
		{"", "claude-haiku-4-5", "anthropic", "claude-haiku-4-5", false},
		{"gemini", "ollama/qwen2.5", "ollama", "qwen2.5", false},
		{"ollama", "", "", "", true},
	}
	for _, tt := range tests {
		got, err := ResolveModel(tt.provider, tt.model)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ResolveModel(%q, %q) error = %v", tt.provider, tt.model, err)
		}
		if tt.wantErr {
			continue
		}
		if got.Provider != tt.wantProvider || got.Model != tt.wantMdl {
			t.Errorf("ResolveModel(%q, %q) = %+v", tt.provider, tt.model, got)
		}
	}
}
