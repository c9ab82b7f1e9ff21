package capabilities

import "gopkg.in/yaml.v3"

// ModelCapabilities represents the catalog metadata for a specific model
type ModelCapabilities struct {
	// Model identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	// Display information
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`

	// Limits
	ContextWindow int `yaml:"context_window" json:"context_window"`
	MaxOutput     int `yaml:"max_output" json:"max_output"`

	// Pricing per million tokens; zero for local and mock models
	InputPrice  float64 `yaml:"input_price" json:"input_price"`
	OutputPrice float64 `yaml:"output_price" json:"output_price"`
}

// ProviderCapabilities represents all models for a provider
type ProviderCapabilities struct {
	Provider     string              `yaml:"provider" json:"provider"`
	DisplayName  string              `yaml:"display_name" json:"display_name"`
	RequiresKey  string              `yaml:"requires_key" json:"-"`
	DefaultModel string              `yaml:"default_model" json:"default_model"`
	Models       []ModelCapabilities `yaml:"-" json:"models"` // Ordered slice, populated by custom unmarshaler
}

// UnmarshalYAML decodes the scalar fields normally and keeps models in file order.
// A plain map would lose the order the catalog is written in.
func (p *ProviderCapabilities) UnmarshalYAML(node *yaml.Node) error {
	type plain struct {
		Provider     string                       `yaml:"provider"`
		DisplayName  string                       `yaml:"display_name"`
		RequiresKey  string                       `yaml:"requires_key"`
		DefaultModel string                       `yaml:"default_model"`
		Models       map[string]ModelCapabilities `yaml:"models"`
	}
	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}

	p.Provider = decoded.Provider
	p.DisplayName = decoded.DisplayName
	p.RequiresKey = decoded.RequiresKey
	p.DefaultModel = decoded.DefaultModel
	p.Models = nil

	// node.Content alternates key, value for a mapping node
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "models" {
			continue
		}
		modelsNode := node.Content[i+1]
		for j := 0; j+1 < len(modelsNode.Content); j += 2 {
			modelID := modelsNode.Content[j].Value
			if model, ok := decoded.Models[modelID]; ok {
				model.ID = modelID
				p.Models = append(p.Models, model)
			}
		}
		break
	}

	return nil
}
