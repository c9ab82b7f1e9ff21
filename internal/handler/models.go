package handler

import (
	"log/slog"
	"net/http"

	"chatprojects/internal/capabilities"
	"chatprojects/internal/config"
	"chatprojects/internal/httputil"
)

// ModelsHandler serves the model catalog
type ModelsHandler struct {
	config   *config.Config
	logger   *slog.Logger
	registry *capabilities.Registry
}

// NewModelsHandler creates a new models handler
func NewModelsHandler(cfg *config.Config, logger *slog.Logger, registry *capabilities.Registry) *ModelsHandler {
	return &ModelsHandler{
		config:   cfg,
		logger:   logger,
		registry: registry,
	}
}

// ProviderResponse represents a provider with its models
type ProviderResponse struct {
	ID           string                           `json:"id"`
	Name         string                           `json:"name"`
	Available    bool                             `json:"available"`
	Default      bool                             `json:"default"`
	DefaultModel string                           `json:"default_model"`
	Models       []capabilities.ModelCapabilities `json:"models"`
}

// ListModels returns every provider in the catalog, flagging which ones are configured
// GET /models
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.GetAllProviders()
	response := make([]ProviderResponse, 0, len(providers))

	for _, id := range providers {
		caps, err := h.registry.GetProvider(id)
		if err != nil {
			h.logger.Warn("catalog provider vanished", "provider", id, "error", err)
			continue
		}
		response = append(response, ProviderResponse{
			ID:           id,
			Name:         caps.DisplayName,
			Available:    h.keyConfigured(caps.RequiresKey),
			Default:      id == h.config.DefaultProvider,
			DefaultModel: caps.DefaultModel,
			Models:       caps.Models,
		})
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": response,
	})
}

// keyConfigured reports whether the API key a provider needs is set
func (h *ModelsHandler) keyConfigured(envKey string) bool {
	switch envKey {
	case "":
		return true
	case "GEMINI_API_KEY":
		return h.config.GeminiAPIKey != ""
	case "ANTHROPIC_API_KEY":
		return h.config.AnthropicAPIKey != ""
	case "OPENAI_API_KEY":
		return h.config.OpenAIAPIKey != ""
	default:
		return false
	}
}
