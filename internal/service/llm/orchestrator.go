package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chatprojects/internal/capabilities"
	"chatprojects/internal/domain"
	"chatprojects/internal/domain/models"
	domainllm "chatprojects/internal/domain/services/llm"
)

// errEmptyReply is retried like any transient provider failure
var errEmptyReply = errors.New("provider returned an empty reply")

// OrchestratorConfig selects the model used for every conversation
type OrchestratorConfig struct {
	Provider    string
	Model       string
	Temperature *float64
}

type orchestrator struct {
	providers *ProviderRegistry
	catalog   *capabilities.Registry
	retrier   *Retrier
	provider  string
	model     string
	temp      *float64
	logger    *slog.Logger
}

// NewOrchestrator creates the conversation orchestrator. catalog may be nil.
func NewOrchestrator(
	providers *ProviderRegistry,
	catalog *capabilities.Registry,
	retrier *Retrier,
	cfg OrchestratorConfig,
	logger *slog.Logger,
) (domainllm.Orchestrator, error) {
	info, err := ResolveModel(cfg.Provider, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("resolve default model: %w", err)
	}

	return &orchestrator{
		providers: providers,
		catalog:   catalog,
		retrier:   retrier,
		provider:  info.Provider,
		model:     info.Model,
		temp:      cfg.Temperature,
		logger:    logger,
	}, nil
}

// Generate builds the prompt and calls the provider under the retry policy
func (o *orchestrator) Generate(ctx context.Context, conv *models.Conversation, userMessage string) (string, error) {
	if conv == nil || conv.Project == nil || strings.TrimSpace(conv.Project.BaseInstructions) == "" {
		return "", domain.ErrMissingInstructions
	}

	var chatID string
	if conv.Chat != nil {
		chatID = conv.Chat.ID
	}

	prompt := BuildPrompt(conv.Project.BaseInstructions, conv.Messages, userMessage, o.logger)

	provider, err := o.providers.GetProvider(ctx, o.provider)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	req := &domainllm.GenerateRequest{
		Messages:    prompt,
		Model:       o.model,
		Temperature: o.temp,
		MaxTokens:   o.maxTokens(),
	}

	var reply *domainllm.GenerateResponse
	err = o.retrier.Do(ctx, func(ctx context.Context) error {
		resp, err := provider.GenerateResponse(ctx, req)
		if err != nil {
			return err
		}
		if strings.TrimSpace(resp.Text) == "" {
			return errEmptyReply
		}
		reply = resp
		return nil
	})
	if err != nil {
		o.logger.Error("llm generation failed",
			"chat_id", chatID,
			"provider", o.provider,
			"model", o.model,
			"error", err,
		)
		return "", err
	}

	o.logger.Info("llm reply generated",
		"chat_id", chatID,
		"provider", o.provider,
		"model", reply.Model,
		"input_tokens", reply.InputTokens,
		"output_tokens", reply.OutputTokens,
		"stop_reason", reply.StopReason,
	)

	return reply.Text, nil
}

func (o *orchestrator) maxTokens() int {
	if o.catalog == nil {
		return 0
	}
	caps, err := o.catalog.GetModelCapabilities(o.provider, o.model)
	if err != nil {
		return 0
	}
	return caps.MaxOutput
}

// BuildPrompt orders the prompt as system instructions, history, then the new
// user message. History entries with roles other than user/assistant are skipped.
func BuildPrompt(instructions string, history []models.Message, userMessage string, logger *slog.Logger) []domainllm.Message {
	prompt := make([]domainllm.Message, 0, len(history)+2)
	prompt = append(prompt, domainllm.Message{Role: domainllm.RoleSystem, Content: instructions})

	for _, msg := range history {
		switch msg.Role {
		case models.RoleUser:
			prompt = append(prompt, domainllm.Message{Role: domainllm.RoleUser, Content: msg.Content})
		case models.RoleAssistant:
			prompt = append(prompt, domainllm.Message{Role: domainllm.RoleAssistant, Content: msg.Content})
		default:
			logger.Warn("skipping message with unknown role", "message_id", msg.ID, "role", msg.Role)
		}
	}

	return append(prompt, domainllm.Message{Role: domainllm.RoleUser, Content: userMessage})
}
