package lorem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	domainllm "chatprojects/internal/domain/services/llm"
)

// Provider is a mock LLM provider that generates lorem ipsum text.
// Used for testing and development without requiring real API keys.
type Provider struct {
	mu        sync.Mutex // golorem's generator is not safe for concurrent use
	generator *loremgen.Lorem
	slowDelay time.Duration
}

// NewProvider creates a new lorem ipsum provider.
// lorem-slow waits slowDelay before answering; every other model answers at once.
func NewProvider(slowDelay time.Duration) *Provider {
	return &Provider{
		generator: loremgen.New(),
		slowDelay: slowDelay,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "lorem"
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateResponse returns a few paragraphs of placeholder text
func (p *Provider) GenerateResponse(ctx context.Context, req *domainllm.GenerateRequest) (*domainllm.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, domainllm.Permanent(fmt.Errorf("model '%s' is not supported by lorem provider", req.Model))
	}

	if strings.Contains(req.Model, "slow") && p.slowDelay > 0 {
		select {
		case <-time.After(p.slowDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}

	// Estimate: 1 token ≈ 4 characters
	text := p.generateText(maxTokens * 4)

	return &domainllm.GenerateResponse{
		Text:         text,
		Model:        req.Model,
		InputTokens:  estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)), // Word count as proxy
		StopReason:   "end_turn",
	}, nil
}

// generateText builds paragraphs until targetChars is reached, always at least one
func (p *Provider) generateText(targetChars int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	for b.Len() == 0 || b.Len() < targetChars/4 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.generator.Paragraph(3, 5))
	}
	return b.String()
}

func estimateTokens(messages []domainllm.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total
}
