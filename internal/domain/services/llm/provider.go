package llm

import "context"

// Prompt roles. RoleSystem only ever appears as the first message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLMProvider defines the interface that all LLM providers must implement.
// This abstraction allows supporting multiple providers (Gemini, Anthropic, OpenAI, etc.)
// behind one orchestrator.
type LLMProvider interface {
	// GenerateResponse sends the prompt and waits for a single text reply
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name (e.g., "gemini", "anthropic")
	Name() string

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}

// GenerateRequest contains the parameters for an LLM generation request.
type GenerateRequest struct {
	// Messages is the role-ordered prompt: an optional system message first,
	// then alternating user/assistant history, ending with the new user message.
	Messages []Message

	// Model is the model identifier (e.g., "gemini-2.5-flash")
	Model string

	// Temperature is optional; nil means provider default
	Temperature *float64

	// MaxTokens caps the reply; zero means provider default
	MaxTokens int
}

// Message represents a single message in the prompt
type Message struct {
	Role    string
	Content string
}

// GenerateResponse contains the LLM provider's response.
type GenerateResponse struct {
	Text string

	// Model is the model that was used (may differ from request if aliased)
	Model string

	InputTokens  int
	OutputTokens int
	StopReason   string
}

// SplitSystem separates a leading system message from the rest of the prompt.
// Providers whose APIs take the system prompt out of band use this.
func SplitSystem(messages []Message) (string, []Message) {
	if len(messages) > 0 && messages[0].Role == RoleSystem {
		return messages[0].Content, messages[1:]
	}
	return "", messages
}
