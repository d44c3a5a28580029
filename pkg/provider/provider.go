// Package provider abstracts the chat-completion backends. The orchestrator
// depends only on the Provider interface; concrete adapters exist for Ollama,
// OpenAI, and Anthropic.
package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lobo-cli/lobo/pkg/registry"
)

// ToolCall is a tool invocation requested by the model. Arguments are kept
// raw because backends are not trusted to emit well-formed structured data;
// the executor owns the parse.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Message is one conversation entry. Images carries base64-encoded image
// data and is only ever populated on the initial user message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Images     []string   `json:"images,omitempty"`
}

// Request is a single chat-completion request.
type Request struct {
	Model    string
	Messages []Message
	Tools    []registry.Declaration
}

// Response is the model's reply: either final content, or one or more tool
// calls (possibly with accompanying content the orchestrator will not treat
// as final).
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider is a chat-completion backend that may request tool calls. The
// orchestrator issues at most one call per loop iteration.
type Provider interface {
	Chat(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Config carries provider construction settings.
type Config struct {
	OllamaBaseURL   string
	OpenAIAPIKey    string
	AnthropicAPIKey string
}

// New creates a provider by name.
func New(name string, cfg Config) (Provider, error) {
	switch name {
	case "ollama":
		return NewOllamaProvider(cfg.OllamaBaseURL), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey), nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
}
