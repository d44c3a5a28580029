// Package config defines the Lobo configuration and its loading rules:
// defaults, then the JSON config file under ~/.lobo, then LOBO_* environment
// variables, then command-line flags.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/lobo-cli/lobo/pkg/permission"
)

// DefaultSystemPrompt steers the model to use tools only for explicit
// file or command requests.
const DefaultSystemPrompt = `You are Lobo, a helpful command-line assistant.

You have access to tools for file operations, command execution, web search, and editor integration. However, you should ONLY use tools when the user explicitly requests an action on files, commands, or information lookup.

For casual conversation, greetings, questions about your capabilities, or general help requests, respond conversationally WITHOUT using any tools.

Remember: Only use tools for explicit file/command/search requests, not for conversation.`

// WebSearchSystemPrompt is used by the web subcommand.
const WebSearchSystemPrompt = `You are Lobo, a command-line research assistant.

Use the search_web tool to find current information for the user's question, then summarize what you found with source URLs. Prefer searching over answering from memory when the question concerns recent events or facts you are unsure about.`

// Config represents the main Lobo configuration.
type Config struct {
	// Provider selects the LLM backend: ollama, openai, or anthropic.
	Provider string `json:"provider" mapstructure:"provider"`

	// Model is the chat model name for the selected provider.
	Model string `json:"model" mapstructure:"model"`

	// VisionModel is used when images are attached.
	VisionModel string `json:"vision_model" mapstructure:"vision_model"`

	// OllamaBaseURL is the Ollama server address.
	OllamaBaseURL string `json:"ollama_base_url" mapstructure:"ollama_base_url"`

	// OpenAIAPIKey authenticates the OpenAI backend.
	OpenAIAPIKey string `json:"openai_api_key" mapstructure:"openai_api_key"`

	// AnthropicAPIKey authenticates the Anthropic backend.
	AnthropicAPIKey string `json:"anthropic_api_key" mapstructure:"anthropic_api_key"`

	// EditorAPIURL is the base URL of the local editor API bridge.
	EditorAPIURL string `json:"editor_api_url" mapstructure:"editor_api_url"`

	// TrustLevel is the default permission mode: safe-only, interactive, auto.
	TrustLevel string `json:"default_trust_level" mapstructure:"default_trust_level"`

	// CustomAllowlist holds extra command patterns treated as safe.
	CustomAllowlist []string `json:"custom_allowlist" mapstructure:"custom_allowlist"`

	// CustomDenylist holds extra command patterns treated as destructive.
	CustomDenylist []string `json:"custom_denylist" mapstructure:"custom_denylist"`

	// MaxToolIterations bounds tool-executing rounds per run.
	MaxToolIterations int `json:"max_tool_iterations" mapstructure:"max_tool_iterations"`

	// CommandTimeoutSec bounds each execute_command run.
	CommandTimeoutSec int `json:"command_timeout_sec" mapstructure:"command_timeout_sec"`

	// SystemPrompt overrides the default system prompt.
	SystemPrompt string `json:"system_prompt" mapstructure:"system_prompt"`

	// Logging configuration.
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Provider:          "ollama",
		Model:             "granite3.1-moe:3b",
		VisionModel:       "qwen3-vl:8b",
		OllamaBaseURL:     "http://localhost:11434",
		EditorAPIURL:      "http://localhost:5005",
		TrustLevel:        string(permission.TrustInteractive),
		CustomAllowlist:   []string{},
		CustomDenylist:    []string{},
		MaxToolIterations: 6,
		CommandTimeoutSec: 30,
		SystemPrompt:      DefaultSystemPrompt,
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Provider {
	case "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("invalid provider %q (must be: ollama, openai, anthropic)", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("model is required")
	}

	if _, err := permission.ParseTrustLevel(c.TrustLevel); err != nil {
		return err
	}

	if c.Provider == "openai" && c.OpenAIAPIKey == "" {
		return fmt.Errorf("openai_api_key is required for the openai provider")
	}
	if c.Provider == "anthropic" && c.AnthropicAPIKey == "" {
		return fmt.Errorf("anthropic_api_key is required for the anthropic provider")
	}

	if c.MaxToolIterations < 1 {
		return fmt.Errorf("max_tool_iterations must be at least 1")
	}
	if c.CommandTimeoutSec < 1 {
		return fmt.Errorf("command_timeout_sec must be at least 1")
	}

	return nil
}
