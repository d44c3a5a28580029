// Package orchestrator drives the conversation loop: it sends the message
// list to the provider, hands tool calls to the executor, feeds results back
// into the conversation, and stops on final content or the iteration bound.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/executor"
	"github.com/lobo-cli/lobo/pkg/provider"
	"github.com/lobo-cli/lobo/pkg/registry"
)

// State is the loop's lifecycle phase.
type State string

const (
	StateRequesting          State = "requesting"
	StateAwaitingToolResults State = "awaiting_tool_results"
	StateFinalizing          State = "finalizing"
	StateTerminated          State = "terminated"
)

const (
	// DefaultMaxIterations bounds tool-executing rounds per run.
	DefaultMaxIterations = 6

	truncationNotice = "Maximum tool iterations reached. The response may be incomplete."
)

// Config holds orchestrator construction settings.
type Config struct {
	Provider      provider.Provider
	Executor      *executor.Executor
	Registry      *registry.Registry
	Model         string
	SystemPrompt  string
	MaxIterations int
}

// Orchestrator runs the request/tool/finalize loop for a single prompt.
type Orchestrator struct {
	provider      provider.Provider
	executor      *executor.Executor
	registry      *registry.Registry
	model         string
	systemPrompt  string
	maxIterations int

	state State
}

// Result is the outcome of one orchestrated run.
type Result struct {
	// Answer is the final text, or the truncation notice if the iteration
	// bound was reached.
	Answer string
	// Truncated reports whether the loop was cut off at the iteration bound.
	Truncated bool
	// Iterations counts tool-executing rounds performed.
	Iterations int
	// ToolResults holds every tool result produced, in execution order.
	ToolResults []executor.Result
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}

	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Orchestrator{
		provider:      cfg.Provider,
		executor:      cfg.Executor,
		registry:      cfg.Registry,
		model:         cfg.Model,
		systemPrompt:  cfg.SystemPrompt,
		maxIterations: maxIterations,
		state:         StateRequesting,
	}, nil
}

// State returns the current loop phase.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes the loop for a single user prompt. Images, if any, are
// attached base64-encoded to the initial user message only. Only a provider
// transport failure returns an error; every tool-level failure is absorbed
// into the conversation as a tool result.
func (o *Orchestrator) Run(ctx context.Context, prompt string, images []string) (*Result, error) {
	messages := []provider.Message{}
	if o.systemPrompt != "" {
		messages = append(messages, provider.Message{Role: "system", Content: o.systemPrompt})
	}
	messages = append(messages, provider.Message{
		Role:    "user",
		Content: prompt,
		Images:  images,
	})

	tools := o.registry.ExportDeclarations()
	result := &Result{}
	o.state = StateRequesting

	for {
		// Cancellation is honored between iterations only; an in-flight
		// tool call is never interrupted.
		select {
		case <-ctx.Done():
			o.state = StateTerminated
			return nil, ctx.Err()
		default:
		}

		log.Debug().
			Int("iteration", result.Iterations).
			Int("messages", len(messages)).
			Msg("Requesting provider response")

		resp, err := o.provider.Chat(ctx, provider.Request{
			Model:    o.model,
			Messages: messages,
			Tools:    tools,
		})
		if err != nil {
			o.state = StateTerminated
			return nil, fmt.Errorf("provider request failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			o.state = StateFinalizing
			result.Answer = resp.Content
			break
		}

		// Tool calls take precedence over any accompanying text; the model
		// is expected to answer only after seeing tool results.
		if resp.Content != "" {
			log.Debug().Str("content", resp.Content).Msg("Discarding text accompanying tool calls")
		}

		o.state = StateAwaitingToolResults

		calls := fillCallIDs(resp.ToolCalls)
		messages = append(messages, provider.Message{
			Role:      "assistant",
			Content:   resp.Content,
			ToolCalls: calls,
		})

		// Sequential, provider order: calls may depend on each other, for
		// example write then read the same file.
		for _, call := range calls {
			res := o.executor.Execute(ctx, executor.CallRequest{
				CallID:       call.ID,
				ToolName:     call.Name,
				RawArguments: call.Arguments,
			})
			result.ToolResults = append(result.ToolResults, res)
			messages = append(messages, provider.Message{
				Role:       "tool",
				Content:    res.Content(),
				ToolCallID: res.CallID,
			})
		}

		result.Iterations++
		if result.Iterations >= o.maxIterations {
			log.Warn().
				Int("maxIterations", o.maxIterations).
				Msg("Iteration bound reached, finalizing with truncation notice")
			o.state = StateFinalizing
			result.Answer = truncationNotice
			result.Truncated = true
			break
		}

		o.state = StateRequesting
	}

	o.state = StateTerminated
	return result, nil
}

// fillCallIDs assigns IDs to tool calls from providers that omit them.
// Duplicate IDs are left as-is; each call is executed independently.
func fillCallIDs(calls []provider.ToolCall) []provider.ToolCall {
	out := make([]provider.ToolCall, len(calls))
	copy(out, calls)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = "call_" + uuid.NewString()
		}
	}
	return out
}
