// Package executor turns a model-issued tool call request into a validated,
// permission-checked invocation of the bound capability provider. Every
// request yields exactly one result envelope regardless of failure mode; no
// tool may produce a side effect without passing the permission gate first.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

// Status classifies the outcome of one tool call.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusValidationError  Status = "validation_error"
	StatusPermissionDenied Status = "permission_denied"
	StatusExecutionError   Status = "execution_error"
)

// CallRequest is one tool call as issued by the LLM provider. RawArguments
// may be a JSON object or a JSON string wrapping an object; providers are not
// trusted to always emit well-formed structured data.
type CallRequest struct {
	CallID       string
	ToolName     string
	RawArguments json.RawMessage
}

// Result is the normalized envelope produced for every request. CallID
// echoes the request so the provider can correlate.
type Result struct {
	CallID   string      `json:"call_id"`
	ToolName string      `json:"tool"`
	Status   Status      `json:"status"`
	Payload  interface{} `json:"payload,omitempty"`
	Error    string      `json:"error,omitempty"`
	Summary  string      `json:"-"`
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Content serializes the result for a tool-role conversation message. The
// model reads this to decide its next step, so failures are included rather
// than dropped.
func (r Result) Content() string {
	data, err := json.Marshal(r)
	if err != nil {
		// Unmarshalable payloads degrade to the error envelope.
		fallback := Result{CallID: r.CallID, ToolName: r.ToolName, Status: StatusExecutionError, Error: fmt.Sprintf("failed to serialize result: %v", err)}
		data, _ = json.Marshal(fallback)
	}
	return string(data)
}

// Executor drives the lookup → parse → validate → authorize → dispatch
// pipeline.
type Executor struct {
	registry *registry.Registry
	gate     *permission.Gate
}

// New creates an executor over a registry and a permission gate.
func New(reg *registry.Registry, gate *permission.Gate) *Executor {
	return &Executor{
		registry: reg,
		gate:     gate,
	}
}

// Execute runs one tool call to completion. It never panics and never
// returns more or less than one Result. Once the provider function has been
// dispatched it runs to completion; cancellation is only honored by the
// handler itself.
func (e *Executor) Execute(ctx context.Context, req CallRequest) Result {
	started := time.Now()

	spec, err := e.registry.Lookup(req.ToolName)
	if err != nil {
		log.Error().Str("tool", req.ToolName).Msg("Unknown tool requested")
		return e.failure(req, StatusExecutionError, fmt.Sprintf("unknown tool: %s", req.ToolName))
	}

	args, err := materializeArguments(req.RawArguments)
	if err != nil {
		log.Error().Str("tool", req.ToolName).Err(err).Msg("Failed to parse tool arguments")
		return e.failure(req, StatusValidationError, fmt.Sprintf("invalid arguments: %v", err))
	}

	if err := e.registry.Validate(req.ToolName, args); err != nil {
		log.Error().Str("tool", req.ToolName).Err(err).Msg("Argument validation failed")
		return e.failure(req, StatusValidationError, err.Error())
	}

	decision := e.gate.Authorize(spec.Name, spec.Description, spec.Tier, args)
	if !decision.Allows() {
		log.Warn().Str("tool", req.ToolName).Msg("Permission denied")
		return Result{
			CallID:   req.CallID,
			ToolName: req.ToolName,
			Status:   StatusPermissionDenied,
			Error:    "permission denied",
			Summary:  fmt.Sprintf("%s was blocked by the permission policy", req.ToolName),
		}
	}

	handlerResult, err := e.dispatch(ctx, spec, args)
	duration := time.Since(started)
	if err != nil {
		log.Error().Str("tool", req.ToolName).Dur("duration", duration).Err(err).Msg("Tool execution failed")
		return e.failure(req, StatusExecutionError, err.Error())
	}

	log.Debug().Str("tool", req.ToolName).Dur("duration", duration).Msg("Tool execution completed")

	summary := handlerResult.Summary
	if summary == "" {
		summary = fmt.Sprintf("%s completed", req.ToolName)
	}

	return Result{
		CallID:   req.CallID,
		ToolName: req.ToolName,
		Status:   StatusSuccess,
		Payload:  handlerResult.Payload,
		Summary:  summary,
	}
}

// dispatch invokes the capability provider, converting panics into errors so
// a misbehaving tool can never take down the orchestration loop.
func (e *Executor) dispatch(ctx context.Context, spec *registry.Spec, args map[string]interface{}) (result *registry.HandlerResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("tool", spec.Name).Interface("panic", r).Msg("Tool handler panicked")
			result = nil
			err = fmt.Errorf("tool %s panicked: %v", spec.Name, r)
		}
	}()

	result, err = spec.Handler(ctx, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &registry.HandlerResult{}
	}
	return result, nil
}

func (e *Executor) failure(req CallRequest, status Status, message string) Result {
	return Result{
		CallID:   req.CallID,
		ToolName: req.ToolName,
		Status:   status,
		Error:    message,
		Summary:  fmt.Sprintf("%s failed: %s", req.ToolName, message),
	}
}

// materializeArguments converts the untrusted raw payload into a string-keyed
// map. Accepted shapes: absent/empty (no arguments), a JSON object, or a JSON
// string that itself contains a JSON object.
func materializeArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}

	var asMap map[string]interface{}
	if err := json.Unmarshal(raw, &asMap); err == nil {
		if asMap == nil {
			asMap = map[string]interface{}{}
		}
		return asMap, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if asString == "" {
			return map[string]interface{}{}, nil
		}
		if err := json.Unmarshal([]byte(asString), &asMap); err != nil {
			return nil, fmt.Errorf("argument string is not a JSON object: %w", err)
		}
		if asMap == nil {
			asMap = map[string]interface{}{}
		}
		return asMap, nil
	}

	return nil, fmt.Errorf("arguments must be a JSON object or a JSON-encoded object string")
}
