package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

type fixture struct {
	registry *registry.Registry
	channel  *permission.ScriptedChannel
	executor *Executor
	invoked  *[]string
}

func newFixture(t *testing.T, trust permission.TrustLevel, responses ...string) *fixture {
	t.Helper()

	reg := registry.New()
	invoked := []string{}

	register := func(name string, tier permission.RiskTier, handler registry.Handler) {
		require.NoError(t, reg.Register(registry.Spec{
			Name:        name,
			Description: "Test tool " + name,
			Tier:        tier,
			Category:    registry.CategoryFiles,
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    map[string]interface{}{"type": "string"},
					"command": map[string]interface{}{"type": "string"},
				},
				"required": []string{},
			},
			Handler: handler,
		}))
	}

	record := func(name string) registry.Handler {
		return func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
			invoked = append(invoked, name)
			return &registry.HandlerResult{
				Payload: map[string]interface{}{"args": args},
				Summary: name + " done",
			}, nil
		}
	}

	register("read_file", permission.RiskSafe, record("read_file"))
	register("create_file", permission.RiskModifying, record("create_file"))
	register("delete_file", permission.RiskDestructive, record("delete_file"))
	register("execute_command", permission.RiskModifying, record("execute_command"))
	register("broken_tool", permission.RiskSafe, func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		return nil, errors.New("disk on fire")
	})
	register("panicky_tool", permission.RiskSafe, func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		panic("boom")
	})

	channel := &permission.ScriptedChannel{Responses: responses}
	gate := permission.NewGate(trust, permission.NewCommandFilter(nil, nil), channel, "execute_command")

	return &fixture{
		registry: reg,
		channel:  channel,
		executor: New(reg, gate),
		invoked:  &invoked,
	}
}

func TestExecutor_Success(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:       "call-1",
		ToolName:     "read_file",
		RawArguments: json.RawMessage(`{"path":"a.txt"}`),
	})

	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "read_file done", result.Summary)
	assert.Equal(t, []string{"read_file"}, *f.invoked)
}

func TestExecutor_UnknownTool(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:   "call-2",
		ToolName: "summon_demon",
	})

	assert.Equal(t, "call-2", result.CallID)
	assert.Equal(t, StatusExecutionError, result.Status)
	assert.Contains(t, result.Error, "unknown tool")
	assert.Empty(t, *f.invoked)
}

func TestExecutor_MalformedArguments(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:       "call-3",
		ToolName:     "read_file",
		RawArguments: json.RawMessage(`[1,2,3]`),
	})

	assert.Equal(t, StatusValidationError, result.Status)
	assert.Empty(t, *f.invoked)
}

func TestExecutor_StringWrappedArguments(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	// Some providers emit arguments as a JSON-encoded string.
	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:       "call-4",
		ToolName:     "read_file",
		RawArguments: json.RawMessage(`"{\"path\":\"b.txt\"}"`),
	})

	assert.Equal(t, StatusSuccess, result.Status)
}

func TestExecutor_SchemaViolation(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:       "call-5",
		ToolName:     "read_file",
		RawArguments: json.RawMessage(`{"path":123}`),
	})

	assert.Equal(t, StatusValidationError, result.Status)
	assert.Contains(t, result.Error, "path")
	assert.Empty(t, *f.invoked)
}

func TestExecutor_SafeOnlyNeverInvokesRiskyProviders(t *testing.T) {
	f := newFixture(t, permission.TrustSafeOnly)

	for _, tool := range []string{"create_file", "delete_file"} {
		result := f.executor.Execute(context.Background(), CallRequest{
			CallID:       "call-" + tool,
			ToolName:     tool,
			RawArguments: json.RawMessage(`{"path":"a.txt"}`),
		})

		assert.Equal(t, StatusPermissionDenied, result.Status)
	}

	assert.Empty(t, *f.invoked, "no risky capability provider may run in safe-only mode")
}

func TestExecutor_DestructiveRequiresLiteralYes(t *testing.T) {
	tests := []struct {
		response   string
		wantStatus Status
		wantRun    bool
	}{
		{"YES", StatusSuccess, true},
		{"yes", StatusPermissionDenied, false},
		{"y", StatusPermissionDenied, false},
		{"", StatusPermissionDenied, false},
	}

	for _, tt := range tests {
		f := newFixture(t, permission.TrustInteractive, tt.response)

		result := f.executor.Execute(context.Background(), CallRequest{
			CallID:       "call-6",
			ToolName:     "delete_file",
			RawArguments: json.RawMessage(`{"path":"a.txt"}`),
		})

		assert.Equal(t, tt.wantStatus, result.Status, "response %q", tt.response)
		assert.Equal(t, tt.wantRun, len(*f.invoked) == 1, "response %q", tt.response)
	}
}

func TestExecutor_DenylistedCommandForcesDestructivePrompt(t *testing.T) {
	// execute_command is nominally modifying; a recursive force-delete must
	// be escalated to the destructive literal-YES path.
	f := newFixture(t, permission.TrustInteractive, "YES")

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:       "call-7",
		ToolName:     "execute_command",
		RawArguments: json.RawMessage(`{"command":"rm -rf /tmp/x/*"}`),
	})

	assert.Equal(t, StatusSuccess, result.Status)
	require.Len(t, f.channel.Prompts, 1)
	assert.Contains(t, f.channel.Prompts[0], "DESTRUCTIVE")
}

func TestExecutor_ProviderErrorBecomesExecutionError(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	result := f.executor.Execute(context.Background(), CallRequest{
		CallID:   "call-8",
		ToolName: "broken_tool",
	})

	assert.Equal(t, StatusExecutionError, result.Status)
	assert.Contains(t, result.Error, "disk on fire")
}

func TestExecutor_ProviderPanicIsContained(t *testing.T) {
	f := newFixture(t, permission.TrustAuto)

	var result Result
	assert.NotPanics(t, func() {
		result = f.executor.Execute(context.Background(), CallRequest{
			CallID:   "call-9",
			ToolName: "panicky_tool",
		})
	})

	assert.Equal(t, StatusExecutionError, result.Status)
	assert.Contains(t, result.Error, "boom")
}

func TestResult_ContentRoundTrip(t *testing.T) {
	original := Result{
		CallID:   "call-10",
		ToolName: "read_file",
		Status:   StatusSuccess,
		Payload: map[string]interface{}{
			"path":    "a.txt",
			"content": "hello world",
			"size":    float64(11),
		},
	}

	var parsed Result
	require.NoError(t, json.Unmarshal([]byte(original.Content()), &parsed))

	assert.Equal(t, original.CallID, parsed.CallID)
	assert.Equal(t, original.Status, parsed.Status)
	assert.Equal(t, original.Payload, parsed.Payload)
}

func TestMaterializeArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]interface{}
		wantErr bool
	}{
		{"empty payload", "", map[string]interface{}{}, false},
		{"null payload", "null", map[string]interface{}{}, false},
		{"object", `{"a":1}`, map[string]interface{}{"a": float64(1)}, false},
		{"empty string", `""`, map[string]interface{}{}, false},
		{"wrapped object", `"{\"a\":1}"`, map[string]interface{}{"a": float64(1)}, false},
		{"wrapped garbage", `"not json"`, nil, true},
		{"array", `[1]`, nil, true},
		{"number", `42`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := materializeArguments(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
