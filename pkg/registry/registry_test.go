package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobo-cli/lobo/pkg/permission"
)

func echoHandler(ctx context.Context, args map[string]interface{}) (*HandlerResult, error) {
	return &HandlerResult{Payload: args, Summary: "echoed"}, nil
}

func echoSpec(name string) Spec {
	return Spec{
		Name:        name,
		Description: "Echo the message back.",
		Tier:        permission.RiskSafe,
		Category:    CategoryShell,
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"message": map[string]interface{}{
					"type":        "string",
					"description": "Message to echo",
				},
			},
			"required": []string{"message"},
		},
		Handler: echoHandler,
	}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(echoSpec("echo")))

	spec, err := r.Lookup("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", spec.Name)
	assert.Equal(t, permission.RiskSafe, spec.Tier)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := New()

	_, err := r.Lookup("no_such_tool")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RejectsInvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"empty name", Spec{Description: "x", Tier: permission.RiskSafe, Handler: echoHandler}},
		{"empty description", Spec{Name: "x", Tier: permission.RiskSafe, Handler: echoHandler}},
		{"nil handler", Spec{Name: "x", Description: "x", Tier: permission.RiskSafe}},
		{"bad tier", Spec{Name: "x", Description: "x", Tier: "spicy", Handler: echoHandler}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, New().Register(tt.spec))
		})
	}
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(echoSpec("echo")))
	assert.Error(t, r.Register(echoSpec("echo")))
}

func TestRegistry_ListIsStable(t *testing.T) {
	r := New()
	names := []string{"zeta", "alpha", "mid"}
	for _, name := range names {
		require.NoError(t, r.Register(echoSpec(name)))
	}

	for i := 0; i < 5; i++ {
		listed := r.List()
		require.Len(t, listed, 3)
		for j, name := range names {
			assert.Equal(t, name, listed[j].Name)
		}
	}
}

func TestRegistry_ExportDeclarations(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(echoSpec("echo")))

	decls := r.ExportDeclarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "function", decls[0].Type)
	assert.Equal(t, "echo", decls[0].Function.Name)
	assert.Equal(t, "Echo the message back.", decls[0].Function.Description)

	// Risk tier and category never leak into the provider declaration.
	_, hasTier := decls[0].Function.Parameters["tier"]
	assert.False(t, hasTier)
}

func TestRegistry_Validate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(echoSpec("echo")))

	assert.NoError(t, r.Validate("echo", map[string]interface{}{"message": "hi"}))

	err := r.Validate("echo", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message")

	err = r.Validate("echo", map[string]interface{}{"message": 42})
	assert.Error(t, err)
}

func TestRegistry_DefaultParameters(t *testing.T) {
	r := New()
	spec := Spec{
		Name:        "noop",
		Description: "Takes no arguments.",
		Tier:        permission.RiskSafe,
		Handler:     echoHandler,
	}
	require.NoError(t, r.Register(spec))

	// A nil schema becomes an accept-empty-object schema.
	assert.NoError(t, r.Validate("noop", map[string]interface{}{}))

	decls := r.ExportDeclarations()
	require.Len(t, decls, 1)
	assert.NotNil(t, decls[0].Function.Parameters)
}
