// Package registry holds the static tool catalog: one immutable Spec per
// tool, with its parameter schema compiled once at registration for local
// validation and exported in chat-completion tool-declaration shape for the
// LLM provider.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/lobo-cli/lobo/pkg/permission"
)

// ErrNotFound is returned when an unregistered tool name is looked up. The
// common cause is the model hallucinating a tool name, so callers must map
// it to a tool-level error rather than crash.
var ErrNotFound = errors.New("tool not found")

// Category groups tools for display.
type Category string

const (
	CategoryFiles  Category = "File Operations"
	CategoryShell  Category = "Shell & System"
	CategoryWeb    Category = "Web & Information"
	CategoryMail   Category = "Mail"
	CategoryEditor Category = "Editor"
)

// HandlerResult is what a capability provider returns on success.
type HandlerResult struct {
	// Payload is the structured result data serialized back to the model.
	Payload map[string]interface{}
	// Summary is a short human string describing what happened, shown on
	// the console.
	Summary string
}

// Handler is the uniform invocation signature every capability provider is
// registered behind.
type Handler func(ctx context.Context, args map[string]interface{}) (*HandlerResult, error)

// Spec is the immutable descriptor for one tool. Constructed once at process
// start and shared read-only afterwards.
type Spec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object describing the accepted arguments.
	// It serves both the provider-facing declaration and local validation.
	Parameters map[string]interface{}
	Tier       permission.RiskTier
	Category   Category
	Handler    Handler
}

// Declaration is the provider-facing tool shape (OpenAI function-calling
// layout, which Ollama also accepts). Risk tier and category are deliberately
// omitted.
type Declaration struct {
	Type     string       `json:"type"`
	Function FunctionDecl `json:"function"`
}

// FunctionDecl carries the declared function inside a Declaration.
type FunctionDecl struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Registry is the static tool catalog.
type Registry struct {
	specs   map[string]*Spec
	schemas map[string]*gojsonschema.Schema
	order   []string
	mu      sync.RWMutex
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		specs:   make(map[string]*Spec),
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// Register adds a tool spec, compiling its parameter schema. Registration
// order is preserved for display and export.
func (r *Registry) Register(spec Spec) error {
	if err := validateSpec(spec); err != nil {
		return fmt.Errorf("invalid tool spec: %w", err)
	}

	params := spec.Parameters
	if params == nil {
		params = map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		}
		spec.Parameters = params
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(params))
	if err != nil {
		return fmt.Errorf("failed to compile schema for %s: %w", spec.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[spec.Name]; exists {
		return fmt.Errorf("tool already registered: %s", spec.Name)
	}

	r.specs[spec.Name] = &spec
	r.schemas[spec.Name] = schema
	r.order = append(r.order, spec.Name)

	log.Debug().Str("tool", spec.Name).Str("tier", string(spec.Tier)).Msg("Tool registered")

	return nil
}

// Lookup returns the spec for a tool name, or ErrNotFound.
func (r *Registry) Lookup(name string) (*Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return spec, nil
}

// List returns all specs in registration order.
func (r *Registry) List() []*Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]*Spec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.specs[name])
	}
	return specs
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.specs)
}

// ExportDeclarations returns the provider-facing declarations for every tool,
// in registration order.
func (r *Registry) ExportDeclarations() []Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]Declaration, 0, len(r.order))
	for _, name := range r.order {
		spec := r.specs[name]
		decls = append(decls, Declaration{
			Type: "function",
			Function: FunctionDecl{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return decls
}

// Validate checks arguments against the tool's compiled parameter schema.
// The returned error names the offending field where the schema allows it.
func (r *Registry) Validate(name string, args map[string]interface{}) error {
	r.mu.RLock()
	schema := r.schemas[name]
	r.mu.RUnlock()

	if schema == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}
		return fmt.Errorf("invalid parameters: %v", messages)
	}
	return nil
}

func validateSpec(spec Spec) error {
	if spec.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if spec.Description == "" {
		return fmt.Errorf("tool description cannot be empty for %s", spec.Name)
	}
	if spec.Handler == nil {
		return fmt.Errorf("tool handler cannot be nil for %s", spec.Name)
	}
	switch spec.Tier {
	case permission.RiskSafe, permission.RiskModifying, permission.RiskDestructive:
	default:
		return fmt.Errorf("invalid risk tier %q for %s", spec.Tier, spec.Name)
	}
	return nil
}
