// Package tools implements the built-in capability providers and their
// registration: file operations, shell and system info, web search, local
// mail, and the editor API bridge.
package tools

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lobo-cli/lobo/pkg/registry"
)

// Options configures tool registration.
type Options struct {
	// EditorBaseURL is the base URL of the local editor API. Empty keeps
	// the default http://localhost:5005.
	EditorBaseURL string
	// CommandTimeout bounds execute_command runs. Zero keeps the default.
	CommandTimeout time.Duration
	// MailDir overrides the Thunderbird profile lookup, used in tests.
	MailDir string
	// HTTPClient is used for web search and the editor bridge. Nil gets a
	// default client with a timeout.
	HTTPClient *http.Client
}

// RegisterAll registers every built-in tool on the registry.
func RegisterAll(reg *registry.Registry, opts Options) error {
	if reg == nil {
		return errors.New("registry is required")
	}

	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 30 * time.Second
	}

	groups := [][]registry.Spec{
		fileTools(),
		shellTools(opts),
		webTools(opts),
		mailTools(opts),
		editorTools(opts),
	}

	for _, group := range groups {
		for _, spec := range group {
			if err := reg.Register(spec); err != nil {
				return fmt.Errorf("failed to register tool %s: %w", spec.Name, err)
			}
		}
	}
	return nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func boolArg(args map[string]interface{}, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
