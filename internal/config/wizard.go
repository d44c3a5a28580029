package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lobo-cli/lobo/pkg/permission"
)

// Wizard provides an interactive configuration wizard.
type Wizard struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewWizardWith creates a wizard reading answers from r and writing prompts
// to w.
func NewWizardWith(r io.Reader, w io.Writer) *Wizard {
	return &Wizard{
		reader: bufio.NewReader(r),
		out:    w,
	}
}

// Run walks the user through the main settings and returns the resulting
// config. Empty answers keep the defaults.
func (w *Wizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "=== Lobo Configuration Wizard ===")
	fmt.Fprintln(w.out)

	cfg := DefaultConfig()

	// Provider
	for {
		fmt.Fprintf(w.out, "Provider (ollama/openai/anthropic) [%s]: ", cfg.Provider)
		answer, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if answer == "" {
			break
		}
		if answer != "ollama" && answer != "openai" && answer != "anthropic" {
			fmt.Fprintf(w.out, "Error: invalid provider %q (must be: ollama, openai, anthropic)\n", answer)
			continue
		}
		cfg.Provider = answer
		break
	}

	switch cfg.Provider {
	case "ollama":
		fmt.Fprintf(w.out, "Ollama base URL [%s]: ", cfg.OllamaBaseURL)
		url, err := w.readLine()
		if err != nil {
			return nil, err
		}
		if url != "" {
			cfg.OllamaBaseURL = url
		}
	case "openai":
		key, err := w.requireLine("OpenAI API Key: ")
		if err != nil {
			return nil, err
		}
		cfg.OpenAIAPIKey = key
	case "anthropic":
		key, err := w.requireLine("Anthropic API Key: ")
		if err != nil {
			return nil, err
		}
		cfg.AnthropicAPIKey = key
	}

	fmt.Fprintln(w.out)

	// Model
	fmt.Fprintf(w.out, "Model name [%s]: ", cfg.Model)
	model, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if model != "" {
		cfg.Model = model
	}

	fmt.Fprintln(w.out)

	// Trust level
	fmt.Fprintln(w.out, "Trust level options:")
	fmt.Fprintln(w.out, "  safe-only   - Read-only tools, everything else denied")
	fmt.Fprintln(w.out, "  interactive - Confirm modifying and destructive tools (default)")
	fmt.Fprintln(w.out, "  auto        - Approve every tool without prompting")
	fmt.Fprintf(w.out, "Trust level [%s]: ", cfg.TrustLevel)
	trust, err := w.readLine()
	if err != nil {
		return nil, err
	}
	if trust != "" {
		if _, err := permission.ParseTrustLevel(trust); err != nil {
			fmt.Fprintf(w.out, "Warning: %v, using default (%s)\n", err, cfg.TrustLevel)
		} else {
			cfg.TrustLevel = trust
		}
	}

	fmt.Fprintln(w.out)

	// Log level
	fmt.Fprint(w.out, "Log level (debug/info/warn/error) [info]: ")
	level, err := w.readLine()
	if err != nil {
		return nil, err
	}
	switch level {
	case "":
	case "debug", "info", "warn", "error":
		cfg.Logging.Level = level
	default:
		fmt.Fprintf(w.out, "Warning: invalid log level %q, using default (info)\n", level)
	}

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "Configuration complete!")

	return cfg, nil
}

// requireLine re-prompts until the user enters a non-empty answer.
func (w *Wizard) requireLine(prompt string) (string, error) {
	for {
		fmt.Fprint(w.out, prompt)
		answer, err := w.readLine()
		if err != nil {
			return "", err
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(w.out, "Error: a value is required")
	}
}

func (w *Wizard) readLine() (string, error) {
	line, err := w.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
