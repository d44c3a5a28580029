// Package cli wires the cobra command tree: the root prompt command plus the
// tools and web subcommands.
package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lobo-cli/lobo/internal/config"
	"github.com/lobo-cli/lobo/internal/logger"
	"github.com/lobo-cli/lobo/pkg/executor"
	"github.com/lobo-cli/lobo/pkg/orchestrator"
	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/provider"
	"github.com/lobo-cli/lobo/pkg/registry"
	"github.com/lobo-cli/lobo/pkg/tools"
)

const version = "0.1.0"

var (
	cfgFile       string
	flagSafe      bool
	flagAuto      bool
	flagVerbose   bool
	flagProvider  string
	flagModel     string
	flagMaxIter   int
	flagImages    []string
)

// rootCmd runs a single prompt through the orchestrator.
var rootCmd = &cobra.Command{
	Use:   "lobo [prompt...]",
	Short: "Lobo - terminal AI assistant with tool use",
	Long: `Lobo is a terminal AI assistant. It sends your prompt to an LLM
provider (Ollama by default), lets the model call host tools for file
operations, shell commands, web search, mail, and editor access, and gates
every side effect through a risk-tiered permission policy.`,
	Version: version,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrompt(cmd.Context(), strings.Join(args, " "), "")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lobo/lobo.json)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider (ollama, openai, anthropic)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name")
	rootCmd.PersistentFlags().IntVar(&flagMaxIter, "max-iterations", 0, "maximum tool iterations per run")

	rootCmd.Flags().BoolVar(&flagSafe, "safe", false, "safe-only mode: read-only tools, no prompts")
	rootCmd.Flags().BoolVar(&flagAuto, "auto", false, "auto mode: approve every tool without prompting")
	rootCmd.Flags().StringArrayVar(&flagImages, "image", nil, "image file to attach (repeatable)")
	rootCmd.MarkFlagsMutuallyExclusive("safe", "auto")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagMaxIter > 0 {
		cfg.MaxToolIterations = flagMaxIter
	}
	if flagSafe {
		cfg.TrustLevel = string(permission.TrustSafeOnly)
	}
	if flagAuto {
		cfg.TrustLevel = string(permission.TrustAuto)
	}
	if flagVerbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runPrompt builds the full stack from config and runs one prompt. A
// non-empty systemPrompt overrides the configured one.
func runPrompt(ctx context.Context, prompt, systemPrompt string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lg, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   flagVerbose,
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return err
	}
	defer lg.Close()

	images, err := loadImages(flagImages)
	if err != nil {
		return err
	}
	model := cfg.Model
	if len(images) > 0 && cfg.VisionModel != "" {
		model = cfg.VisionModel
	}

	trust, err := permission.ParseTrustLevel(cfg.TrustLevel)
	if err != nil {
		return err
	}

	reg := registry.New()
	if err := tools.RegisterAll(reg, tools.Options{
		EditorBaseURL:  cfg.EditorAPIURL,
		CommandTimeout: time.Duration(cfg.CommandTimeoutSec) * time.Second,
	}); err != nil {
		return err
	}

	filter := permission.NewCommandFilter(cfg.CustomAllowlist, cfg.CustomDenylist)
	gate := permission.NewGate(trust, filter, permission.NewConsoleChannel(os.Stdin, os.Stderr), "execute_command")

	llm, err := provider.New(cfg.Provider, provider.Config{
		OllamaBaseURL:   cfg.OllamaBaseURL,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
	})
	if err != nil {
		return err
	}

	if systemPrompt == "" {
		systemPrompt = cfg.SystemPrompt
	}

	orch, err := orchestrator.New(orchestrator.Config{
		Provider:      llm,
		Executor:      executor.New(reg, gate),
		Registry:      reg,
		Model:         model,
		SystemPrompt:  systemPrompt,
		MaxIterations: cfg.MaxToolIterations,
	})
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx, prompt, images)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Println(result.Answer)
	return nil
}

// loadImages reads image files and base64-encodes their contents.
func loadImages(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	images := make([]string, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", path, err)
		}
		images = append(images, base64.StdEncoding.EncodeToString(data))
	}
	return images, nil
}
