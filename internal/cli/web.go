package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/lobo-cli/lobo/internal/config"
)

// webCmd runs a prompt with a search-focused system prompt. Same
// orchestrator, same interactive gating.
var webCmd = &cobra.Command{
	Use:   "web [question...]",
	Short: "Answer a question using web search",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrompt(cmd.Context(), strings.Join(args, " "), config.WebSearchSystemPrompt)
	},
}

func init() {
	rootCmd.AddCommand(webCmd)
}
