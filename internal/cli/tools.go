package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lobo-cli/lobo/pkg/registry"
	"github.com/lobo-cli/lobo/pkg/tools"
)

// toolsCmd prints the registered tools grouped by category.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List available tools with their risk tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New()
		if err := tools.RegisterAll(reg, tools.Options{}); err != nil {
			return err
		}

		byCategory := map[registry.Category][]*registry.Spec{}
		for _, spec := range reg.List() {
			byCategory[spec.Category] = append(byCategory[spec.Category], spec)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, category := range []registry.Category{
			registry.CategoryFiles,
			registry.CategoryShell,
			registry.CategoryWeb,
			registry.CategoryMail,
			registry.CategoryEditor,
		} {
			specs := byCategory[category]
			if len(specs) == 0 {
				continue
			}
			fmt.Fprintf(w, "%s\n", category)
			for _, spec := range specs {
				fmt.Fprintf(w, "  %s\t[%s]\t%s\n", spec.Name, spec.Tier, spec.Description)
			}
			fmt.Fprintln(w)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
