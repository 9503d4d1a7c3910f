package commands

import (
	"fmt"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/theme"
	"github.com/spf13/cobra"
)

// NewThemesCmd creates the themes command
func NewThemesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Inspect dashboard themes",
	}

	cmd.AddCommand(newThemesListCmd())
	cmd.AddCommand(newThemesShowCmd())

	return cmd
}

func newThemesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available themes",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range theme.Names() {
				tokens, err := theme.Tokens(string(name))
				if err != nil {
					return fmt.Errorf("failed to resolve theme %s: %w", name, err)
				}
				fmt.Fprintf(out, "%-10s %s\n", name, tokens.Description)
			}
			return nil
		},
	}
}

func newThemesShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:       "show [name]",
		Short:     "Show the style tokens of a theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: themeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			tokens, err := theme.Tokens(name)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), tokens)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Theme: %s (%s)\n", tokens.Label, tokens.Name)
			fmt.Fprintf(out, "  Container: %s\n", tokens.Container)
			fmt.Fprintf(out, "  Card: %s\n", tokens.Card)
			fmt.Fprintf(out, "  Header: %s\n", tokens.Header)
			fmt.Fprintf(out, "  Accent: %s\n", tokens.Accent)
			fmt.Fprintln(out, "  Status:")
			for _, s := range models.AllTaskStatuses() {
				fmt.Fprintf(out, "    %-12s %s\n", s, tokens.StatusToken(s))
			}
			fmt.Fprintln(out, "  Priority:")
			for _, p := range models.AllTaskPriorities() {
				fmt.Fprintf(out, "    %-12s %s\n", p, tokens.PriorityToken(p))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the tokens as JSON")

	return cmd
}

func themeNames() []string {
	names := make([]string, 0, len(theme.Names()))
	for _, n := range theme.Names() {
		names = append(names, string(n))
	}
	return names
}
