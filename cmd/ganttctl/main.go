package main

import (
	"fmt"
	"os"

	"github.com/benvon/smart-gantt/cmd/ganttctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "ganttctl",
		Short: "Operator tool for the Smart Gantt dashboard",
		Long:  "Inspect spreadsheet rows offline: build the task hierarchy, lay out the chart, list themes and export CSV",
	}

	rootCmd.AddCommand(commands.NewHierarchyCmd())
	rootCmd.AddCommand(commands.NewLayoutCmd())
	rootCmd.AddCommand(commands.NewThemesCmd())
	rootCmd.AddCommand(commands.NewExportCmd())
	rootCmd.AddCommand(commands.NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
