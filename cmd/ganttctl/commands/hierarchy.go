package commands

import (
	"fmt"
	"io"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
	"github.com/spf13/cobra"
)

// NewHierarchyCmd creates the hierarchy command
func NewHierarchyCmd() *cobra.Command {
	var rowsPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "hierarchy",
		Short: "Build the task hierarchy from spreadsheet rows",
		Long:  "Build main and sub tasks from a FlatRow JSON file and report orphaned or defaulted rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := buildRows(rowsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printHierarchy(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rowsPath, "rows", "r", "", "FlatRow JSON file (- for stdin)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("rows")

	return cmd
}

func printHierarchy(w io.Writer, result *hierarchy.Result) {
	byID := make(map[string]*models.Task, len(result.Tasks))
	for _, t := range result.Tasks {
		byID[t.ID] = t
	}

	fmt.Fprintf(w, "%d tasks\n", len(result.Tasks))
	for _, t := range result.Tasks {
		if !t.IsMain() {
			continue
		}
		printTask(w, "", t)
		for _, childID := range t.Children {
			if child, ok := byID[childID]; ok {
				printTask(w, "  ", child)
			}
		}
	}
	for _, t := range result.Tasks {
		if !t.IsMain() && t.ParentID == nil {
			printTask(w, "? ", t)
		}
	}

	if len(result.Diagnostics) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d diagnostics\n", len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "  [%s] row %d %s: %s\n", d.Kind, d.Row, d.TaskID, d.Message)
	}
}

func printTask(w io.Writer, indent string, t *models.Task) {
	fmt.Fprintf(w, "%s%-8s %-32s %s..%s %3dd %3d%% %-11s %s\n",
		indent, t.ID, t.Name,
		t.StartDate.Format(models.DateLayout), t.EndDate.Format(models.DateLayout),
		t.Duration, t.Progress, t.Status, t.Priority)
}
