package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/benvon/smart-gantt/internal/models"
	"github.com/benvon/smart-gantt/internal/timeline"
	"github.com/benvon/smart-gantt/internal/validation"
	"github.com/spf13/cobra"
)

// NewLayoutCmd creates the layout command
func NewLayoutCmd() *cobra.Command {
	var rowsPath, view, status, priority, today string
	var zoom int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Lay out the Gantt chart for spreadsheet rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := timeline.ParseViewMode(view)
			if err != nil {
				return err
			}
			if status != timeline.FilterAll {
				if err := validation.ValidateTaskStatus(status); err != nil {
					return err
				}
			}
			if priority != timeline.FilterAll {
				if err := validation.ValidateTaskPriority(priority); err != nil {
					return err
				}
			}
			now := time.Now()
			if today != "" {
				if now, err = time.Parse(models.DateLayout, today); err != nil {
					return fmt.Errorf("invalid --today %q: %w", today, err)
				}
			}

			result, err := buildRows(rowsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			chart := timeline.Layout(result.Tasks, timeline.View{
				Mode:   mode,
				Zoom:   zoom,
				Filter: timeline.Filter{Status: status, Priority: priority},
			}, now)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), chart)
			}
			printChart(cmd.OutOrStdout(), chart)
			return nil
		},
	}

	cmd.Flags().StringVarP(&rowsPath, "rows", "r", "", "FlatRow JSON file (- for stdin)")
	cmd.Flags().StringVar(&view, "view", string(timeline.ViewWeek), "View mode: day, week, month or quarter")
	cmd.Flags().IntVar(&zoom, "zoom", timeline.DefaultZoom, "Zoom percentage (25-200, steps of 25)")
	cmd.Flags().StringVar(&status, "status", timeline.FilterAll, "Only show tasks with this status")
	cmd.Flags().StringVar(&priority, "priority", timeline.FilterAll, "Only show tasks with this priority")
	cmd.Flags().StringVar(&today, "today", "", "Date used for defaulted rows (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the chart as JSON")
	_ = cmd.MarkFlagRequired("rows")

	return cmd
}

func printChart(w io.Writer, chart timeline.Chart) {
	fmt.Fprintf(w, "view=%s zoom=%d%% px/day=%.2f range=%s..%s width=%.0fpx\n",
		chart.View.Mode, chart.View.Zoom, chart.PixelsPerDay,
		chart.Range.Start.Format(models.DateLayout), chart.Range.End.Format(models.DateLayout),
		chart.TotalWidth)
	for _, row := range chart.Rows {
		indent := ""
		if row.Level == models.LevelSub {
			indent = "  "
		}
		fmt.Fprintf(w, "%3d %s%-8s left=%8.1f width=%7.1f %s\n",
			row.Index, indent, row.TaskID, row.Bar.Left, row.Bar.Width, row.Name)
	}
}
