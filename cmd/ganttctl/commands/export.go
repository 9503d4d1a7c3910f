package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/benvon/smart-gantt/internal/spreadsheet"
	"github.com/benvon/smart-gantt/internal/timeline"
	"github.com/spf13/cobra"
)

// NewExportCmd creates the export command
func NewExportCmd() *cobra.Command {
	var rowsPath, outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export spreadsheet rows as the dashboard CSV",
		Long:  "Build the hierarchy from a FlatRow JSON file and write it in display order using the download CSV format",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := buildRows(rowsPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", outPath, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close %s: %v\n", outPath, err)
					}
				}()
				w = f
			}

			if err := (spreadsheet.CSVExporter{}).Export(w, timeline.OrderForDisplay(result.Tasks)); err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rowsPath, "rows", "r", "", "FlatRow JSON file (- for stdin)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output CSV file (default stdout)")
	_ = cmd.MarkFlagRequired("rows")

	return cmd
}
