package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/benvon/smart-gantt/internal/models"
)

// ExportFilename is the attachment name offered for downloads
const ExportFilename = "updated_gantt_chart.csv"

// ExportContentType is the MIME type of exported boards
const ExportContentType = "text/csv; charset=utf-8"

var exportHeader = []string{
	"item_id", "name", "activity_type", "is_title", "parent_id",
	"start_date", "end_date", "duration", "team", "status", "priority", "completed",
}

// Exporter renders tasks as a downloadable file
type Exporter interface {
	Export(w io.Writer, tasks []*models.Task) error
}

// CSVExporter writes one row per task in the order given
type CSVExporter struct{}

// Export implements Exporter
func (CSVExporter) Export(w io.Writer, tasks []*models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, t := range tasks {
		activity := "Sub Activity"
		if t.IsMain() {
			activity = "Main Activity"
		}
		parent := ""
		if t.ParentID != nil {
			parent = *t.ParentID
		}
		record := []string{
			t.ID,
			t.Name,
			activity,
			strconv.FormatBool(t.IsMain()),
			parent,
			t.StartDate.Format(models.DateLayout),
			t.EndDate.Format(models.DateLayout),
			strconv.Itoa(t.Duration),
			t.Assignee,
			string(t.Status),
			string(t.Priority),
			strconv.Itoa(t.Progress),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write task %s: %w", t.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
