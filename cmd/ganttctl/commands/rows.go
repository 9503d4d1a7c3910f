package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/benvon/smart-gantt/internal/hierarchy"
	"github.com/benvon/smart-gantt/internal/models"
)

// readRows loads flat rows from a JSON file holding either an array or {"rows": [...]}.
// "-" reads standard input.
func readRows(path string, stdin io.Reader) ([]models.FlatRow, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []models.FlatRow
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("parse rows: %w", err)
		}
		return rows, nil
	}

	var wrapped struct {
		Rows []models.FlatRow `json:"rows"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("parse rows: %w", err)
	}
	return wrapped.Rows, nil
}

// buildRows runs the hierarchy builder over a rows file
func buildRows(path string, stdin io.Reader) (*hierarchy.Result, error) {
	rows, err := readRows(path, stdin)
	if err != nil {
		return nil, err
	}
	return hierarchy.NewBuilder().Build(rows)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
