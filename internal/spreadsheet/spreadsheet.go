// Package spreadsheet holds the collaborators that read and write the project workbook.
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/benvon/smart-gantt/internal/models"
)

var (
	// ErrParsingUnavailable is returned by parsers that cannot read workbooks
	ErrParsingUnavailable = errors.New("spreadsheet parsing is not available")
	// ErrUnsupportedFile is returned for files without a spreadsheet extension
	ErrUnsupportedFile = errors.New("unsupported file type")
)

// AllowedExtensions are the accepted upload extensions
var AllowedExtensions = []string{".xlsx", ".xls"}

// ValidateFilename checks that a file name carries a spreadsheet extension
func ValidateFilename(name string) error {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (expected %s)", ErrUnsupportedFile, name, strings.Join(AllowedExtensions, " or "))
}

// Parser turns an uploaded workbook into flat rows
type Parser interface {
	Parse(ctx context.Context, filename string, r io.Reader) ([]models.FlatRow, error)
}

// UnavailableParser rejects every workbook with ErrParsingUnavailable.
// Clients send pre-parsed rows to the rows endpoint instead.
type UnavailableParser struct{}

// Parse implements Parser
func (UnavailableParser) Parse(_ context.Context, filename string, _ io.Reader) ([]models.FlatRow, error) {
	return nil, fmt.Errorf("%w: %s", ErrParsingUnavailable, filename)
}
