package ops

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
	"github.com/bagvoyage/bagvoyage/internal/export"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	// Path overrides the default <dir>/<filter-derived-name>.csv.
	Path string
	// Dir is the export directory used when Path is empty
	// (typically <base>/exports).
	Dir string

	Date   *string
	Flight *string
	Client *string
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string          `json:"path"`
	Count      int             `json:"count"`
	Summary    baggage.Summary `json:"summary"`
	ExportedAt int64           `json:"exported_at"`
}

// Export writes the filtered report as a CSV document. The filename derives
// from the date/flight/client filter.
func Export(database *sql.DB, input ExportInput) (*ExportOutput, error) {
	recs, err := db.ListRecords(database,
		cleanOptionalString(input.Date),
		cleanOptionalString(input.Flight),
		cleanOptionalString(input.Client),
	)
	if err != nil {
		return nil, err
	}

	path := input.Path
	if path == "" {
		dir := input.Dir
		if dir == "" {
			dir, err = defaultExportDir()
			if err != nil {
				return nil, errors.NewStorage(err)
			}
		}
		path = filepath.Join(dir, export.FileName(
			deref(input.Date), deref(input.Flight), deref(input.Client),
		))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.NewStorage(err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer file.Close()

	if err := export.WriteCSV(file, recs); err != nil {
		return nil, errors.NewStorage(err)
	}

	return &ExportOutput{
		Path:       path,
		Count:      len(recs),
		Summary:    baggage.Tally(recs),
		ExportedAt: time.Now().Unix(),
	}, nil
}

// defaultExportDir resolves ~/.bagvoyage/exports.
func defaultExportDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".bagvoyage", "exports"), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
