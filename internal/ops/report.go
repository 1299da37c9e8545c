package ops

import (
	"database/sql"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/db"
)

// ReportInput contains parameters for the Report operation.
// Nil filters match everything.
type ReportInput struct {
	Date   *string
	Flight *string
	Client *string
}

// ReportOutput contains the result of the Report operation.
type ReportOutput struct {
	Records []baggage.Record `json:"records"`
	Summary baggage.Summary  `json:"summary"`
}

// Report lists records newest-first across all sessions matching the filter,
// with tag/retrieve/matched/unmatched counters.
func Report(database *sql.DB, input ReportInput) (*ReportOutput, error) {
	recs, err := db.ListRecords(database,
		cleanOptionalString(input.Date),
		cleanOptionalString(input.Flight),
		cleanOptionalString(input.Client),
	)
	if err != nil {
		return nil, err
	}

	return &ReportOutput{
		Records: recs,
		Summary: baggage.Tally(recs),
	}, nil
}
