package ops

import (
	"database/sql"
	"strings"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/export"
)

// PrintInput contains parameters for the Print operation.
type PrintInput struct {
	Date   *string
	Flight *string
	Client *string
}

// PrintOutput contains the result of the Print operation.
type PrintOutput struct {
	HTML    string          `json:"html"`
	Count   int             `json:"count"`
	Summary baggage.Summary `json:"summary"`
}

// Print renders the filtered report as a standalone HTML document for
// hard-copy output.
func Print(database *sql.DB, input PrintInput) (*PrintOutput, error) {
	recs, err := db.ListRecords(database,
		cleanOptionalString(input.Date),
		cleanOptionalString(input.Flight),
		cleanOptionalString(input.Client),
	)
	if err != nil {
		return nil, err
	}

	parts := []string{"Bag details"}
	for _, v := range []string{deref(input.Date), deref(input.Flight), deref(input.Client)} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	title := strings.Join(parts, " ")

	html, err := export.PrintHTML(title, recs)
	if err != nil {
		return nil, err
	}

	return &PrintOutput{
		HTML:    html,
		Count:   len(recs),
		Summary: baggage.Tally(recs),
	}, nil
}
