package export

import (
	"encoding/csv"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// WriteCSV writes records as a delimited report document. Timestamps use
// RFC 3339 in UTC so they round-trip.
func WriteCSV(w io.Writer, recs []baggage.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Timestamp", "Code", "Type", "Client", "Matched"}); err != nil {
		return err
	}

	for _, r := range recs {
		matched := ""
		if r.Type == baggage.RecordRetrieve {
			if r.Matched {
				matched = "Yes"
			} else {
				matched = "No"
			}
		}
		row := []string{
			r.Time().UTC().Format(time.RFC3339),
			r.Code,
			string(r.Type),
			r.Client,
			matched,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FileName derives the export filename from the report filter, with
// whitespace collapsed to underscores and placeholders for open fields.
func FileName(date, flight, client string) string {
	bits := []string{
		placeholder(date, "all"),
		placeholder(flight, "any"),
		placeholder(client, "any"),
	}
	return "bag_details_" + strings.Join(bits, "_") + ".csv"
}

func placeholder(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	return whitespaceRegex.ReplaceAllString(s, "_")
}
