package baggage

import (
	"fmt"
	"strings"
	"time"
)

// Session is the active date/flight/client context that scopes which records
// a scan is recorded against or matched within.
type Session struct {
	ID     string `json:"id"`
	Date   string `json:"date"`   // ISO calendar day
	Flight string `json:"flight"` // upper-cased
	Client string `json:"client,omitempty"`
}

// SessionID derives the deterministic partition key for a session.
// Flight is trimmed and upper-cased so differing casing collapses to the
// same partition.
func SessionID(date, flight, client string) string {
	return fmt.Sprintf("%s|%s|%s",
		strings.TrimSpace(date),
		strings.ToUpper(strings.TrimSpace(flight)),
		strings.TrimSpace(client),
	)
}

// NewSession builds a session with normalized fields. An empty date defaults
// to today.
func NewSession(date, flight, client string) Session {
	date = strings.TrimSpace(date)
	if date == "" {
		date = TodayISO()
	}
	flight = strings.ToUpper(strings.TrimSpace(flight))
	client = strings.TrimSpace(client)
	return Session{
		ID:     SessionID(date, flight, client),
		Date:   date,
		Flight: flight,
		Client: client,
	}
}

// TodayISO returns the local calendar day in ISO format.
func TodayISO() string {
	return time.Now().Format("2006-01-02")
}
