package ops

import (
	"database/sql"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/db"
)

// SessionsInput contains parameters for the Sessions operation.
type SessionsInput struct {
	Limit int // default: index cap
}

// SessionsOutput contains the result of the Sessions operation.
type SessionsOutput struct {
	Sessions []baggage.Session `json:"sessions"`
	Active   *baggage.Session  `json:"active,omitempty"`
}

// Sessions lists the session index most-recent-first, plus the active session
// if one is set.
func Sessions(database *sql.DB, input SessionsInput) (*SessionsOutput, error) {
	sessions, err := db.ListSessions(database, input.Limit)
	if err != nil {
		return nil, err
	}
	active, err := ActiveSession(database)
	if err != nil {
		return nil, err
	}
	return &SessionsOutput{Sessions: sessions, Active: active}, nil
}
