package ops

import (
	"database/sql"

	"github.com/bagvoyage/bagvoyage/internal/db"
)

// EndSessionOutput contains the result of the EndSession operation.
type EndSessionOutput struct {
	Ended bool   `json:"ended"`
	ID    string `json:"id,omitempty"`
}

// EndSession clears the active-session pointer. Recorded scans stay in their
// partition; only the active scope ends.
func EndSession(database *sql.DB) (*EndSessionOutput, error) {
	active, err := ActiveSession(database)
	if err != nil {
		return nil, err
	}
	if err := db.DeleteState(database, StateActiveSession); err != nil {
		return nil, err
	}

	out := &EndSessionOutput{Ended: active != nil}
	if active != nil {
		out.ID = active.ID
	}
	return out, nil
}
