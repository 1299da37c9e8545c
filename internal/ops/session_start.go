package ops

import (
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// StartSessionInput contains parameters for the StartSession operation.
type StartSessionInput struct {
	Date   string // ISO calendar day; default: today
	Flight string // required
	Client string // optional
	// Remember persists the active-session pointer across process restarts.
	// An ephemeral session scopes scans for this run only.
	Remember bool
}

// StartSessionOutput contains the result of the StartSession operation.
type StartSessionOutput struct {
	Session  baggage.Session `json:"session"`
	Remember bool            `json:"remember"`
}

// StartSession creates (or re-activates) a session partition and makes it the
// active scan scope. Identical date/flight/client fields collapse to the same
// partition.
func StartSession(database *sql.DB, cfg *config.Config, input StartSessionInput) (*StartSessionOutput, error) {
	if strings.TrimSpace(input.Flight) == "" {
		return nil, errors.NewInvalidRequest("flight is required")
	}

	session := baggage.NewSession(input.Date, input.Flight, input.Client)

	if err := db.UpsertSession(database, session); err != nil {
		return nil, err
	}
	if err := db.TrimSessions(database, cfg.SessionIndexCap); err != nil {
		return nil, err
	}

	if input.Remember {
		raw, err := json.Marshal(session)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		if err := db.SetState(database, StateActiveSession, string(raw)); err != nil {
			return nil, err
		}
	} else {
		if err := db.DeleteState(database, StateActiveSession); err != nil {
			return nil, err
		}
	}

	return &StartSessionOutput{Session: session, Remember: input.Remember}, nil
}
