package ops

import (
	"database/sql"
	"strings"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// RetrieveInput contains parameters for the Retrieve operation.
type RetrieveInput struct {
	SessionID string // optional; default: active session
	Code      string // raw scan text; canonicalized before matching
}

// RetrieveOutput contains the result of the Retrieve operation.
type RetrieveOutput struct {
	Record  baggage.Record `json:"record"`
	Matched bool           `json:"matched"`
	// TagClient is the client that originally tagged the bag, when matched.
	TagClient string `json:"tag_client,omitempty"`
}

// Retrieve records a pickup scan and reports whether the bag was tagged.
// Matching searches the whole date+flight partition irrespective of which
// client originally tagged the bag; the owning client is copied onto the
// retrieve record.
func Retrieve(database *sql.DB, cfg *config.Config, input RetrieveInput) (*RetrieveOutput, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, errors.NewInvalidRequest("code is required")
	}

	session, err := resolveSession(database, input.SessionID)
	if err != nil {
		return nil, err
	}

	code := baggage.CanonicalCode(input.Code)

	tag, err := db.FindTag(database, session.Date, session.Flight, code)
	if err != nil {
		return nil, err
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rec := baggage.Record{
		ID:        id,
		SessionID: session.ID,
		Code:      code,
		Type:      baggage.RecordRetrieve,
		Matched:   tag != nil,
		Client:    session.Client,
		CreatedAt: time.Now().UnixMilli(),
	}
	if tag != nil {
		rec.Client = tag.Client
	}

	if err := db.InsertRecord(database, &rec); err != nil {
		return nil, err
	}
	if err := db.TrimRecords(database, session.ID, cfg.RecordCap); err != nil {
		return nil, err
	}

	out := &RetrieveOutput{Record: rec, Matched: tag != nil}
	if tag != nil {
		out.TagClient = tag.Client
	}
	return out, nil
}
