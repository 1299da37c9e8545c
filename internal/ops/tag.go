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

// TagInput contains parameters for the Tag operation.
type TagInput struct {
	SessionID string // optional; default: active session
	Code      string // raw scan text; canonicalized before recording
}

// TagOutput contains the result of the Tag operation.
type TagOutput struct {
	Record baggage.Record `json:"record"`
}

// Tag records a check-in scan against the session partition. The session's
// client attaches to the record so retrieve matches can report the owner.
func Tag(database *sql.DB, cfg *config.Config, input TagInput) (*TagOutput, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, errors.NewInvalidRequest("code is required")
	}

	session, err := resolveSession(database, input.SessionID)
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
		Code:      baggage.CanonicalCode(input.Code),
		Type:      baggage.RecordTag,
		Client:    session.Client,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := db.InsertRecord(database, &rec); err != nil {
		return nil, err
	}
	if err := db.TrimRecords(database, session.ID, cfg.RecordCap); err != nil {
		return nil, err
	}

	return &TagOutput{Record: rec}, nil
}
