package ops

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// State keys for persisted, process-wide flags.
const (
	StateActiveSession   = "active_session"
	StateHardwareScanner = "hardware_scanner"
)

// generateULID generates a new ULID for a record.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ActiveSession returns the persisted active session, or nil when none is set.
func ActiveSession(database *sql.DB) (*baggage.Session, error) {
	raw, err := db.GetState(database, StateActiveSession)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var s baggage.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// A corrupt pointer is treated as no session rather than a crash.
		return nil, nil
	}
	return &s, nil
}

// resolveSession resolves an explicit session ID or falls back to the active
// session pointer.
func resolveSession(database *sql.DB, sessionID string) (*baggage.Session, error) {
	if strings.TrimSpace(sessionID) != "" {
		return db.GetSession(database, strings.TrimSpace(sessionID))
	}
	s, err := ActiveSession(database)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.NewNoSession()
	}
	return s, nil
}

// cleanOptionalString trims an optional field, converting empty to nil.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
