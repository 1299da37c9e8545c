package db

import (
	"database/sql"
	"strings"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// UpsertSession records session metadata in the most-recent-first index.
// Re-starting an existing session only bumps its updated_at.
func UpsertSession(db *sql.DB, s baggage.Session) error {
	now := time.Now().UnixMilli()
	query := `
		INSERT INTO sessions (id, date, flight, client, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`
	if _, err := db.Exec(query, s.ID, s.Date, s.Flight, s.Client, now, now); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// TrimSessions evicts the oldest sessions beyond cap from the index.
// Records of evicted sessions go with them (cascade).
func TrimSessions(db *sql.DB, cap int) error {
	if cap <= 0 {
		return nil
	}
	query := `
		DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY updated_at DESC LIMIT ?
		)
	`
	if _, err := db.Exec(query, cap); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// GetSession retrieves session metadata by partition key.
func GetSession(db *sql.DB, id string) (*baggage.Session, error) {
	query := `SELECT id, date, flight, client FROM sessions WHERE id = ?`
	var s baggage.Session
	err := db.QueryRow(query, id).Scan(&s.ID, &s.Date, &s.Flight, &s.Client)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	return &s, nil
}

// ListSessions returns session metadata most-recent-first.
func ListSessions(db *sql.DB, limit int) ([]baggage.Session, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `
		SELECT id, date, flight, client FROM sessions
		ORDER BY updated_at DESC LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	sessions := make([]baggage.Session, 0)
	for rows.Next() {
		var s baggage.Session
		if err := rows.Scan(&s.ID, &s.Date, &s.Flight, &s.Client); err != nil {
			return nil, errors.NewStorage(err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return sessions, nil
}

// InsertRecord appends one scan event to its session partition.
func InsertRecord(db *sql.DB, r *baggage.Record) error {
	query := `
		INSERT INTO records (id, session_id, code, type, matched, client, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, r.ID, r.SessionID, r.Code, string(r.Type), boolToInt(r.Matched), r.Client, r.CreatedAt)
	if err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// TrimRecords evicts the oldest records beyond cap for one session partition.
func TrimRecords(db *sql.DB, sessionID string, cap int) error {
	if cap <= 0 {
		return nil
	}
	query := `
		DELETE FROM records WHERE session_id = ? AND id NOT IN (
			SELECT id FROM records WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`
	if _, err := db.Exec(query, sessionID, sessionID, cap); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// FindTag looks up the most recent tag record with the exact code within the
// date+flight partition, irrespective of which client originally tagged it.
func FindTag(db *sql.DB, date, flight, code string) (*baggage.Record, error) {
	query := `
		SELECT r.id, r.session_id, r.code, r.type, r.matched, r.client, r.created_at
		FROM records r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.date = ? AND s.flight = ? AND r.type = 'tag' AND r.code = ?
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT 1
	`
	row := db.QueryRow(query, date, strings.ToUpper(strings.TrimSpace(flight)), code)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	return rec, nil
}

// ListRecords returns records newest-first, filtered by any combination of
// date, flight and client. Nil filters match everything.
func ListRecords(db *sql.DB, date, flight, client *string) ([]baggage.Record, error) {
	query := `
		SELECT r.id, r.session_id, r.code, r.type, r.matched, r.client, r.created_at
		FROM records r
		JOIN sessions s ON s.id = r.session_id
	`
	var (
		conds []string
		args  []any
	)
	if date != nil && *date != "" {
		conds = append(conds, "s.date = ?")
		args = append(args, strings.TrimSpace(*date))
	}
	if flight != nil && *flight != "" {
		conds = append(conds, "s.flight = ?")
		args = append(args, strings.ToUpper(strings.TrimSpace(*flight)))
	}
	if client != nil && *client != "" {
		conds = append(conds, "s.client = ?")
		args = append(args, strings.TrimSpace(*client))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	recs := make([]baggage.Record, 0)
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, errors.NewStorage(err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return recs, nil
}

// ListSessionRecords returns one session partition's records newest-first.
func ListSessionRecords(db *sql.DB, sessionID string) ([]baggage.Record, error) {
	query := `
		SELECT id, session_id, code, type, matched, client, created_at
		FROM records
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := db.Query(query, sessionID)
	if err != nil {
		return nil, errors.NewStorage(err)
	}
	defer rows.Close()

	recs := make([]baggage.Record, 0)
	for rows.Next() {
		rec, err := scanRecordRows(rows)
		if err != nil {
			return nil, errors.NewStorage(err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorage(err)
	}
	return recs, nil
}

// PurgeSessionsBefore deletes sessions (and their records) last touched
// before cutoff, returning how many sessions were removed.
func PurgeSessionsBefore(db *sql.DB, cutoff time.Time) (int, error) {
	res, err := db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, errors.NewStorage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorage(err)
	}
	return int(n), nil
}

// State key/value helpers. The active-session pointer and the
// hardware-scanner flag live here.

// GetState returns the value for key, or "" when unset.
func GetState(db *sql.DB, key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.NewStorage(err)
	}
	return value, nil
}

// SetState stores a value under key, replacing any previous value.
func SetState(db *sql.DB, key, value string) error {
	query := `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := db.Exec(query, key, value); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// DeleteState removes key. Missing keys are not an error.
func DeleteState(db *sql.DB, key string) error {
	if _, err := db.Exec(`DELETE FROM state WHERE key = ?`, key); err != nil {
		return errors.NewStorage(err)
	}
	return nil
}

// row scanning helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row *sql.Row) (*baggage.Record, error) {
	return scanRecordFrom(row)
}

func scanRecordRows(rows *sql.Rows) (*baggage.Record, error) {
	return scanRecordFrom(rows)
}

func scanRecordFrom(s rowScanner) (*baggage.Record, error) {
	var (
		r       baggage.Record
		typ     string
		matched int
	)
	if err := s.Scan(&r.ID, &r.SessionID, &r.Code, &typ, &matched, &r.Client, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Type = baggage.RecordType(typ)
	r.Matched = matched != 0
	return &r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
