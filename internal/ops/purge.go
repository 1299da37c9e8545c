package ops

import (
	"database/sql"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/db"
	"github.com/bagvoyage/bagvoyage/internal/errors"
)

// PurgeInput contains parameters for the Purge operation.
type PurgeInput struct {
	// OlderThanDays removes sessions last touched more than N days ago.
	OlderThanDays int
}

// PurgeOutput contains the result of the Purge operation.
type PurgeOutput struct {
	Purged int `json:"purged"`
}

// Purge permanently deletes stale sessions and their record partitions.
func Purge(database *sql.DB, input PurgeInput) (*PurgeOutput, error) {
	if input.OlderThanDays < 0 {
		return nil, errors.NewInvalidRequest("older_than_days must be non-negative")
	}

	cutoff := time.Now().AddDate(0, 0, -input.OlderThanDays)
	n, err := db.PurgeSessionsBefore(database, cutoff)
	if err != nil {
		return nil, err
	}
	return &PurgeOutput{Purged: n}, nil
}
