package ops

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bagvoyage/bagvoyage/internal/baggage"
	"github.com/bagvoyage/bagvoyage/internal/config"
	"github.com/bagvoyage/bagvoyage/internal/db"
)

// TestFullWorkflow exercises the complete shift lifecycle:
// session start → tag check-ins → retrieve matching → report → export →
// session end.
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()

	// 1. Start a remembered session
	startOut, err := StartSession(database, cfg, StartSessionInput{
		Date:     "2024-05-01",
		Flight:   "ab123",
		Client:   "alpha",
		Remember: true,
	})
	require.NoError(t, err)
	require.Equal(t, "2024-05-01|AB123|alpha", startOut.Session.ID)
	require.Equal(t, "AB123", startOut.Session.Flight)

	active, err := ActiveSession(database)
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, startOut.Session.ID, active.ID)

	// 2. Tag two bags against the active session
	tagOut, err := Tag(database, cfg, TagInput{Code: "4412345678901"})
	require.NoError(t, err)
	require.Equal(t, "4412345678901", tagOut.Record.Code)
	require.Equal(t, baggage.RecordTag, tagOut.Record.Type)
	require.Equal(t, "alpha", tagOut.Record.Client)

	_, err = Tag(database, cfg, TagInput{Code: "4412345678902"})
	require.NoError(t, err)

	// 3. Retrieve a tagged bag → matched
	retOut, err := Retrieve(database, cfg, RetrieveInput{Code: "4412345678901"})
	require.NoError(t, err)
	require.True(t, retOut.Matched)
	require.Equal(t, "alpha", retOut.TagClient)
	require.True(t, retOut.Record.Matched)

	// 4. Retrieve a never-tagged bag → unmatched but still recorded
	retOut, err = Retrieve(database, cfg, RetrieveInput{Code: "9999999999999"})
	require.NoError(t, err)
	require.False(t, retOut.Matched)
	require.Empty(t, retOut.TagClient)

	// 5. Report reflects all four scans
	repOut, err := Report(database, ReportInput{})
	require.NoError(t, err)
	require.Len(t, repOut.Records, 4)
	require.Equal(t, baggage.Summary{Tags: 2, Retrieves: 2, Matched: 1, Unmatched: 1}, repOut.Summary)

	// 6. Export to CSV
	expOut, err := Export(database, ExportInput{Dir: tmpDir})
	require.NoError(t, err)
	require.Equal(t, 4, expOut.Count)
	require.FileExists(t, expOut.Path)

	// 7. End the session; records stay
	endOut, err := EndSession(database)
	require.NoError(t, err)
	require.True(t, endOut.Ended)
	require.Equal(t, startOut.Session.ID, endOut.ID)

	active, err = ActiveSession(database)
	require.NoError(t, err)
	require.Nil(t, active)

	repOut, err = Report(database, ReportInput{})
	require.NoError(t, err)
	require.Len(t, repOut.Records, 4)
}

// Retrieves match tags recorded by a different client on the same day and
// flight, and the owning client is copied onto the retrieve record.
func TestRetrieveAcrossClients(t *testing.T) {
	database, err := db.Init(t.TempDir())
	require.NoError(t, err)
	defer database.Close()

	cfg := config.DefaultConfig()

	// Client alpha tags a bag.
	_, err = StartSession(database, cfg, StartSessionInput{
		Date: "2024-05-01", Flight: "AB123", Client: "alpha", Remember: true,
	})
	require.NoError(t, err)
	_, err = Tag(database, cfg, TagInput{Code: "4412345678901"})
	require.NoError(t, err)

	// Client bravo retrieves it.
	_, err = StartSession(database, cfg, StartSessionInput{
		Date: "2024-05-01", Flight: "AB123", Client: "bravo", Remember: true,
	})
	require.NoError(t, err)

	retOut, err := Retrieve(database, cfg, RetrieveInput{Code: "4412345678901"})
	require.NoError(t, err)
	require.True(t, retOut.Matched)
	require.Equal(t, "alpha", retOut.TagClient)
	require.Equal(t, "alpha", retOut.Record.Client)
}
