package ops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bagvoyage/bagvoyage/internal/config"
)

func TestReport_Filters(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	if _, err := StartSession(database, cfg, StartSessionInput{Date: "2024-05-01", Flight: "AB123", Client: "alpha", Remember: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := Tag(database, cfg, TagInput{Code: "4412345678901"}); err != nil {
		t.Fatal(err)
	}
	if _, err := StartSession(database, cfg, StartSessionInput{Date: "2024-05-02", Flight: "CD456", Client: "bravo", Remember: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := Tag(database, cfg, TagInput{Code: "4412345678902"}); err != nil {
		t.Fatal(err)
	}

	all, err := Report(database, ReportInput{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all.Records) != 2 {
		t.Fatalf("unfiltered = %d records, want 2", len(all.Records))
	}

	flight := "cd456" // flight filter upper-cases before matching
	out, err := Report(database, ReportInput{Flight: &flight})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Records) != 1 || out.Records[0].Code != "4412345678902" {
		t.Errorf("flight filter = %+v", out.Records)
	}
	if out.Summary.Tags != 1 {
		t.Errorf("Summary = %+v", out.Summary)
	}
}

func TestExport_WritesCSV(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	if _, err := StartSession(database, cfg, StartSessionInput{Date: "2024-05-01", Flight: "AB123", Client: "alpha", Remember: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := Tag(database, cfg, TagInput{Code: "4412345678901"}); err != nil {
		t.Fatal(err)
	}
	if _, err := Retrieve(database, cfg, RetrieveInput{Code: "4412345678901"}); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	date := "2024-05-01"
	flight := "AB123"
	out, err := Export(database, ExportInput{Dir: dir, Date: &date, Flight: &flight})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("Count = %d, want 2", out.Count)
	}
	if filepath.Base(out.Path) != "bag_details_2024-05-01_AB123_any.csv" {
		t.Errorf("Path = %q", out.Path)
	}

	data, err := os.ReadFile(out.Path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "Timestamp,Code,Type,Client,Matched") {
		t.Errorf("missing header: %q", content)
	}
	if !strings.Contains(content, "4412345678901") {
		t.Error("code missing from CSV")
	}
}

func TestExport_ExplicitPath(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	if _, err := StartSession(database, cfg, StartSessionInput{Flight: "AB123", Remember: true}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	out, err := Export(database, ExportInput{Path: path})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if out.Path != path {
		t.Errorf("Path = %q, want %q", out.Path, path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file not written: %v", err)
	}
}

func TestPrint_RendersTable(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	if _, err := StartSession(database, cfg, StartSessionInput{Date: "2024-05-01", Flight: "AB123", Remember: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := Tag(database, cfg, TagInput{Code: "4412345678901"}); err != nil {
		t.Fatal(err)
	}

	date := "2024-05-01"
	out, err := Print(database, PrintInput{Date: &date})
	if err != nil {
		t.Fatalf("Print failed: %v", err)
	}
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
	if !strings.Contains(out.HTML, "<table>") {
		t.Error("rendered HTML has no table")
	}
	if !strings.Contains(out.HTML, "4412345678901") {
		t.Error("code missing from rendered HTML")
	}
}

func TestHardware_Resolution(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	// Nothing stored, no config override, phone signature → off, detected.
	out, err := Hardware(database, cfg, HardwareInput{DeviceSignature: "iphone"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Enabled || !out.Detected {
		t.Errorf("phone: %+v", out)
	}

	// Recognized handheld signature → on by default.
	out, err = Hardware(database, cfg, HardwareInput{DeviceSignature: "honeywell ct60"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Enabled || !out.Detected {
		t.Errorf("handheld: %+v", out)
	}

	// Explicit toggle wins and persists.
	off := false
	if _, err := Hardware(database, cfg, HardwareInput{Enable: &off}); err != nil {
		t.Fatal(err)
	}
	out, err = Hardware(database, cfg, HardwareInput{DeviceSignature: "honeywell ct60"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Enabled || out.Detected {
		t.Errorf("stored flag ignored: %+v", out)
	}
}

func TestHardware_ConfigOverride(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()
	on := true
	cfg.HardwareScanner = &on

	out, err := Hardware(database, cfg, HardwareInput{DeviceSignature: "iphone"})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Enabled || out.Detected {
		t.Errorf("config override not applied: %+v", out)
	}
}

func TestPurge_RemovesStaleSessions(t *testing.T) {
	database := testDB(t)
	cfg := config.DefaultConfig()

	if _, err := StartSession(database, cfg, StartSessionInput{Flight: "AB123", Remember: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := Tag(database, cfg, TagInput{Code: "4412345678901"}); err != nil {
		t.Fatal(err)
	}

	// A freshly used session survives a 30-day purge.
	out, err := Purge(database, PurgeInput{OlderThanDays: 30})
	if err != nil {
		t.Fatal(err)
	}
	if out.Purged != 0 {
		t.Errorf("Purged = %d, want 0", out.Purged)
	}

	// Zero days purges everything not touched after this instant.
	time.Sleep(5 * time.Millisecond)
	out, err = Purge(database, PurgeInput{OlderThanDays: 0})
	if err != nil {
		t.Fatal(err)
	}
	if out.Purged != 1 {
		t.Errorf("Purged = %d, want 1", out.Purged)
	}
}
