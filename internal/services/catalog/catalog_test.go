package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"roster/internal/services"
	"roster/internal/services/catalog"
)

func writeSnapshot(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.csv")
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestDirResolverResolvesSessionRows(t *testing.T) {
	snapshot := writeSnapshot(t,
		"participant_id,participant_dicom_dir,visit,session,datatype,bids_id",
		"3000,,BL,ses-1,['anat'],",
		"3001,,V04,ses-5,[],",
		"3002,,BL,ses-1,[],",
	)

	resolver := catalog.NewDirResolver("", nil)
	entries, err := resolver.Resolve(context.Background(), snapshot, "1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	want := catalog.Entry{Participant: "3000", Visit: "BL", Session: "ses-1", BIDSID: "sub-3000"}
	if entries[0] != want {
		t.Errorf("entries[0] = %+v, want %+v", entries[0], want)
	}
	if entries[1].BIDSID != "sub-3002" {
		t.Errorf("entries[1].BIDSID = %q, want sub-3002", entries[1].BIDSID)
	}
}

func TestDirResolverMatchesRawSessionCodes(t *testing.T) {
	snapshot := writeSnapshot(t,
		"participant_id,participant_dicom_dir,visit,session,datatype,bids_id",
		"3000,,BL,1,[],",
	)

	resolver := catalog.NewDirResolver("", nil)
	entries, err := resolver.Resolve(context.Background(), snapshot, "1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Session != "1" {
		t.Fatalf("entries = %+v, want one row with raw session code", entries)
	}
}

func TestDirResolverMissingSnapshot(t *testing.T) {
	resolver := catalog.NewDirResolver("", nil)
	_, err := resolver.Resolve(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), "1")
	if !errors.Is(err, services.ErrCatalog) {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func TestDirResolverMissingColumns(t *testing.T) {
	snapshot := writeSnapshot(t,
		"participant_id,visit",
		"3000,BL",
	)

	resolver := catalog.NewDirResolver("", nil)
	_, err := resolver.Resolve(context.Background(), snapshot, "1")
	if !errors.Is(err, services.ErrCatalog) {
		t.Fatalf("expected catalog error, got %v", err)
	}
	if !strings.Contains(err.Error(), "session") {
		t.Errorf("error %q should name the missing column", err)
	}
}

func TestDirResolverReportsMissingDICOMDirs(t *testing.T) {
	dicomDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dicomDir, "3000"), 0o755); err != nil {
		t.Fatal(err)
	}
	snapshot := writeSnapshot(t,
		"participant_id,participant_dicom_dir,visit,session,datatype,bids_id",
		"3000,,BL,ses-1,[],",
		"3002,,BL,ses-1,[],",
	)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	resolver := catalog.NewDirResolver(dicomDir, logger)
	if _, err := resolver.Resolve(context.Background(), snapshot, "1"); err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	logged := buf.String()
	if !strings.Contains(logged, "without_dicom_dir=1") {
		t.Errorf("log should count the participant without DICOM data: %s", logged)
	}
	if !strings.Contains(logged, "participants=2") {
		t.Errorf("log should count resolved participants: %s", logged)
	}
}
