package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()

	oldLog := filepath.Join(dir, "classify-old.log")
	newLog := filepath.Join(dir, "classify-new.log")
	current := filepath.Join(dir, "classify-current.log")
	other := filepath.Join(dir, "notes.txt")

	for _, path := range []string{oldLog, newLog, current, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	stale := time.Now().AddDate(0, 0, -30)
	for _, path := range []string{oldLog, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatal(err)
		}
	}

	CleanupOldLogs(NewNop(), 7, dir, current)

	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Error("stale log should be removed")
	}
	if _, err := os.Stat(newLog); err != nil {
		t.Error("recent log should survive")
	}
	if _, err := os.Stat(current); err != nil {
		t.Error("excluded log should survive")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("non-log file should survive")
	}
}

func TestCleanupOldLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stale.log")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	stale := time.Now().AddDate(0, 0, -365)
	if err := os.Chtimes(path, stale, stale); err != nil {
		t.Fatal(err)
	}

	CleanupOldLogs(NewNop(), 0, dir)

	if _, err := os.Stat(path); err != nil {
		t.Error("pruning disabled; file should survive")
	}
}
