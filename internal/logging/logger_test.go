package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(t *testing.T, format string, level string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(level))

	var handler slog.Handler
	switch format {
	case "json":
		handler = newJSONHandler(buf, levelVar, false)
	default:
		handler = newPrettyHandler(buf, levelVar, false)
	}
	return slog.New(handler), buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestPrettyHandlerOutput(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")
	logger = NewComponentLogger(logger, "classifier")

	logger.Info("target selected", String(FieldTarget, "dwi"), Int("descriptions", 12))

	line := buf.String()
	if !strings.Contains(line, "INFO classifier: target selected") {
		t.Errorf("line missing component prefix: %q", line)
	}
	if !strings.Contains(line, "target=dwi") || !strings.Contains(line, "descriptions=12") {
		t.Errorf("line missing attributes: %q", line)
	}
}

func TestPrettyHandlerQuotesValues(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")

	logger.Info("visit mapped", String(FieldVisit, "Month 12"))

	if !strings.Contains(buf.String(), `visit="Month 12"`) {
		t.Errorf("expected quoted value, got %q", buf.String())
	}
}

func TestPrettyHandlerLevelFilter(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "warn")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be suppressed: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	logger, buf := newBufferLogger(t, "json", "info")

	logger.Info("manifest written", String(FieldPath, "/tmp/manifest.csv"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid json output: %v", err)
	}
	if record["msg"] != "manifest written" {
		t.Errorf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Errorf("level = %v", record["level"])
	}
	ts, ok := record["ts"].(string)
	if !ok {
		t.Fatalf("ts missing: %v", record)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("ts not RFC3339: %v", err)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "run.log")

	logger, err := New(Options{Level: "info", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Errorf("log file missing record: %q", data)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logger, buf := newBufferLogger(t, "console", "info")

	WarnWithContext(logger, "duplicate description", "duplicate_description",
		String("description", "MPRAGE"))

	out := buf.String()
	for _, want := range []string{"event_type=duplicate_description", "error_hint=", "impact="} {
		if !strings.Contains(out, want) {
			t.Errorf("warn output missing %q: %q", want, out)
		}
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := NewNop()
	logger.Info("dropped")
	logger.Error("also dropped")
}
