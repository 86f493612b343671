package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(minLevel LogLevel) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &Logger{out: buf, minLevel: minLevel}, buf
}

func TestLogEntryIsStructuredJSON(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)

	logger.Info("Sync pass started", map[string]interface{}{"pending": 3})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if entry.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", entry.Level)
	}
	if entry.Message != "Sync pass started" {
		t.Errorf("Message = %q", entry.Message)
	}
	if entry.Context["pending"] != float64(3) {
		t.Errorf("Context = %v", entry.Context)
	}
	if entry.Timestamp == "" {
		t.Error("Timestamp missing")
	}
}

func TestMinLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(LevelWarn)

	logger.Debug("noise")
	logger.Info("more noise")
	if buf.Len() != 0 {
		t.Errorf("Below-threshold entries written: %q", buf.String())
	}

	logger.Warn("something odd")
	if !strings.Contains(buf.String(), "something odd") {
		t.Error("Warn entry not written")
	}
}

func TestErrorEntryCarriesError(t *testing.T) {
	logger, buf := newTestLogger(LevelDebug)

	logger.Error("Sync failed", errTest("boom"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not JSON: %v", err)
	}
	if entry.Error != "boom" {
		t.Errorf("Error = %q, want boom", entry.Error)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"unknown": LevelInfo,
		"":        LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
