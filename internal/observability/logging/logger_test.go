package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLoggerTagsServiceAndFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, "bdchat-api", "warn")

	logger.Info("dropped")
	logger.Warn("chat_failed", "request_id", "r-1")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected exactly one json line, got %q: %v", buf.String(), err)
	}
	if entry["event"] != "chat_failed" || entry["service"] != "bdchat-api" || entry["request_id"] != "r-1" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["msg"]; ok {
		t.Fatalf("expected msg key to be renamed, got %v", entry)
	}
	if ts, _ := entry["time"].(string); !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC timestamp, got %q", entry["time"])
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if parseLevel("verbose") != parseLevel("info") {
		t.Fatalf("unknown level should fall back to info")
	}
	if parseLevel(" DEBUG ") >= parseLevel("info") {
		t.Fatalf("expected debug below info")
	}
}
