package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo, "room-booking")

	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected attached logger")
	}
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected nil without attached logger")
	}

	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContextOr(context.Background(), fallback) != fallback {
		t.Fatalf("expected fallback logger")
	}
	if FromContextOr(ctx, fallback) != logger {
		t.Fatalf("expected context logger to win over fallback")
	}
}

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn, "room-booking")

	logger.Info("dropped")
	logger.Warn("kept", "room_id", "room-a")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "kept" || entry["service"] != "room-booking" || entry["room_id"] != "room-a" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
