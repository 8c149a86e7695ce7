package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestJSONLoggerIncludesQueryID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx, id := EnsureQueryID(context.Background())
	log.With(String("board", "demo.json")).Debug(ctx, "trace computed", Float("length_mm", 3.81))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if entry["query_id"] != id {
		t.Fatalf("query_id = %v, want %s", entry["query_id"], id)
	}
	if entry["board"] != "demo.json" || entry["length_mm"] != 3.81 {
		t.Fatalf("missing fields in %v", entry)
	}
}

func TestEnsureQueryIDIsStable(t *testing.T) {
	ctx, first := EnsureQueryID(context.Background())
	_, second := EnsureQueryID(ctx)
	if first == "" || first != second {
		t.Fatalf("query id should be generated once, got %q then %q", first, second)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info(context.Background(), "dropped")
	log.Warn(context.Background(), "kept", Err(nil))
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on bare context")
	}
	ctx := ContextWithLogger(context.Background(), nil)
	if LoggerFromContext(ctx) == nil {
		t.Fatalf("nil logger should be replaced with noop")
	}
}
