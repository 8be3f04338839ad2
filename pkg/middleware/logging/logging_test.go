package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/wilhg/redux/pkg/middleware"
	"github.com/wilhg/redux/pkg/store"
)

type bump struct{}

func (bump) Type() string { return "bump" }

func TestMiddleware_LogsActionAndState(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := middleware.Apply(Middleware[int](logger, slog.LevelInfo, true))(
		store.New(0, func(n int, _ store.Action) int { return n + 1 }),
	)
	s.Dispatch(bump{})

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if rec["msg"] != "dispatch" || rec["action_type"] != "bump" {
		t.Fatalf("unexpected record %v", rec)
	}
	if rec["state"] != float64(1) {
		t.Fatalf("expected post-dispatch state 1, got %v", rec["state"])
	}
}

func TestMiddleware_SkipsDisabledLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := middleware.Apply(Middleware[int](logger, slog.LevelDebug, false))(
		store.New(0, func(n int, _ store.Action) int { return n + 1 }),
	)
	s.Dispatch(bump{})
	if buf.Len() != 0 || s.LastState() != 1 {
		t.Fatalf("expected silent dispatch, got %q state=%d", buf.String(), s.LastState())
	}
}
