package errmodel

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAndFrom(t *testing.T) {
	e := Validation("missing", "field missing", map[string]any{"field": "run_id"})
	if e.Category != CategoryValidation || e.Code != "missing" {
		t.Fatalf("unexpected: %#v", e)
	}
	if got := From(e); got != e {
		t.Fatalf("From should return same error instance")
	}
}

func TestWriteHTTP_StatusAndEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	WriteHTTP(rr, req, Validation("bad_json", "oops", nil))
	if rr.Code != 400 {
		t.Fatalf("status=%d want 400", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "\"category\":\"validation\"") {
		t.Fatalf("body missing category: %s", body)
	}
	if !strings.Contains(body, "\"code\":\"bad_json\"") {
		t.Fatalf("body missing code: %s", body)
	}
}

func TestSentinels_MatchByCategoryAndCode(t *testing.T) {
	err := fmt.Errorf("await search: %w", TimedOut("2026-01-01T00:00:00Z"))
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected timed out match: %v", err)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Fatal("timed out must not match unavailable")
	}
	if !errors.Is(Unimplemented("custom"), ErrUnimplemented) {
		t.Fatal("expected unimplemented match")
	}
	if !IsCategory(Unavailable("empty"), CategoryAwait) {
		t.Fatal("unavailable should be in await category")
	}
}

func TestHTTPStatus_Await(t *testing.T) {
	if got := HTTPStatus(ErrTimedOut); got != 504 {
		t.Fatalf("timed out status=%d want 504", got)
	}
	if got := HTTPStatus(ErrUnavailable); got != 503 {
		t.Fatalf("unavailable status=%d want 503", got)
	}
	if got := HTTPStatus(Panic("boom")); got != 500 {
		t.Fatalf("panic status=%d want 500", got)
	}
}
