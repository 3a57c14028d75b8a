package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestJSONLoggerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: ComponentBills, Output: &buf})
	l.Info("hello", FieldBillID, "b1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("not json: %q", buf.String())
	}
	if rec[FieldComponent] != ComponentBills || rec[FieldBillID] != "b1" {
		t.Fatalf("unexpected record: %v", rec)
	}

	buf.Reset()
	l.With(FieldBillID, "b2").WithComponent(ComponentHTTP).Warn("x")
	if !strings.Contains(buf.String(), `"component":"http"`) || !strings.Contains(buf.String(), `"bill_id":"b2"`) {
		t.Fatalf("component not overridden: %s", buf.String())
	}
	if n := strings.Count(buf.String(), `"component"`); n != 1 {
		t.Fatalf("record carries %d component attributes: %s", n, buf.String())
	}
}

func TestTintHandlerWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: FormatTint, Output: &buf})
	l.Debug("hidden")
	l.Info("visible")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "visible") {
		t.Fatalf("unexpected tint output: %q", buf.String())
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: FormatJSON, Output: &buf})
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), `"request_id":"req_1"`) {
		t.Fatalf("request id missing: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf}))
	r := httptest.NewRequest(http.MethodPost, "/bills/batch", nil)
	sl.LogHTTPEnd(context.Background(), r, 503, 12, "1.2.3.4")
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Fatalf("5xx must log at error: %s", buf.String())
	}
	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("bad"), OpCreate, nil)
	if !strings.Contains(buf.String(), `"error":"bad"`) || !strings.Contains(buf.String(), `"operation":"create"`) {
		t.Fatalf("missing fields: %s", buf.String())
	}
}
