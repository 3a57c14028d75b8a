package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"bills/internal/log"
)

func TestGenerateRequestID(t *testing.T) {
	re := regexp.MustCompile(`^req_[0-9a-f]{16}$`)
	a, b := GenerateRequestID(), GenerateRequestID()
	if !re.MatchString(a) || a == b {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
}

func TestMiddlewareLogsAndObserves(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Format: log.FormatJSON, Output: &buf})

	var gotStatus int
	var gotID string
	m := NewMiddleware(func(*http.Request) string { return "203.0.113.7" }, func(r *http.Request, status int, _ time.Duration) {
		gotStatus = status
		gotID = GetRequestID(r.Context())
	})
	h := log.Middleware(logger)(RequestID(log.RequestIDMiddleware(FromRequest)(m.Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			w.WriteHeader(http.StatusOK)
		})))))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/bills?x=1", nil))

	if gotStatus != http.StatusTeapot {
		t.Fatalf("observed status %d", gotStatus)
	}
	if gotID == "" || rr.Header().Get(HeaderRequestID) != gotID {
		t.Fatalf("request id %q, header %q", gotID, rr.Header().Get(HeaderRequestID))
	}
	out := buf.String()
	for _, want := range []string{`"HTTP request started"`, `"HTTP request completed"`, `"request_id":"` + gotID, `"client_ip":"203.0.113.7"`, `"level":"WARN"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := FromRequest(r); id != "" {
		t.Fatalf("got %q", id)
	}
}
