package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/taxifare/internal/events"
	"github.com/example/taxifare/internal/form"
	"github.com/example/taxifare/internal/location"
	"github.com/example/taxifare/internal/logging"
	"github.com/example/taxifare/internal/session"
)

func newLoggedServer(t *testing.T) (*Server, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	f := &form.Service{
		Store:     session.NewMemoryStore(time.Minute),
		Selector:  location.NewSelector(stubGeocoder{}, nil),
		Predictor: &stubPredictor{},
		Publisher: events.Nop{},
	}
	return NewServer(f, logging.New(&buf, "debug"), []string{"*"}), &buf
}

// logLines decodes the JSON lines written so far and returns those with msg.
func logLines(t *testing.T, buf *bytes.Buffer, msg string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			t.Fatalf("log line is not JSON: %v (%s)", err, raw)
		}
		if line["msg"] == msg {
			out = append(out, line)
		}
	}
	return out
}

func TestAccessLogLevelFollowsStatus(t *testing.T) {
	s, buf := newLoggedServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/missing/render", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("X-Real-IP", "203.0.113.7")
	req.Header.Set("User-Agent", "fare-test")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound || rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("status=%d request id=%q", rec.Code, rec.Header().Get("X-Request-ID"))
	}
	lines := logLines(t, buf, "http_request")
	if len(lines) != 1 {
		t.Fatalf("access log lines = %d (%s)", len(lines), buf.String())
	}
	l := lines[0]
	if l["level"] != "WARN" || l["route"] != "/api/v1/sessions/{session_id}/render" || l["status"] != float64(404) {
		t.Fatalf("line = %v", l)
	}
	if l["request_id"] != "req-42" || l["client_ip"] != "203.0.113.7" || l["user_agent"] != "fare-test" {
		t.Fatalf("line = %v", l)
	}
	if n, _ := l["bytes"].(float64); int(n) != rec.Body.Len() || n == 0 {
		t.Fatalf("bytes = %v, body = %d", l["bytes"], rec.Body.Len())
	}
}

func TestAccessLogInfoOnSuccess(t *testing.T) {
	s, buf := newLoggedServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	lines := logLines(t, buf, "http_request")
	if len(lines) != 1 || lines[0]["level"] != "INFO" || lines[0]["bytes"] != float64(2) {
		t.Fatalf("lines = %v", lines)
	}
}

func TestRequestIDReplacedWhenUnusable(t *testing.T) {
	s, _ := newLoggedServer(t)
	for _, id := range []string{"", "has space", strings.Repeat("x", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		if id != "" {
			req.Header.Set("X-Request-ID", id)
		}
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		got := rec.Header().Get("X-Request-ID")
		if got == "" || got == id || len(got) != 36 {
			t.Fatalf("id %q: response id = %q", id, got)
		}
	}
}

func TestRecoverPanicsLogsServerError(t *testing.T) {
	s, buf := newLoggedServer(t)
	s.mux.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if p := logLines(t, buf, "panic recovered"); len(p) != 1 || p[0]["error"] != "kaboom" {
		t.Fatalf("panic lines = %v", p)
	}
	if a := logLines(t, buf, "http_request"); len(a) != 1 || a[0]["level"] != "ERROR" || a[0]["status"] != float64(500) {
		t.Fatalf("access lines = %v", a)
	}
}

func TestClientIP(t *testing.T) {
	for _, tc := range []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.1", "X-Real-IP": "203.0.113.7"}, "198.51.100.1"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.7"}, "203.0.113.7"},
		{"peer", nil, "192.0.2.1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			if got := clientIP(r); got != tc.want {
				t.Fatalf("clientIP = %q, want %q", got, tc.want)
			}
		})
	}
}
