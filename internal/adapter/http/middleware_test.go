package adapthttp

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	s := &Server{logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	handler := s.loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("OK"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/test-path", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("Expected status %d, got %d", http.StatusTeapot, w.Code)
	}
	out := buf.String()
	if !strings.Contains(out, `"method":"GET"`) || !strings.Contains(out, `"path":"/test-path"`) || !strings.Contains(out, `"status":418`) || !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("Log output missing expected fields. Got: %s", out)
	}
}

func TestIPLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newIPLimiter(60)
	l.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d within burst was denied", i)
		}
	}
	if l.Allow("a") {
		t.Fatal("request beyond burst was allowed")
	}
	if !l.Allow("b") {
		t.Fatal("separate client should have its own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatal("token should refill after one second")
	}

	now = now.Add(limiterIdleTTL + time.Minute)
	l.Allow("c")
	if _, ok := l.entries["b"]; ok {
		t.Error("idle bucket was not evicted")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	if got := clientIP(r); got != "198.51.100.7" {
		t.Errorf("clientIP = %q", got)
	}
	r.RemoteAddr = "garbage"
	if got := clientIP(r); got != "garbage" {
		t.Errorf("clientIP = %q", got)
	}
}
