package util

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestIDPropagatesIncomingHeader(t *testing.T) {
	const incoming = "req-incoming-123"
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != incoming {
		t.Fatalf("context request id = %q, want %q", seen, incoming)
	}
	if got := rec.Header().Get("X-Request-Id"); got != incoming {
		t.Fatalf("response request id = %q, want %q", got, incoming)
	}
}

func TestWithRequestIDReplacesMalformed(t *testing.T) {
	for _, incoming := range []string{"", "has space", strings.Repeat("x", 200)} {
		var seen string
		handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestIDFromRequest(r)
		}))
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		if incoming != "" {
			req.Header.Set("X-Request-Id", incoming)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if seen == "" || seen == incoming {
			t.Fatalf("expected generated id for %q, got %q", incoming, seen)
		}
		if rec.Header().Get("X-Request-Id") != seen {
			t.Fatalf("response header should carry the generated id")
		}
	}
}

func TestNewIDAndToken(t *testing.T) {
	a, b := NewID(), NewID()
	if len(a) != 32 || a == b || strings.Contains(a, "-") {
		t.Fatalf("unexpected ids %q %q", a, b)
	}
	if got := NewToken(16); len(got) != 32 {
		t.Fatalf("token length = %d, want 32", len(got))
	}
}
